// Package mediagrab is the client SDK for the MediaGrab REST API: it owns
// the authenticated session of a running client process and the token
// lifecycle behind it.
//
// Session lifecycle:
//   - SessionStore is the single source of truth for "who is logged in".
//     It starts Unknown, resolves to Anonymous or Authenticated during
//     Bootstrap, and moves between Anonymous and Authenticated through the
//     auth operations. Consumers observe changes via Subscribe.
//   - The bearer token lives in a TokenStore (durable, survives restarts).
//     It is written only by login/register, and cleared by logout or by the
//     transport-level unauthorized hook. No other writer exists.
//
// Transport:
//   - The HTTP pipeline is composed from explicit RoundTripper middlewares
//     (see the transport package): bearer injection, global 401 handling,
//     and request logging are independent layers, so each can be tested and
//     replaced on its own.
//
// Guarding views:
//   - middleware/sessionware gates protected routes on the local session
//     state: it renders a loading view while the session is unresolved,
//     redirects anonymous or under-privileged visitors, and lets admins
//     through. It never consults the backend.
package mediagrab
