package mediagrab

import (
	"sync"
)

// SessionState is the lifecycle state of the client session.
type SessionState string

const (
	// StateUnknown is the initial state, before the bootstrap check resolves.
	StateUnknown SessionState = "unknown"
	// StateAnonymous means no valid token / no user.
	StateAnonymous SessionState = "anonymous"
	// StateAuthenticated means a token was exchanged for a profile.
	StateAuthenticated SessionState = "authenticated"
)

// Snapshot is one consistent observation of the session. Consumers never see
// a token-present/user-absent half state: transitions are applied atomically.
type Snapshot struct {
	State SessionState
	User  *User
	// Err is a short user-facing message from the last failed operation.
	Err string
}

// SessionListener receives a snapshot after every visible transition.
type SessionListener func(Snapshot)

// SessionOption customizes session store construction.
type SessionOption func(*SessionStore)

// WithSessionLogger overrides the logger used for invalid transitions.
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SessionStore is the single source of truth for "who is logged in".
//
// It is an app-lifetime state machine with no terminal state:
//
//	Unknown --bootstrap success--> Authenticated
//	Unknown --no token / bootstrap failure--> Anonymous
//	Anonymous --login or register success--> Authenticated
//	Authenticated --re-login--> Authenticated (profile refresh)
//	Authenticated --logout or 401--> Anonymous
//
// Every transition bumps an epoch. In-flight operations capture the epoch
// before suspending on the network and commit only if it has not moved, so a
// logout during a slow login wins (last write wins, stale writes are no-ops).
type SessionStore struct {
	mu     sync.Mutex
	state  SessionState
	user   *User
	errMsg string
	epoch  uint64

	nextListener int
	listeners    map[int]SessionListener
	logger       Logger
}

var sessionTransitions = map[SessionState]map[SessionState]struct{}{
	StateUnknown: {
		StateAnonymous:     {},
		StateAuthenticated: {},
	},
	StateAnonymous: {
		StateAuthenticated: {},
		StateAnonymous:     {},
	},
	StateAuthenticated: {
		StateAnonymous:     {},
		StateAuthenticated: {},
	},
}

// NewSessionStore returns a session store in the Unknown state.
func NewSessionStore(opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		state:     StateUnknown,
		listeners: map[int]SessionListener{},
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Current returns a consistent snapshot of the session.
func (s *SessionStore) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Epoch returns the current transition epoch. Operations capture it before
// suspending and pass it back when committing their result.
func (s *SessionStore) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Resolved reports whether the bootstrap check has completed.
func (s *SessionStore) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateUnknown
}

// IsAuthenticated reports whether a user is populated.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateAuthenticated
}

// HasRole reports whether the session is authenticated and the profile
// carries the given role. It is false in every other case, including Unknown.
func (s *SessionStore) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateAuthenticated && s.user != nil && s.user.Role == role
}

// Subscribe registers a listener invoked after every visible transition,
// in transition order. The returned function unsubscribes it.
func (s *SessionStore) Subscribe(fn SessionListener) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Invalidate forces the session to Anonymous regardless of epoch. It backs
// logout and the global unauthorized handler, and is idempotent: repeated
// calls from Anonymous stay Anonymous.
func (s *SessionStore) Invalidate(errMsg string) {
	s.mu.Lock()
	// invalidation also resolves a pending bootstrap
	s.applyLocked(StateAnonymous, nil, errMsg)
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snap)
}

// setAuthenticated commits a successful token-for-profile exchange. It is a
// no-op returning false when the epoch moved while the operation was in
// flight (e.g. logout during login).
func (s *SessionStore) setAuthenticated(epoch uint64, user *User) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.logger.Debug("session: stale authenticated write discarded (epoch %d != %d)", epoch, s.epoch)
		return false
	}
	if !s.canTransition(s.state, StateAuthenticated) {
		state := s.state
		s.mu.Unlock()
		s.logger.Warn("session: invalid transition %s -> %s", state, StateAuthenticated)
		return false
	}
	s.applyLocked(StateAuthenticated, user, "")
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snap)
	return true
}

// setAnonymous commits a resolved-but-unauthenticated result, guarded by
// epoch like setAuthenticated.
func (s *SessionStore) setAnonymous(epoch uint64, errMsg string) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.logger.Debug("session: stale anonymous write discarded (epoch %d != %d)", epoch, s.epoch)
		return false
	}
	if !s.canTransition(s.state, StateAnonymous) {
		state := s.state
		s.mu.Unlock()
		s.logger.Warn("session: invalid transition %s -> %s", state, StateAnonymous)
		return false
	}
	s.applyLocked(StateAnonymous, nil, errMsg)
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snap)
	return true
}

// fail records a user-facing error without changing state. Used when a login
// or registration is rejected and the session stays where it was.
func (s *SessionStore) fail(errMsg string) {
	s.mu.Lock()
	s.errMsg = errMsg
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snap)
}

func (s *SessionStore) canTransition(from, to SessionState) bool {
	if allowed, ok := sessionTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (s *SessionStore) applyLocked(state SessionState, user *User, errMsg string) {
	s.state = state
	s.user = user
	s.errMsg = errMsg
	s.epoch++
}

func (s *SessionStore) snapshotLocked() Snapshot {
	snap := Snapshot{
		State: s.state,
		Err:   s.errMsg,
	}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

func (s *SessionStore) listenersLocked() []SessionListener {
	out := make([]SessionListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []SessionListener, snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}
