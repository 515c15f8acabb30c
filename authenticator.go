package mediagrab

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Auther orchestrates login, registration, logout, and session bootstrap.
// Every operation resolves the session store to a terminal state; callers
// never observe a session stuck in the unknown state after an operation
// returns.
type Auther struct {
	api       *APIClient
	tokens    TokenStore
	session   *SessionStore
	logger    Logger
	validator TokenValidator
}

var _ Authenticator = (*Auther)(nil)

// NewAuther wires the API client, token store, and session store together.
func NewAuther(api *APIClient, tokens TokenStore, session *SessionStore) *Auther {
	return &Auther{
		api:     api,
		tokens:  tokens,
		session: session,
		logger:  defLogger{},
	}
}

// WithLogger overrides the default logger.
func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithTokenValidator adds server-side signature validation during bootstrap.
// Without one, bootstrap only checks the token's local expiry claim.
func (a *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	if validator != nil {
		a.validator = validator
	}
	return a
}

// Session exposes the store the authenticator drives.
func (a *Auther) Session() *SessionStore {
	return a.session
}

// Bootstrap resolves the initial session state from whatever token the store
// holds. It always leaves the session in a terminal state, even on network
// failure.
func (a *Auther) Bootstrap(ctx context.Context) error {
	epoch := a.session.Epoch()

	raw, err := a.tokens.Get(ctx)
	if err != nil || raw == "" {
		a.session.setAnonymous(epoch, "")
		return nil
	}

	if TokenExpired(raw, time.Now()) {
		a.logger.Debug("bootstrap: stored token expired, clearing")
		a.clearToken(ctx)
		a.session.setAnonymous(epoch, "")
		return nil
	}

	if a.validator != nil {
		if err := a.validator.Validate(raw); err != nil {
			a.logger.Debug("bootstrap: stored token rejected by validator: %v", err)
			a.clearToken(ctx)
			a.session.setAnonymous(epoch, "")
			return nil
		}
	}

	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		if IsUnauthorizedError(err) {
			a.clearToken(ctx)
			a.session.setAnonymous(epoch, "")
			return nil
		}
		// backend unreachable: keep the token, resolve anonymous for now
		a.logger.Warn("bootstrap: profile fetch failed: %v", err)
		a.session.setAnonymous(epoch, UserMessage(err))
		return err
	}

	a.session.setAuthenticated(epoch, user)
	return nil
}

// Login validates credentials, exchanges them for a token, and loads the
// profile. Failures surface on the session as an error message without a
// state change; the returned error carries the full context for callers.
func (a *Auther) Login(ctx context.Context, payload LoginRequest) error {
	if err := payload.Validate(); err != nil {
		a.session.fail(UserMessage(ErrInvalidCredentials))
		return errors.Wrap(err, errors.CategoryValidation, "invalid login payload")
	}

	epoch := a.session.Epoch()

	token, err := a.api.LoginToken(ctx, payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.session.fail(UserMessage(err))
		return err
	}

	return a.adopt(ctx, epoch, token.AccessToken)
}

// Register validates the payload before any network call, creates the
// account, and signs the new user in with the returned token.
func (a *Auther) Register(ctx context.Context, payload RegisterRequest) error {
	if err := payload.Validate(); err != nil {
		a.session.fail("registration payload is invalid")
		return errors.Wrap(err, errors.CategoryValidation, "invalid registration payload")
	}

	epoch := a.session.Epoch()

	token, err := a.api.RegisterToken(ctx, payload)
	if err != nil {
		a.session.fail(UserMessage(err))
		return err
	}

	return a.adopt(ctx, epoch, token.AccessToken)
}

// Logout clears the stored token and moves the session to anonymous. It is
// purely local and idempotent: no backend call, safe to repeat, and it wins
// over any login still in flight.
func (a *Auther) Logout(ctx context.Context) error {
	a.clearToken(ctx)
	a.session.Invalidate("")
	return nil
}

// adopt persists the token and promotes the session, guarded by the epoch
// captured before the exchange. If a logout landed in between, the fresh
// token is discarded instead of resurrecting the session.
func (a *Auther) adopt(ctx context.Context, epoch uint64, rawToken string) error {
	if a.session.Epoch() != epoch {
		a.logger.Info("auth: session changed during exchange, discarding token")
		return nil
	}

	if err := a.tokens.Set(ctx, rawToken); err != nil {
		a.session.fail(UserMessage(err))
		return errors.Wrap(err, errors.CategoryOperation, "failed to persist token")
	}

	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		a.clearToken(ctx)
		a.session.fail(UserMessage(ErrProfileFetchFailed))
		return errors.Wrap(err, ErrProfileFetchFailed.Category, ErrProfileFetchFailed.Message).
			WithTextCode(ErrProfileFetchFailed.TextCode)
	}

	if !a.session.setAuthenticated(epoch, user) {
		a.clearToken(ctx)
		a.logger.Info("auth: session changed during profile fetch, discarding token")
	}

	return nil
}

func (a *Auther) clearToken(ctx context.Context) {
	if err := a.tokens.Clear(ctx); err != nil {
		a.logger.Error("auth: failed to clear token: %v", err)
	}
}

// UnauthorizedHandler returns the single hook that expires a session when any
// authenticated request comes back 401. Wire it into the transport pipeline;
// nothing else in the codebase clears tokens on rejection.
func UnauthorizedHandler(tokens TokenStore, session *SessionStore, logger Logger) func(context.Context) {
	if logger == nil {
		logger = defLogger{}
	}

	return func(ctx context.Context) {
		logger.Info("auth: backend rejected token, expiring session")
		if err := tokens.Clear(ctx); err != nil {
			logger.Error("auth: failed to clear rejected token: %v", err)
		}
		session.Invalidate(UserMessage(ErrSessionExpired))
	}
}
