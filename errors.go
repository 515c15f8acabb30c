package mediagrab

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials   = "auth_invalid_credentials"
	TextCodeSessionExpired       = "auth_session_expired"
	TextCodeRegistrationRejected = "auth_registration_rejected"
	TextCodeNetworkUnavailable   = "auth_network_unavailable"
	TextCodeTokenNotFound        = "auth_token_not_found"
	TextCodeTokenExpired         = "auth_token_expired"
	TextCodeTokenMalformed       = "auth_token_malformed"
	TextCodeProfileFetchFailed   = "auth_profile_fetch_failed"
)

// ErrInvalidCredentials is returned when the backend rejects a login or
// registration credential set.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrSessionExpired is returned when an authenticated request comes back 401.
var ErrSessionExpired = errors.New("session expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrRegistrationRejected is returned when the backend refuses a registration
// (duplicate email, invalid payload).
var ErrRegistrationRejected = errors.New("registration rejected", errors.CategoryConflict).
	WithTextCode(TextCodeRegistrationRejected).
	WithCode(errors.CodeConflict)

// ErrNetworkUnavailable is returned when the backend cannot be reached at all.
var ErrNetworkUnavailable = errors.New("service unreachable", errors.CategoryOperation).
	WithTextCode(TextCodeNetworkUnavailable).
	WithCode(errors.CodeInternal)

// ErrTokenNotFound is returned by token stores when no credential is persisted.
var ErrTokenNotFound = errors.New("no stored token", errors.CategoryNotFound).
	WithTextCode(TextCodeTokenNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned when a stored token is past its expiry claim.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a stored token cannot be parsed.
var ErrTokenMalformed = errors.New("token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrProfileFetchFailed is returned when /users/me fails for a reason other
// than an unauthorized token.
var ErrProfileFetchFailed = errors.New("unable to fetch user profile", errors.CategoryOperation).
	WithTextCode(TextCodeProfileFetchFailed).
	WithCode(errors.CodeInternal)

// IsUnauthorizedError reports whether err represents a backend 401, either as
// one of the rich errors above or as a wrapped unauthorized response.
func IsUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Code == errors.CodeUnauthorized
	}

	return strings.Contains(err.Error(), "unauthorized")
}

// IsNetworkError reports whether err means the backend was unreachable.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeNetworkUnavailable
	}

	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), "token expired")
}

// UserMessage converts err into a short user-facing message. Raw payloads and
// stack traces never reach UI code.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return "Something went wrong. Please try again."
	}

	switch richErr.TextCode {
	case TextCodeInvalidCredentials:
		return "Invalid email or password. Please check your details and try again."
	case TextCodeSessionExpired, TextCodeTokenExpired:
		return "Your session has expired. Please sign in again."
	case TextCodeRegistrationRejected:
		return "Registration failed. Please try again with different details."
	case TextCodeNetworkUnavailable:
		return "The service is unreachable. Please try again later."
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return "Please correct the highlighted fields."
	default:
		return "Something went wrong. Please try again."
	}
}
