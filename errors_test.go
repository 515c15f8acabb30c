package mediagrab_test

import (
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	mediagrab "github.com/mediagrab/go-mediagrab"
)

func TestErrorTextCodes(t *testing.T) {
	assert.Equal(t, mediagrab.TextCodeInvalidCredentials, mediagrab.ErrInvalidCredentials.TextCode)
	assert.Equal(t, mediagrab.TextCodeSessionExpired, mediagrab.ErrSessionExpired.TextCode)
	assert.Equal(t, mediagrab.TextCodeRegistrationRejected, mediagrab.ErrRegistrationRejected.TextCode)
	assert.Equal(t, mediagrab.TextCodeNetworkUnavailable, mediagrab.ErrNetworkUnavailable.TextCode)
	assert.Equal(t, mediagrab.TextCodeTokenNotFound, mediagrab.ErrTokenNotFound.TextCode)
}

func TestIsUnauthorizedError(t *testing.T) {
	assert.True(t, mediagrab.IsUnauthorizedError(mediagrab.ErrInvalidCredentials))
	assert.True(t, mediagrab.IsUnauthorizedError(mediagrab.ErrSessionExpired))
	assert.False(t, mediagrab.IsUnauthorizedError(mediagrab.ErrNetworkUnavailable))
	assert.False(t, mediagrab.IsUnauthorizedError(nil))
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, mediagrab.IsNetworkError(mediagrab.ErrNetworkUnavailable))
	assert.False(t, mediagrab.IsNetworkError(mediagrab.ErrInvalidCredentials))
	assert.False(t, mediagrab.IsNetworkError(nil))

	wrapped := errors.Wrap(mediagrab.ErrNetworkUnavailable, errors.CategoryOperation, "fetch failed").
		WithTextCode(mediagrab.TextCodeNetworkUnavailable)
	assert.True(t, mediagrab.IsNetworkError(wrapped))
}

func TestUserMessageNeverLeaksInternals(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "invalid credentials",
			err:  mediagrab.ErrInvalidCredentials,
			want: "Invalid email or password. Please check your details and try again.",
		},
		{
			name: "session expired",
			err:  mediagrab.ErrSessionExpired,
			want: "Your session has expired. Please sign in again.",
		},
		{
			name: "network",
			err:  mediagrab.ErrNetworkUnavailable,
			want: "The service is unreachable. Please try again later.",
		},
		{
			name: "unknown plain error",
			err:  errors.New("pq: duplicate key value violates unique constraint", errors.CategoryInternal),
			want: "Something went wrong. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mediagrab.UserMessage(tt.err))
		})
	}
}

func TestRoleHierarchy(t *testing.T) {
	assert.True(t, mediagrab.RoleIsAtLeast(mediagrab.RoleAdmin, mediagrab.RoleUser))
	assert.True(t, mediagrab.RoleIsAtLeast(mediagrab.RoleUser, mediagrab.RoleUser))
	assert.False(t, mediagrab.RoleIsAtLeast(mediagrab.RoleGuest, mediagrab.RoleUser))
	assert.False(t, mediagrab.RoleIsAtLeast("unknown", mediagrab.RoleGuest))
}
