package mediagrab_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediagrab "github.com/mediagrab/go-mediagrab"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &mediagrab.User{ID: 7, Email: "ada@example.com"}

	ctx := mediagrab.WithContext(context.Background(), user)

	got, ok := mediagrab.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestFromContextEmpty(t *testing.T) {
	_, ok := mediagrab.FromContext(context.Background())
	assert.False(t, ok)

	_, ok = mediagrab.FromContext(mediagrab.WithContext(context.Background(), nil))
	assert.False(t, ok, "a nil user does not count as present")
}
