package mediagrab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreStartsUnknown(t *testing.T) {
	store := NewSessionStore()

	snap := store.Current()
	assert.Equal(t, StateUnknown, snap.State)
	assert.Nil(t, snap.User)
	assert.False(t, store.Resolved())
	assert.False(t, store.IsAuthenticated())
}

func TestSessionStoreAuthenticates(t *testing.T) {
	store := NewSessionStore()
	user := &User{ID: 1, Email: "ada@example.com", Role: RoleAdmin}

	ok := store.setAuthenticated(store.Epoch(), user)
	require.True(t, ok)

	snap := store.Current()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, user, snap.User)
	assert.True(t, store.Resolved())
	assert.True(t, store.IsAuthenticated())
	assert.True(t, store.HasRole(RoleAdmin))
	assert.False(t, store.HasRole(RoleUser))
}

func TestSessionStoreResolvesAnonymous(t *testing.T) {
	store := NewSessionStore()

	ok := store.setAnonymous(store.Epoch(), "")
	require.True(t, ok)

	snap := store.Current()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.True(t, store.Resolved())
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.HasRole(RoleUser))
}

func TestSessionStoreRejectsStaleEpoch(t *testing.T) {
	store := NewSessionStore()

	stale := store.Epoch()
	store.Invalidate("")

	ok := store.setAuthenticated(stale, &User{ID: 2, Email: "late@example.com"})
	assert.False(t, ok, "a write from before the invalidation must lose")
	assert.Equal(t, StateAnonymous, store.Current().State)
}

func TestSessionStoreInvalidateAlwaysLands(t *testing.T) {
	store := NewSessionStore()

	store.Invalidate("session expired")
	snap := store.Current()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.Equal(t, "session expired", snap.Err)

	// idempotent: a second invalidation keeps the terminal state
	store.Invalidate("")
	assert.Equal(t, StateAnonymous, store.Current().State)
}

func TestSessionStoreFailKeepsState(t *testing.T) {
	store := NewSessionStore()
	require.True(t, store.setAnonymous(store.Epoch(), ""))

	epoch := store.Epoch()
	store.fail("incorrect password")

	snap := store.Current()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.Equal(t, "incorrect password", snap.Err)
	assert.Equal(t, epoch, store.Epoch(), "an error message is not a state change")
}

func TestSessionStoreReauthenticationRefreshesProfile(t *testing.T) {
	store := NewSessionStore()
	require.True(t, store.setAuthenticated(store.Epoch(), &User{ID: 1, Username: "ada"}))

	ok := store.setAuthenticated(store.Epoch(), &User{ID: 1, Username: "ada.lovelace"})
	require.True(t, ok, "a second login replaces the profile in place")

	snap := store.Current()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, "ada.lovelace", snap.User.Username)
}

func TestSessionStoreNotifiesSubscribers(t *testing.T) {
	store := NewSessionStore()

	var got []SessionState
	unsubscribe := store.Subscribe(func(snap Snapshot) {
		got = append(got, snap.State)
	})

	require.True(t, store.setAuthenticated(store.Epoch(), &User{ID: 1}))
	store.Invalidate("")

	unsubscribe()
	store.fail("ignored after unsubscribe")

	assert.Equal(t, []SessionState{StateAuthenticated, StateAnonymous}, got)
}

func TestSessionStoreUnsubscribeIsIdempotent(t *testing.T) {
	store := NewSessionStore()

	calls := 0
	unsubscribe := store.Subscribe(func(Snapshot) { calls++ })
	unsubscribe()
	unsubscribe()

	store.Invalidate("")
	assert.Zero(t, calls)
}

func TestSessionStoreSnapshotIsDetached(t *testing.T) {
	store := NewSessionStore()
	require.True(t, store.setAuthenticated(store.Epoch(), &User{ID: 1, Username: "ada"}))

	snap := store.Current()
	snap.User.Username = "mutated"

	assert.Equal(t, "ada", store.Current().User.Username, "callers cannot mutate the stored user")
}
