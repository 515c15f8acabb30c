package mediagrab_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediagrab "github.com/mediagrab/go-mediagrab"
	"github.com/mediagrab/go-mediagrab/apitest"
	"github.com/mediagrab/go-mediagrab/tokenstore"
	"github.com/mediagrab/go-mediagrab/transport"
)

func newBackendClient(t *testing.T, seed ...apitest.Account) (*apitest.Server, *mediagrab.APIClient, *tokenstore.Memory) {
	t.Helper()

	backend := apitest.New(t, seed...)
	tokens := tokenstore.NewMemory()

	client := mediagrab.NewAPIClient(backend.URL(),
		mediagrab.WithHTTPClient(transport.NewClient(nil, transport.BearerToken(tokens))),
	)

	return backend, client, tokens
}

func TestLoginTokenReturnsBearerToken(t *testing.T) {
	_, client, _ := newBackendClient(t, apitest.Account{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct horse",
	})

	token, err := client.LoginToken(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, "ada@example.com", token.Email)
}

func TestLoginTokenRejectsBadPassword(t *testing.T) {
	_, client, _ := newBackendClient(t, apitest.Account{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct horse",
	})

	_, err := client.LoginToken(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, mediagrab.IsUnauthorizedError(err))

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, mediagrab.TextCodeInvalidCredentials, richErr.TextCode)
}

func TestLoginTokenWrapsNetworkFailure(t *testing.T) {
	client := mediagrab.NewAPIClient("http://127.0.0.1:1")

	_, err := client.LoginToken(context.Background(), "ada@example.com", "pw")
	require.Error(t, err)
	assert.True(t, mediagrab.IsNetworkError(err))
}

func TestRegisterTokenCreatesAccount(t *testing.T) {
	backend, client, tokens := newBackendClient(t)

	token, err := client.RegisterToken(context.Background(), mediagrab.RegisterRequest{
		Email:           "new@example.com",
		Username:        "newbie",
		Password:        "long enough pw",
		ConfirmPassword: "long enough pw",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)
	assert.EqualValues(t, 1, backend.RegisterCalls())

	// the returned token is immediately usable
	require.NoError(t, tokens.Set(context.Background(), token.AccessToken))
	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, mediagrab.RoleUser, user.Role)
}

func TestRegisterTokenOmitsConfirmationFromWireBody(t *testing.T) {
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	}))
	defer srv.Close()

	client := mediagrab.NewAPIClient(srv.URL)
	_, err := client.RegisterToken(context.Background(), mediagrab.RegisterRequest{
		Email:           "new@example.com",
		Username:        "newbie",
		Password:        "long enough pw",
		ConfirmPassword: "long enough pw",
	})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(captured, &sent))
	assert.Equal(t, "new@example.com", sent["email"])
	assert.Len(t, sent, 3, "only email, username, and password go on the wire")
}

func TestRegisterTokenRejectsDuplicateEmail(t *testing.T) {
	_, client, _ := newBackendClient(t, apitest.Account{
		Email:    "taken@example.com",
		Username: "first",
		Password: "long enough pw",
	})

	_, err := client.RegisterToken(context.Background(), mediagrab.RegisterRequest{
		Email:           "taken@example.com",
		Username:        "second",
		Password:        "long enough pw",
		ConfirmPassword: "long enough pw",
	})
	require.Error(t, err)

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, mediagrab.TextCodeRegistrationRejected, richErr.TextCode)
}

func TestCurrentUserWithoutTokenIsSessionExpired(t *testing.T) {
	_, client, _ := newBackendClient(t)

	_, err := client.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, mediagrab.IsUnauthorizedError(err))
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	ctx := context.Background()
	_, client, tokens := newBackendClient(t,
		apitest.Account{Email: "user@example.com", Username: "user", Password: "long enough pw"},
		apitest.Account{Email: "admin@example.com", Username: "admin", Password: "long enough pw", Role: mediagrab.RoleAdmin},
	)

	require.NoError(t, tokens.Set(ctx, apitest.MintToken("user@example.com")))
	_, err := client.ListUsers(ctx)
	require.Error(t, err, "plain users cannot list accounts")

	require.NoError(t, tokens.Set(ctx, apitest.MintToken("admin@example.com")))

	users, err := client.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
}

func TestRequestsCarryActingUserHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(mediagrab.ActingUserHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := mediagrab.NewAPIClient(srv.URL)

	ctx := mediagrab.WithContext(context.Background(), &mediagrab.User{ID: 42})
	_, err := client.ListDownloads(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	_, err = client.ListDownloads(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "no user on the context means no header")
}

func TestListDownloadsReturnsHistory(t *testing.T) {
	ctx := context.Background()
	backend, client, tokens := newBackendClient(t, apitest.Account{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "long enough pw",
	})

	backend.SeedDownloads([]mediagrab.Download{
		{ID: 1, URL: "https://example.com/v/1", Status: "completed"},
		{ID: 2, URL: "https://example.com/v/2", Status: "pending"},
	})

	require.NoError(t, tokens.Set(ctx, apitest.MintToken("ada@example.com")))

	downloads, err := client.ListDownloads(ctx)
	require.NoError(t, err)
	require.Len(t, downloads, 2)
	assert.Equal(t, "completed", downloads[0].Status)
}
