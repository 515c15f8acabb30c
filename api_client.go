package mediagrab

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	loginPath      = "/auth/login"
	registerPath   = "/auth/register"
	profilePath    = "/users/me"
	downloadsPath  = "/downloads"
	adminUsersPath = "/admin/users"
	adminStatsPath = "/admin/stats"
)

// ActingUserHeader carries the ID of the user a request is made on behalf of,
// for backend audit logs. Set from the user placed on the context.
const ActingUserHeader = "X-Acting-User"

// APIClient speaks the MediaGrab REST contract. It does not attach bearer
// tokens itself: the injected http.Client is expected to carry the transport
// pipeline (see the transport package).
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// APIClientOption customizes API client construction.
type APIClientOption func(*APIClient)

// WithHTTPClient injects the transport-wrapped client.
func WithHTTPClient(client *http.Client) APIClientOption {
	return func(c *APIClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPILogger overrides the default logger.
func WithAPILogger(logger Logger) APIClientOption {
	return func(c *APIClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAPIClient creates a client rooted at baseURL (e.g. "https://api.example.com/api/v1").
func NewAPIClient(baseURL string, opts ...APIClientOption) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// BaseURL returns the API root this client is bound to.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// LoginToken exchanges credentials for a bearer token. The endpoint is
// form-encoded and calls the email field "username".
func (c *APIClient) LoginToken(ctx context.Context, identifier, password string) (*TokenResponse, error) {
	data := url.Values{
		"username": {identifier},
		"password": {password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.networkError(err, "login")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read login response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials.WithMetadata(map[string]any{
			"detail": apiErrorDetail(body),
		})
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, body, "login")
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to decode token response")
	}
	if token.AccessToken == "" {
		return nil, errors.New("missing access token in login response", errors.CategoryOperation)
	}

	return &token, nil
}

// registerPayload is the wire body for registration. The confirmation field
// stays client-side only.
type registerPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterToken creates an account and returns an immediately usable token.
func (c *APIClient) RegisterToken(ctx context.Context, payload RegisterRequest) (*TokenResponse, error) {
	body, err := json.Marshal(registerPayload{
		Email:    payload.Email,
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to encode registration payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+registerPath, strings.NewReader(string(body)))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build registration request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.networkError(err, "register")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read registration response")
	}

	if resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusBadRequest {
		return nil, ErrRegistrationRejected.WithMetadata(map[string]any{
			"detail": apiErrorDetail(respBody),
		})
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.statusError(resp.StatusCode, respBody, "register")
	}

	var token TokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to decode token response")
	}
	if token.AccessToken == "" {
		return nil, errors.New("missing access token in registration response", errors.CategoryOperation)
	}

	return &token, nil
}

// CurrentUser fetches the profile of the token the transport attaches.
func (c *APIClient) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, profilePath, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListDownloads returns the account's download history.
func (c *APIClient) ListDownloads(ctx context.Context) ([]Download, error) {
	var downloads []Download
	if err := c.getJSON(ctx, downloadsPath, &downloads); err != nil {
		return nil, err
	}
	return downloads, nil
}

// ListUsers returns all accounts. Admin only.
func (c *APIClient) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, adminUsersPath, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Stats returns the service-wide summary. Admin only.
func (c *APIClient) Stats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	if err := c.getJSON(ctx, adminStatsPath, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *APIClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if user, ok := FromContext(ctx); ok {
		req.Header.Set(ActingUserHeader, strconv.FormatInt(user.ID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.networkError(err, path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to read response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired.WithMetadata(map[string]any{
			"path":   path,
			"detail": apiErrorDetail(body),
		})
	}
	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp.StatusCode, body, path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to decode response")
	}

	return nil
}

func (c *APIClient) networkError(err error, operation string) error {
	c.logger.Error("api %s: backend unreachable: %v", operation, err)
	return errors.Wrap(err, ErrNetworkUnavailable.Category, ErrNetworkUnavailable.Message).
		WithTextCode(ErrNetworkUnavailable.TextCode).
		WithMetadata(map[string]any{"operation": operation})
}

func (c *APIClient) statusError(status int, body []byte, operation string) error {
	category := errors.CategoryOperation
	code := errors.CodeInternal
	if status == http.StatusForbidden {
		category = errors.CategoryAuthz
		code = errors.CodeForbidden
	}

	return errors.New("unexpected response from backend", category).
		WithCode(code).
		WithMetadata(map[string]any{
			"status":    status,
			"operation": operation,
			"detail":    apiErrorDetail(body),
		})
}

type apiError struct {
	Detail string `json:"detail"`
}

func apiErrorDetail(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		return apiErr.Detail
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "request failed"
	}

	return msg
}
