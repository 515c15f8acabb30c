// Package apitest runs an in-process stand-in for the MediaGrab backend.
// It honors the real wire contract: form-encoded login, JSON registration,
// bearer-protected profile and admin endpoints, and the {"detail": ...}
// error envelope.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	mediagrab "github.com/mediagrab/go-mediagrab"
)

var signingKey = []byte("apitest-signing-key")

// Account seeds a user into the fake backend.
type Account struct {
	Email    string
	Username string
	Password string
	Role     mediagrab.UserRole
}

type storedAccount struct {
	user         mediagrab.User
	passwordHash []byte
}

// Server is the fake backend. Zero value is not usable; construct with New.
type Server struct {
	httpServer *httptest.Server

	mu       sync.Mutex
	accounts map[string]*storedAccount
	nextID   int64

	downloads []mediagrab.Download

	forceUnauthorized atomic.Bool
	loginCalls        atomic.Int64
	registerCalls     atomic.Int64
	profileCalls      atomic.Int64

	loginHook atomic.Value // func()
}

// New starts the fake backend with the given seed accounts. The server shuts
// down with the test.
func New(t interface{ Cleanup(func()) }, seed ...Account) *Server {
	s := &Server{
		accounts: map[string]*storedAccount{},
		nextID:   1,
	}

	for _, acct := range seed {
		s.addAccount(acct)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("GET /users/me", s.handleProfile)
	mux.HandleFunc("GET /downloads", s.handleDownloads)
	mux.HandleFunc("GET /admin/users", s.handleAdminUsers)
	mux.HandleFunc("GET /admin/stats", s.handleAdminStats)

	s.httpServer = httptest.NewServer(mux)
	t.Cleanup(s.httpServer.Close)

	return s
}

// URL is the base URL clients should point at.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// ForceUnauthorized makes every bearer-protected endpoint answer 401,
// simulating server-side token revocation.
func (s *Server) ForceUnauthorized(on bool) {
	s.forceUnauthorized.Store(on)
}

// SetLoginHook installs a callback that runs inside the login handler after
// the credentials check and before the token is written. Tests use it to
// interleave client-side actions with an in-flight login.
func (s *Server) SetLoginHook(hook func()) {
	s.loginHook.Store(hook)
}

// SeedDownloads sets the download history the /downloads endpoint returns.
func (s *Server) SeedDownloads(downloads []mediagrab.Download) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = downloads
}

// LoginCalls reports how many times /auth/login was hit.
func (s *Server) LoginCalls() int64 { return s.loginCalls.Load() }

// RegisterCalls reports how many times /auth/register was hit.
func (s *Server) RegisterCalls() int64 { return s.registerCalls.Load() }

// ProfileCalls reports how many times /users/me was hit.
func (s *Server) ProfileCalls() int64 { return s.profileCalls.Load() }

func (s *Server) addAccount(acct Account) mediagrab.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.MinCost)
	if err != nil {
		panic("apitest: failed to hash seed password: " + err.Error())
	}

	role := acct.Role
	if role == "" {
		role = mediagrab.RoleUser
	}

	now := time.Now()
	user := mediagrab.User{
		ID:        s.nextID,
		Email:     acct.Email,
		Username:  acct.Username,
		Role:      role,
		Active:    true,
		CreatedAt: &now,
	}
	s.nextID++

	s.accounts[strings.ToLower(acct.Email)] = &storedAccount{
		user:         user,
		passwordHash: hash,
	}

	return user
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)

	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form body")
		return
	}

	email := strings.ToLower(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	if hook, ok := s.loginHook.Load().(func()); ok && hook != nil {
		hook()
	}

	s.writeToken(w, acct.user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.registerCalls.Add(1)

	var payload struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[strings.ToLower(payload.Email)]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusConflict, "Email already registered")
		return
	}
	user := s.addAccount(Account{
		Email:    payload.Email,
		Username: payload.Username,
		Password: payload.Password,
		Role:     mediagrab.RoleUser,
	})
	s.mu.Unlock()

	s.writeToken(w, user)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.profileCalls.Add(1)

	user, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	s.mu.Lock()
	downloads := s.downloads
	s.mu.Unlock()

	if downloads == nil {
		downloads = []mediagrab.Download{}
	}
	writeJSON(w, http.StatusOK, downloads)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if !user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}

	s.mu.Lock()
	users := make([]mediagrab.User, 0, len(s.accounts))
	for _, acct := range s.accounts {
		users = append(users, acct.user)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if !user.IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}

	s.mu.Lock()
	stats := mediagrab.AdminStats{
		TotalUsers:        int64(len(s.accounts)),
		TotalDownloads:    int64(len(s.downloads)),
		SubscriptionTypes: map[string]int64{},
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) authenticate(r *http.Request) (*mediagrab.User, bool) {
	if s.forceUnauthorized.Load() {
		return nil, false
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	email, _ := claims["sub"].(string)

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	user := acct.user
	return &user, true
}

func (s *Server) writeToken(w http.ResponseWriter, user mediagrab.User) {
	claims := jwt.MapClaims{
		"sub":  user.Email,
		"role": string(user.Role),
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	writeJSON(w, http.StatusOK, mediagrab.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Role:        user.Role,
	})
}

// MintExpiredToken returns a signed token whose expiry is already in the
// past, for exercising bootstrap against stale credentials.
func MintExpiredToken(email string) string {
	claims := jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(-time.Hour).Unix(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic("apitest: failed to sign token: " + err.Error())
	}

	return signed
}

// MintToken returns a signed, unexpired token for email. The fake backend
// accepts it as long as an account with that email exists.
func MintToken(email string) string {
	claims := jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic("apitest: failed to sign token: " + err.Error())
	}

	return signed
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
