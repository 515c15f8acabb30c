package tokenstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"

	mediagrab "github.com/mediagrab/go-mediagrab"
)

// DefaultCredentialKey identifies the single token row when the store serves
// one environment only.
const DefaultCredentialKey = "default"

// Credential is the persisted token row.
type Credential struct {
	bun.BaseModel `bun:"table:credentials,alias:cred"`

	Key       string    `bun:"key,pk"`
	Token     string    `bun:"token,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunStore persists the token in a credentials table so a session survives
// process restarts.
type BunStore struct {
	db  *bun.DB
	key string
}

// BunStoreOption customizes store construction.
type BunStoreOption func(*BunStore)

// WithKey scopes the stored credential to an explicit key.
func WithKey(key string) BunStoreOption {
	return func(s *BunStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithEnvironmentKey derives the credential key from the API base URL, so
// tokens for different backends never collide in a shared database.
func WithEnvironmentKey(baseURL string) BunStoreOption {
	return func(s *BunStore) {
		if id, err := hashid.NewUUID(baseURL); err == nil {
			s.key = id.String()
		}
	}
}

// NewBunStore creates a store over db.
func NewBunStore(db *bun.DB, opts ...BunStoreOption) *BunStore {
	s := &BunStore{
		db:  db,
		key: DefaultCredentialKey,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// EnsureSchema creates the credentials table if it does not exist.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Credential)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to create credentials table")
	}
	return nil
}

// Get returns the stored token for this environment or ErrTokenNotFound.
func (s *BunStore) Get(ctx context.Context) (string, error) {
	cred := new(Credential)

	err := s.db.NewSelect().
		Model(cred).
		Where("key = ?", s.key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", mediagrab.ErrTokenNotFound
		}
		return "", errors.Wrap(err, errors.CategoryOperation, "failed to load credential")
	}

	return cred.Token, nil
}

// Set upserts the token for this environment.
func (s *BunStore) Set(ctx context.Context, token string) error {
	cred := &Credential{
		Key:       s.key,
		Token:     token,
		UpdatedAt: time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(cred).
		On("CONFLICT (key) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to persist credential")
	}

	return nil
}

// Clear deletes the credential row. Missing rows are not an error.
func (s *BunStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*Credential)(nil)).
		Where("key = ?", s.key).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to clear credential")
	}

	return nil
}
