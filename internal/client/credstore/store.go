package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

// Fixed key names shared with every other client of the same backend.
const (
	TokenKey = "bookapp_token"
	UserKey  = "bookapp_user"
)

// ErrEmptySession is returned by Save for a session without token or user.
var ErrEmptySession = errors.New("credstore: refusing to save an incomplete session")

// Store implements ports.CredentialStore on top of a KV backend.
type Store struct {
	kv  KV
	log zerolog.Logger
}

func New(kv KV, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// Load reads both keys. Anything short of a complete, well-formed pair reads
// as the anonymous session; only backend failures are returned as errors.
func (s *Store) Load(ctx context.Context) (domain.Session, error) {
	token, hasToken, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load token: %w", err)
	}
	raw, hasUser, err := s.kv.Get(ctx, UserKey)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load user: %w", err)
	}
	if !hasToken && !hasUser {
		return domain.Session{}, nil
	}
	if !hasToken || !hasUser {
		s.log.Warn().Bool("has_token", hasToken).Bool("has_user", hasUser).Msg("stored session is incomplete; starting signed out")
		return domain.Session{}, nil
	}

	var user domain.UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.UserName == "" {
		s.log.Warn().Err(err).Msg("stored user profile is malformed; starting signed out")
		return domain.Session{}, nil
	}

	return domain.Session{Token: token, User: user.Clone()}.Normalize(), nil
}

// Save writes the raw token and the JSON profile in one backend write.
func (s *Store) Save(ctx context.Context, sess domain.Session) error {
	if !sess.Valid() {
		return ErrEmptySession
	}
	b, err := json.Marshal(sess.User.Clone())
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	if err := s.kv.SetMany(ctx, map[string]string{TokenKey: sess.Token, UserKey: string(b)}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes both keys.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
