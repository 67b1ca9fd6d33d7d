// Package session owns the client's authentication state and keeps the
// credential store and the HTTP client's default Authorization header in
// step with it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

// Authenticator is the slice of the HTTP client the manager drives.
type Authenticator interface {
	Login(ctx context.Context, userName, password string) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
	SetAuthHeader(token string)
}

// ErrInvalidAuthResult is returned when the server answers 2xx without a
// token or user name.
var ErrInvalidAuthResult = errors.New("session: auth response missing token or user name")

// Manager is the only writer of session state. It has two states, anonymous
// and authenticated, discriminated by the token.
//
// Network calls are not serialised: overlapping Login/Register/Logout calls
// each apply their outcome when they complete, so the last one to resolve
// wins, even if it was issued first.
type Manager struct {
	api   Authenticator
	store ports.CredentialStore
	log   zerolog.Logger

	mu      sync.RWMutex
	session domain.Session
}

// NewManager loads the persisted session and pushes its token to the HTTP
// client. A store that cannot be read leaves the manager anonymous; the
// error is logged, not returned.
func NewManager(ctx context.Context, api Authenticator, store ports.CredentialStore, log zerolog.Logger) *Manager {
	m := &Manager{api: api, store: store, log: log}

	sess, err := store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not read stored credentials; starting signed out")
		sess = domain.Session{}
	}
	sess = sess.Normalize()

	m.api.SetAuthHeader(sess.Token)
	m.session = sess
	if sess.Valid() {
		log.Debug().Str("user", sess.User.UserName).Msg("restored session")
	}
	return m
}

// Login authenticates and replaces the current session. On failure the
// previous session, header and stored credentials are left exactly as they
// were.
func (m *Manager) Login(ctx context.Context, userName, password string) (*domain.AuthResult, error) {
	res, err := m.api.Login(ctx, userName, password)
	if err != nil {
		m.log.Debug().Err(err).Str("user", userName).Msg("login rejected")
		return nil, err
	}
	if err := m.apply(ctx, res); err != nil {
		return nil, err
	}
	m.log.Info().Str("user", res.UserName).Msg("signed in")
	return res, nil
}

// Register creates an account and signs in as it, with the same contract as
// Login.
func (m *Manager) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	res, err := m.api.Register(ctx, reg)
	if err != nil {
		m.log.Debug().Err(err).Str("user", reg.UserName).Msg("registration rejected")
		return nil, err
	}
	if err := m.apply(ctx, res); err != nil {
		return nil, err
	}
	m.log.Info().Str("user", res.UserName).Msg("registered and signed in")
	return res, nil
}

// apply persists the new session first; only once that succeeded are the
// header and the in-memory session swapped. The header is set before the
// session becomes visible to readers.
func (m *Manager) apply(ctx context.Context, res *domain.AuthResult) error {
	if res == nil || res.Token == "" || res.UserName == "" {
		return ErrInvalidAuthResult
	}
	next := domain.Session{Token: res.Token, User: res.Profile()}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, next); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	m.api.SetAuthHeader(next.Token)
	m.session = next
	return nil
}

// Logout clears the header, the in-memory session and the store, in that
// order. Memory and header are always cleared; a store failure is returned
// so the caller knows the credentials may still be on disk. Calling Logout
// while anonymous is harmless.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.session
	m.api.SetAuthHeader("")
	m.session = domain.Session{}

	if err := m.store.Clear(ctx); err != nil {
		m.log.Error().Err(err).Msg("failed to clear stored credentials")
		return fmt.Errorf("clear stored session: %w", err)
	}
	if prev.Valid() {
		m.log.Info().Str("user", prev.User.UserName).Msg("signed out")
	}
	return nil
}

// Current returns a copy of the session.
func (m *Manager) Current() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone()
}

// User returns a copy of the signed-in profile, or nil.
func (m *Manager) User() *domain.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.User.Clone()
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.IsAuthenticated()
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.IsAdmin()
}
