package ports

import (
	"context"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

// CredentialStore persists the last-known session across process restarts.
type CredentialStore interface {
	// Load returns the persisted session. Malformed profile data yields the
	// empty session and a nil error; only backend failures are returned.
	Load(ctx context.Context) (domain.Session, error)
	// Save writes token and profile together.
	Save(ctx context.Context, session domain.Session) error
	// Clear removes both keys.
	Clear(ctx context.Context) error
}
