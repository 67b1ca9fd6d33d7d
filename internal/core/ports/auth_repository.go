package ports

import (
	"context"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	FindByUserName(ctx context.Context, userName string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
