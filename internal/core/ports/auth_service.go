package ports

import (
	"context"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

// RegisterInput carries the fields accepted by the register endpoint.
type RegisterInput struct {
	UserName string
	Email    string
	Password string
	FullName *string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, userName, password string) (*domain.AuthResult, error)
}
