package ports

import (
	"context"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

// Actor identifies the caller of a role-sensitive operation.
type Actor struct {
	UserName string
	Roles    []string
}

// BookService defines use-case operations for the catalog.
type BookService interface {
	List(ctx context.Context, filter ListBooksFilter) (*domain.BookPage, error)
	Get(ctx context.Context, id int64) (*domain.Book, error)
	Create(ctx context.Context, input domain.BookInput) (*domain.Book, error)
	Update(ctx context.Context, id int64, patch domain.BookPatch) (*domain.Book, error)
	Delete(ctx context.Context, id int64) error
}

// BorrowingService lends and takes back copies.
type BorrowingService interface {
	Borrow(ctx context.Context, actor Actor, bookID int64) (*domain.BorrowResult, error)
	Return(ctx context.Context, actor Actor, borrowingID int64) (*domain.ReturnResult, error)
	Mine(ctx context.Context, actor Actor) ([]domain.Borrowing, error)
}
