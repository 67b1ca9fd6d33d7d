package ports

import (
	"context"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

// ListBooksFilter carries all query parameters for listing books.
type ListBooksFilter struct {
	Search   string // optional: case-insensitive match on title or author
	SortBy   string // optional: one of domain.SortBy*; empty = by id
	Desc     bool
	Page     int // 1-based
	PageSize int // capped at 100 by the service
}

// BookRepository defines persistence operations for books.
type BookRepository interface {
	Create(ctx context.Context, b *domain.Book) error
	FindByID(ctx context.Context, id int64) (*domain.Book, error)
	Update(ctx context.Context, b *domain.Book) error
	Delete(ctx context.Context, id int64) error
	// List returns a page of books matching filter and the total count.
	List(ctx context.Context, filter ListBooksFilter) ([]domain.Book, int64, error)
	// AdjustQuantity adds delta to the book's quantity. A decrement that would
	// go below zero fails with domain.ErrOutOfStock and leaves the book as is.
	AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.Book, error)
}

// BorrowingRepository persists borrowings.
type BorrowingRepository interface {
	Create(ctx context.Context, b *domain.Borrowing) error
	FindByID(ctx context.Context, id int64) (*domain.Borrowing, error)
	// MarkReturned sets ReturnedAt unless it is already set, in which case it
	// fails with domain.ErrAlreadyReturned.
	MarkReturned(ctx context.Context, id int64, at domain.Timestamp) error
	ListByUser(ctx context.Context, userName string) ([]domain.Borrowing, error)
}
