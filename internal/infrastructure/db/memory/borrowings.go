package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

type BorrowingRepository struct {
	mu         sync.RWMutex
	borrowings map[int64]domain.Borrowing
	nextID     int64
}

func NewBorrowingRepository() *BorrowingRepository {
	return &BorrowingRepository{borrowings: make(map[int64]domain.Borrowing)}
}

func (r *BorrowingRepository) Create(_ context.Context, b *domain.Borrowing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	b.ID = r.nextID
	r.borrowings[b.ID] = copyBorrowing(*b)
	return nil
}

func (r *BorrowingRepository) FindByID(_ context.Context, id int64) (*domain.Borrowing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.borrowings[id]
	if !ok {
		return nil, domain.ErrBorrowingNotFound
	}
	out := copyBorrowing(b)
	return &out, nil
}

func (r *BorrowingRepository) MarkReturned(_ context.Context, id int64, at domain.Timestamp) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.borrowings[id]
	if !ok {
		return domain.ErrBorrowingNotFound
	}
	if b.Returned() {
		return domain.ErrAlreadyReturned
	}
	b.ReturnedAt = &at
	r.borrowings[id] = b
	return nil
}

// ListByUser returns the user's borrowings, most recent first.
func (r *BorrowingRepository) ListByUser(_ context.Context, userName string) ([]domain.Borrowing, error) {
	r.mu.RLock()
	out := []domain.Borrowing{}
	for _, b := range r.borrowings {
		if b.UserName == userName {
			out = append(out, copyBorrowing(b))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Borrowing) int {
		if c := b.BorrowedAt.Compare(a.BorrowedAt.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func copyBorrowing(b domain.Borrowing) domain.Borrowing {
	if b.ReturnedAt != nil {
		t := *b.ReturnedAt
		b.ReturnedAt = &t
	}
	return b
}
