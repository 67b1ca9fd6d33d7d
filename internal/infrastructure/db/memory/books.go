package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

type BookRepository struct {
	mu     sync.RWMutex
	books  map[int64]domain.Book
	nextID int64
}

func NewBookRepository() *BookRepository {
	return &BookRepository{books: make(map[int64]domain.Book)}
}

func (r *BookRepository) Create(_ context.Context, b *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	b.ID = r.nextID
	r.books[b.ID] = copyBook(*b)
	return nil
}

func (r *BookRepository) FindByID(_ context.Context, id int64) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	out := copyBook(b)
	return &out, nil
}

func (r *BookRepository) Update(_ context.Context, b *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[b.ID]; !ok {
		return domain.ErrBookNotFound
	}
	r.books[b.ID] = copyBook(*b)
	return nil
}

func (r *BookRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *BookRepository) List(_ context.Context, f ports.ListBooksFilter) ([]domain.Book, int64, error) {
	r.mu.RLock()
	matches := make([]domain.Book, 0, len(r.books))
	term := strings.ToLower(f.Search)
	for _, b := range r.books {
		if term == "" ||
			strings.Contains(strings.ToLower(b.Title), term) ||
			strings.Contains(strings.ToLower(b.Author), term) {
			matches = append(matches, copyBook(b))
		}
	}
	r.mu.RUnlock()

	slices.SortStableFunc(matches, bookOrder(f.SortBy, f.Desc))

	total := int64(len(matches))
	if f.Page < 1 || f.PageSize < 1 || f.Page-1 >= (len(matches)+f.PageSize-1)/f.PageSize {
		return []domain.Book{}, total, nil
	}
	start := (f.Page - 1) * f.PageSize
	end := min(start+f.PageSize, len(matches))
	return matches[start:end], total, nil
}

func (r *BookRepository) AdjustQuantity(_ context.Context, id int64, delta int) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	if b.Quantity+delta < 0 {
		return nil, domain.ErrOutOfStock
	}
	b.Quantity += delta
	r.books[id] = b

	out := copyBook(b)
	return &out, nil
}

// bookOrder sorts by the requested field with ties broken by id. Books
// without a publication date sort first.
func bookOrder(sortBy string, desc bool) func(a, b domain.Book) int {
	return func(a, b domain.Book) int {
		var c int
		switch sortBy {
		case domain.SortByTitle:
			c = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case domain.SortByAuthor:
			c = cmp.Compare(strings.ToLower(a.Author), strings.ToLower(b.Author))
		case domain.SortByPublicationDate:
			c = cmp.Compare(dateKey(a.PublicationDate), dateKey(b.PublicationDate))
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	}
}

func dateKey(d *domain.Date) int64 {
	if d == nil {
		return math.MinInt64
	}
	return d.Unix()
}

func copyBook(b domain.Book) domain.Book {
	if b.PublicationDate != nil {
		d := *b.PublicationDate
		b.PublicationDate = &d
	}
	return b
}
