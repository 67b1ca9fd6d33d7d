package service

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
	// maxPage keeps (page-1)*pageSize well inside int64.
	maxPage = math.MaxInt32
)

type BookService struct {
	repo   ports.BookRepository
	logger zerolog.Logger
}

func NewBookService(repo ports.BookRepository, logger zerolog.Logger) *BookService {
	return &BookService{repo: repo, logger: logger}
}

// List applies paging defaults and returns one page of matches. An unknown
// sort field falls back to insertion order.
func (s *BookService) List(ctx context.Context, filter ports.ListBooksFilter) (*domain.BookPage, error) {
	filter = normalizeFilter(filter)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Book{}
	}
	return &domain.BookPage{Items: items, Total: total}, nil
}

func normalizeFilter(f ports.ListBooksFilter) ports.ListBooksFilter {
	switch {
	case f.Page < 1:
		f.Page = defaultPage
	case f.Page > maxPage:
		f.Page = maxPage
	}
	switch {
	case f.PageSize < 1:
		f.PageSize = defaultPageSize
	case f.PageSize > maxPageSize:
		f.PageSize = maxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	if !domain.ValidSortField(f.SortBy) {
		f.SortBy = ""
	}
	return f
}

func (s *BookService) Get(ctx context.Context, id int64) (*domain.Book, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *BookService) Create(ctx context.Context, input domain.BookInput) (*domain.Book, error) {
	b := &domain.Book{
		Title:           strings.TrimSpace(input.Title),
		Author:          strings.TrimSpace(input.Author),
		PublicationDate: input.PublicationDate,
		Quantity:        input.Quantity,
	}
	if b.PublicationDate != nil && b.PublicationDate.IsZero() {
		b.PublicationDate = nil
	}
	if err := validateBook(b); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		s.logger.Error().Err(err).Msg("failed to create book")
		return nil, err
	}
	s.logger.Info().Int64("book_id", b.ID).Str("title", b.Title).Msg("book created")
	return b, nil
}

// Update applies the set fields of patch to the stored book.
func (s *BookService) Update(ctx context.Context, id int64, patch domain.BookPatch) (*domain.Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(b)
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	if err := validateBook(b); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("book_id", id).Msg("book updated")
	return b, nil
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("book_id", id).Msg("book deleted")
	return nil
}

func validateBook(b *domain.Book) error {
	if b.Title == "" || b.Author == "" {
		return domain.ErrInvalidBook
	}
	if b.Quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}
