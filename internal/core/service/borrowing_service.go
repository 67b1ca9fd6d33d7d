package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

const (
	msgBorrowed = "Book borrowed successfully"
	msgReturned = "Book returned successfully"
)

type BorrowingService struct {
	books      ports.BookRepository
	borrowings ports.BorrowingRepository
	logger     zerolog.Logger
	now        func() time.Time
}

func NewBorrowingService(books ports.BookRepository, borrowings ports.BorrowingRepository, logger zerolog.Logger) *BorrowingService {
	return &BorrowingService{books: books, borrowings: borrowings, logger: logger, now: time.Now}
}

// Borrow takes one copy off the shelf and records it against the actor.
func (s *BorrowingService) Borrow(ctx context.Context, actor ports.Actor, bookID int64) (*domain.BorrowResult, error) {
	if actor.UserName == "" {
		return nil, domain.ErrForbidden
	}

	book, err := s.books.AdjustQuantity(ctx, bookID, -1)
	if err != nil {
		return nil, err
	}

	br := &domain.Borrowing{
		BookID:     book.ID,
		BookTitle:  book.Title,
		UserName:   actor.UserName,
		BorrowedAt: domain.Timestamp{Time: s.now().UTC()},
	}
	if err := s.borrowings.Create(ctx, br); err != nil {
		// put the copy back so stock stays consistent
		if _, rerr := s.books.AdjustQuantity(ctx, bookID, 1); rerr != nil {
			s.logger.Error().Err(rerr).Int64("book_id", bookID).Msg("failed to restore quantity")
		}
		return nil, err
	}

	s.logger.Info().Int64("book_id", bookID).Int64("borrowing_id", br.ID).Str("user", actor.UserName).Msg("book borrowed")
	return &domain.BorrowResult{Message: msgBorrowed, BorrowingID: br.ID}, nil
}

// Return closes a borrowing. Only its owner or an Admin may do so.
func (s *BorrowingService) Return(ctx context.Context, actor ports.Actor, borrowingID int64) (*domain.ReturnResult, error) {
	br, err := s.borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		return nil, err
	}
	if br.UserName != actor.UserName && !slices.Contains(actor.Roles, domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	if br.Returned() {
		return nil, domain.ErrAlreadyReturned
	}

	if err := s.borrowings.MarkReturned(ctx, borrowingID, domain.Timestamp{Time: s.now().UTC()}); err != nil {
		return nil, err
	}
	if _, err := s.books.AdjustQuantity(ctx, br.BookID, 1); err != nil {
		if !errors.Is(err, domain.ErrBookNotFound) {
			return nil, err
		}
		s.logger.Warn().Int64("book_id", br.BookID).Msg("returned copy of a deleted book")
	}

	s.logger.Info().Int64("borrowing_id", borrowingID).Str("user", actor.UserName).Msg("book returned")
	return &domain.ReturnResult{Message: msgReturned}, nil
}

func (s *BorrowingService) Mine(ctx context.Context, actor ports.Actor) ([]domain.Borrowing, error) {
	if actor.UserName == "" {
		return nil, domain.ErrForbidden
	}
	items, err := s.borrowings.ListByUser(ctx, actor.UserName)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Borrowing{}
	}
	return items, nil
}
