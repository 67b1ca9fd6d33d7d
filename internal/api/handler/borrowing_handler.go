package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/bookapp/internal/api/metrics"
	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

type BorrowingHandler struct {
	service ports.BorrowingService
	metrics *metrics.Metrics
}

func NewBorrowingHandler(service ports.BorrowingService, m *metrics.Metrics) *BorrowingHandler {
	return &BorrowingHandler{service: service, metrics: m}
}

// Borrow handles POST /api/books/:id/borrow.
//
// @Summary      Borrow a copy
// @Tags         borrowings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  domain.BorrowResult
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/books/{id}/borrow [post]
func (h *BorrowingHandler) Borrow(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	bookID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.service.Borrow(c.Request().Context(), actor, bookID)
	if err != nil {
		h.metrics.BorrowRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return err
	}
	h.metrics.BooksBorrowedTotal.Inc()
	return c.JSON(http.StatusOK, res)
}

// Return handles POST /api/books/:id/return. The id is a borrowing id.
//
// @Summary      Return a borrowed copy
// @Tags         borrowings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Borrowing ID"
// @Success      200  {object}  domain.ReturnResult
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/books/{id}/return [post]
func (h *BorrowingHandler) Return(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	borrowingID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.service.Return(c.Request().Context(), actor, borrowingID)
	if err != nil {
		return err
	}
	h.metrics.BooksReturnedTotal.Inc()
	return c.JSON(http.StatusOK, res)
}

// Mine handles GET /api/borrowings/my.
//
// @Summary      List my borrowings
// @Tags         borrowings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Borrowing
// @Failure      401  {object}  errorResponse
// @Router       /api/borrowings/my [get]
func (h *BorrowingHandler) Mine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	items, err := h.service.Mine(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrBookNotFound):
		return "not_found"
	default:
		return "error"
	}
}
