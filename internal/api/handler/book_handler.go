package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/bookapp/internal/api/metrics"
	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

// BookHandler handles HTTP requests for catalog operations.
type BookHandler struct {
	service ports.BookService
	metrics *metrics.Metrics
}

func NewBookHandler(service ports.BookService, m *metrics.Metrics) *BookHandler {
	return &BookHandler{service: service, metrics: m}
}

// List handles GET /api/books.
//
// @Summary      List books
// @Tags         books
// @Produce      json
// @Param        page      query     int     false  "Page number (1-based)"  default(1)
// @Param        pageSize  query     int     false  "Page size (max 100)"    default(10)
// @Param        search    query     string  false  "Title or author contains"
// @Param        sortBy    query     string  false  "title, author or publicationdate"
// @Param        desc      query     bool    false  "Sort descending"
// @Success      200       {object}  domain.BookPage
// @Failure      400       {object}  errorResponse
// @Router       /api/books [get]
func (h *BookHandler) List(c echo.Context) error {
	var q listBooksQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query").SetInternal(err)
	}

	page, err := h.service.List(c.Request().Context(), ports.ListBooksFilter{
		Search:   q.Search,
		SortBy:   q.SortBy,
		Desc:     q.Desc,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /api/books/:id.
//
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  domain.Book
// @Failure      404  {object}  errorResponse
// @Router       /api/books/{id} [get]
func (h *BookHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// Create handles POST /api/books.
//
// @Summary      Create a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createBookRequest  true  "Book"
// @Success      201   {object}  domain.Book
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/books [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req createBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.service.Create(c.Request().Context(), domain.BookInput{
		Title:           req.Title,
		Author:          req.Author,
		PublicationDate: req.PublicationDate,
		Quantity:        req.Quantity,
	})
	if err != nil {
		return err
	}
	h.metrics.CatalogChangesTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, b)
}

// Update handles PUT /api/books/:id. Omitted fields keep their value.
//
// @Summary      Update a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Book ID"
// @Param        body  body      updateBookRequest  true  "Fields to change"
// @Success      200   {object}  domain.Book
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/books/{id} [put]
func (h *BookHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.service.Update(c.Request().Context(), id, domain.BookPatch{
		Title:           req.Title,
		Author:          req.Author,
		PublicationDate: req.PublicationDate,
		Quantity:        req.Quantity,
	})
	if err != nil {
		return err
	}
	h.metrics.CatalogChangesTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /api/books/:id. Admin only.
//
// @Summary      Delete a book
// @Tags         books
// @Security     BearerAuth
// @Param        id   path  int  true  "Book ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/books/{id} [delete]
func (h *BookHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	h.metrics.CatalogChangesTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}
