package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/bookapp/internal/api/middleware"
	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

type stubBookService struct {
	listFn   func(ctx context.Context, f ports.ListBooksFilter) (*domain.BookPage, error)
	getFn    func(ctx context.Context, id int64) (*domain.Book, error)
	createFn func(ctx context.Context, in domain.BookInput) (*domain.Book, error)
	updateFn func(ctx context.Context, id int64, p domain.BookPatch) (*domain.Book, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubBookService) List(ctx context.Context, f ports.ListBooksFilter) (*domain.BookPage, error) {
	return s.listFn(ctx, f)
}
func (s *stubBookService) Get(ctx context.Context, id int64) (*domain.Book, error) {
	return s.getFn(ctx, id)
}
func (s *stubBookService) Create(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	return s.createFn(ctx, in)
}
func (s *stubBookService) Update(ctx context.Context, id int64, p domain.BookPatch) (*domain.Book, error) {
	return s.updateFn(ctx, id, p)
}
func (s *stubBookService) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestBookHandler_List_BindsQuery(t *testing.T) {
	e := newEcho()
	var got ports.ListBooksFilter
	stub := &stubBookService{
		listFn: func(ctx context.Context, f ports.ListBooksFilter) (*domain.BookPage, error) {
			got = f
			return &domain.BookPage{Items: []domain.Book{{ID: 1, Title: "Dune"}}, Total: 1}, nil
		},
	}
	handler := NewBookHandler(stub, newMetrics())

	req := httptest.NewRequest(http.MethodGet, "/api/books?page=2&pageSize=5&search=dune&sortBy=title&desc=true", nil)
	rec := httptest.NewRecorder()
	if err := handler.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	want := ports.ListBooksFilter{Search: "dune", SortBy: "title", Desc: true, Page: 2, PageSize: 5}
	if got != want {
		t.Fatalf("expected filter %+v, got %+v", want, got)
	}
	var page domain.BookPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil || page.Total != 1 {
		t.Fatalf("unexpected body %s (%v)", rec.Body.String(), err)
	}
}

func TestBookHandler_List_BadQuery(t *testing.T) {
	e := newEcho()
	handler := NewBookHandler(&stubBookService{}, newMetrics())

	req := httptest.NewRequest(http.MethodGet, "/api/books?page=abc", nil)
	if code := httpCode(t, handler.List(e.NewContext(req, httptest.NewRecorder()))); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestBookHandler_Get(t *testing.T) {
	e := newEcho()
	stub := &stubBookService{
		getFn: func(ctx context.Context, id int64) (*domain.Book, error) {
			if id != 7 {
				return nil, domain.ErrBookNotFound
			}
			return &domain.Book{ID: 7, Title: "Dune"}, nil
		},
	}
	handler := NewBookHandler(stub, newMetrics())

	c, rec := jsonRequest(e, http.MethodGet, "/api/books/7", "")
	if err := handler.Get(withID(c, "7")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = jsonRequest(e, http.MethodGet, "/api/books/8", "")
	if err := handler.Get(withID(c, "8")); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}

	for _, bad := range []string{"abc", "0", "-3"} {
		c, _ = jsonRequest(e, http.MethodGet, "/api/books/"+bad, "")
		if code := httpCode(t, handler.Get(withID(c, bad))); code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", bad, code)
		}
	}
}

func TestBookHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubBookService{
		createFn: func(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
			if in.PublicationDate == nil || in.PublicationDate.String() != "1965-08-01" {
				t.Fatalf("publication date not decoded: %v", in.PublicationDate)
			}
			return &domain.Book{ID: 1, Title: in.Title, Author: in.Author, PublicationDate: in.PublicationDate, Quantity: in.Quantity}, nil
		},
	}
	handler := NewBookHandler(stub, newMetrics())

	c, rec := jsonRequest(e, http.MethodPost, "/api/books", `{"title":"Dune","author":"Herbert","publicationDate":"1965-08-01T00:00:00","quantity":2}`)
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	c, _ = jsonRequest(e, http.MethodPost, "/api/books", `{"title":"","author":"Herbert","quantity":-1}`)
	if err := handler.Create(c); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestBookHandler_Update_PassesPatch(t *testing.T) {
	e := newEcho()
	stub := &stubBookService{
		updateFn: func(ctx context.Context, id int64, p domain.BookPatch) (*domain.Book, error) {
			if id != 3 || p.Title != nil || p.Quantity == nil || *p.Quantity != 4 {
				t.Fatalf("unexpected patch for %d: %+v", id, p)
			}
			return &domain.Book{ID: id, Quantity: *p.Quantity}, nil
		},
	}
	handler := NewBookHandler(stub, newMetrics())

	c, rec := jsonRequest(e, http.MethodPut, "/api/books/3", `{"quantity":4}`)
	if err := handler.Update(withID(c, "3")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBookHandler_Update_ClearsPublicationDate(t *testing.T) {
	e := newEcho()
	stub := &stubBookService{
		updateFn: func(ctx context.Context, id int64, p domain.BookPatch) (*domain.Book, error) {
			if !p.ClearPublicationDate || p.PublicationDate != nil {
				t.Fatalf("expected clear flag without a date, got %+v", p)
			}
			return &domain.Book{ID: id}, nil
		},
	}
	handler := NewBookHandler(stub, newMetrics())

	c, rec := jsonRequest(e, http.MethodPut, "/api/books/3", `{"clearPublicationDate":true}`)
	if err := handler.Update(withID(c, "3")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBookHandler_Delete(t *testing.T) {
	e := newEcho()
	deleted := int64(0)
	stub := &stubBookService{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	handler := NewBookHandler(stub, newMetrics())

	c, rec := jsonRequest(e, http.MethodDelete, "/api/books/9", "")
	if err := handler.Delete(withID(c, "9")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || deleted != 9 {
		t.Fatalf("expected 204 deleting 9, got %d deleting %d", rec.Code, deleted)
	}
}

type stubBorrowingService struct {
	borrowFn func(ctx context.Context, a ports.Actor, bookID int64) (*domain.BorrowResult, error)
	returnFn func(ctx context.Context, a ports.Actor, id int64) (*domain.ReturnResult, error)
	mineFn   func(ctx context.Context, a ports.Actor) ([]domain.Borrowing, error)
}

func (s *stubBorrowingService) Borrow(ctx context.Context, a ports.Actor, bookID int64) (*domain.BorrowResult, error) {
	return s.borrowFn(ctx, a, bookID)
}
func (s *stubBorrowingService) Return(ctx context.Context, a ports.Actor, id int64) (*domain.ReturnResult, error) {
	return s.returnFn(ctx, a, id)
}
func (s *stubBorrowingService) Mine(ctx context.Context, a ports.Actor) ([]domain.Borrowing, error) {
	return s.mineFn(ctx, a)
}

func authenticated(c echo.Context, user string, roles ...string) echo.Context {
	c.Set(middleware.CtxUserName, user)
	c.Set(middleware.CtxRoles, roles)
	return c
}

func TestBorrowingHandler_Borrow(t *testing.T) {
	e := newEcho()
	m := newMetrics()
	stub := &stubBorrowingService{
		borrowFn: func(ctx context.Context, a ports.Actor, bookID int64) (*domain.BorrowResult, error) {
			if a.UserName != "alice" || bookID != 7 {
				t.Fatalf("unexpected call: %+v %d", a, bookID)
			}
			return &domain.BorrowResult{Message: "ok", BorrowingID: 11}, nil
		},
	}
	handler := NewBorrowingHandler(stub, m)

	c, rec := jsonRequest(e, http.MethodPost, "/api/books/7/borrow", "")
	if err := handler.Borrow(authenticated(withID(c, "7"), "alice", domain.RoleUser)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var res domain.BorrowResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.BorrowingID != 11 {
		t.Fatalf("unexpected body %s (%v)", rec.Body.String(), err)
	}
}

func TestBorrowingHandler_RequiresIdentity(t *testing.T) {
	e := newEcho()
	handler := NewBorrowingHandler(&stubBorrowingService{}, newMetrics())

	c, _ := jsonRequest(e, http.MethodGet, "/api/borrowings/my", "")
	if code := httpCode(t, handler.Mine(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestBorrowingHandler_ReturnPropagatesErrors(t *testing.T) {
	e := newEcho()
	stub := &stubBorrowingService{
		returnFn: func(ctx context.Context, a ports.Actor, id int64) (*domain.ReturnResult, error) {
			return nil, domain.ErrAlreadyReturned
		},
	}
	handler := NewBorrowingHandler(stub, newMetrics())

	c, _ := jsonRequest(e, http.MethodPost, "/api/books/5/return", "")
	if err := handler.Return(authenticated(withID(c, "5"), "alice")); !errors.Is(err, domain.ErrAlreadyReturned) {
		t.Fatalf("expected ErrAlreadyReturned, got %v", err)
	}
}
