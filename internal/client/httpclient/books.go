package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// ListQuery holds the catalog's paging, search and sort state.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	SortBy   string
	Desc     bool
}

func (q ListQuery) page() int {
	if q.Page < 1 {
		return DefaultPage
	}
	return q.Page
}

func (q ListQuery) pageSize() int {
	if q.PageSize < 1 {
		return DefaultPageSize
	}
	return q.PageSize
}

// Values encodes q as query parameters. Empty search and sort are omitted.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.page()))
	v.Set("pageSize", strconv.Itoa(q.pageSize()))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	v.Set("desc", strconv.FormatBool(q.Desc))
	return v
}

// ToggleSort clicks a column header: the current column flips direction, a
// new column starts ascending.
func (q ListQuery) ToggleSort(field string) ListQuery {
	if q.SortBy == field {
		q.Desc = !q.Desc
	} else {
		q.SortBy = field
		q.Desc = false
	}
	return q
}

// WithSearch sets the search term and goes back to the first page.
func (q ListQuery) WithSearch(term string) ListQuery {
	q.Search = term
	q.Page = DefaultPage
	return q
}

func (q ListQuery) NextPage() ListQuery {
	q.Page = q.page() + 1
	return q
}

func (q ListQuery) PrevPage() ListQuery {
	q.Page = max(DefaultPage, q.page()-1)
	return q
}

func (q ListQuery) HasPrev() bool {
	return q.page() > DefaultPage
}

// HasNext reports whether another page may exist: a full page means maybe.
func (q ListQuery) HasNext(p *domain.BookPage) bool {
	return p != nil && len(p.Items) >= q.pageSize()
}

// Login posts credentials and returns the server's AuthResult. It does not
// touch the default headers; the session manager does that.
func (c *Client) Login(ctx context.Context, userName, password string) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", nil, domain.Credentials{UserName: userName, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := c.Do(ctx, http.MethodPost, "/api/auth/register", nil, reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBooks(ctx context.Context, q ListQuery) (*domain.BookPage, error) {
	var out domain.BookPage
	if err := c.Do(ctx, http.MethodGet, "/api/books", q.Values(), nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []domain.Book{}
	}
	return &out, nil
}

func (c *Client) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var out domain.Book
	if err := c.Do(ctx, http.MethodGet, bookPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBook(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	var out domain.Book
	if err := c.Do(ctx, http.MethodPost, "/api/books", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBook(ctx context.Context, id int64, patch domain.BookPatch) (*domain.Book, error) {
	var out domain.Book
	if err := c.Do(ctx, http.MethodPut, bookPath(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, bookPath(id), nil, nil, nil)
}

func (c *Client) Borrow(ctx context.Context, bookID int64) (*domain.BorrowResult, error) {
	var out domain.BorrowResult
	if err := c.Do(ctx, http.MethodPost, bookPath(bookID)+"/borrow", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Return takes back a borrowing. The id goes in the books path segment; that
// is where the API mounts it.
func (c *Client) Return(ctx context.Context, borrowingID int64) (*domain.ReturnResult, error) {
	var out domain.ReturnResult
	if err := c.Do(ctx, http.MethodPost, bookPath(borrowingID)+"/return", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyBorrowings(ctx context.Context) ([]domain.Borrowing, error) {
	var out []domain.Borrowing
	if err := c.Do(ctx, http.MethodGet, "/api/borrowings/my", nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Borrowing{}
	}
	return out, nil
}

func bookPath(id int64) string {
	return "/api/books/" + strconv.FormatInt(id, 10)
}
