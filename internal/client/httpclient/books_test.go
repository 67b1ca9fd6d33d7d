package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

func TestListQuery_Defaults(t *testing.T) {
	v := ListQuery{}.Values()
	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "10", v.Get("pageSize"))
	assert.Equal(t, "false", v.Get("desc"))
	assert.False(t, v.Has("search"))
	assert.False(t, v.Has("sortBy"))
}

func TestListQuery_ToggleSort(t *testing.T) {
	q := ListQuery{}.ToggleSort(domain.SortByTitle)
	assert.Equal(t, domain.SortByTitle, q.SortBy)
	assert.False(t, q.Desc)

	q = q.ToggleSort(domain.SortByTitle)
	assert.True(t, q.Desc)

	q = q.ToggleSort(domain.SortByAuthor)
	assert.Equal(t, domain.SortByAuthor, q.SortBy)
	assert.False(t, q.Desc, "a new column starts ascending")
}

func TestListQuery_Paging(t *testing.T) {
	q := ListQuery{PageSize: 2}
	assert.False(t, q.HasPrev())
	assert.Equal(t, 1, q.PrevPage().Page)

	q = q.NextPage().NextPage()
	assert.Equal(t, 3, q.Page)
	assert.True(t, q.HasPrev())

	full := &domain.BookPage{Items: make([]domain.Book, 2)}
	short := &domain.BookPage{Items: make([]domain.Book, 1)}
	assert.True(t, q.HasNext(full))
	assert.False(t, q.HasNext(short))
	assert.False(t, q.HasNext(nil))

	assert.Equal(t, 1, q.WithSearch("tolkien").Page)
}
