package domain

import "strings"

// Sortable book fields accepted by the list endpoint.
const (
	SortByTitle           = "title"
	SortByAuthor          = "author"
	SortByPublicationDate = "publicationdate"
)

// ValidSortField reports whether field is one of the list endpoint's sort keys.
func ValidSortField(field string) bool {
	switch strings.ToLower(field) {
	case SortByTitle, SortByAuthor, SortByPublicationDate:
		return true
	}
	return false
}

// Book is a catalog entry. Quantity is the number of copies on the shelf.
type Book struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationDate *Date  `json:"publicationDate"`
	Quantity        int    `json:"quantity"`
}

// Available reports whether at least one copy can be borrowed.
func (b Book) Available() bool {
	return b.Quantity > 0
}

// BookInput is the create payload.
type BookInput struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationDate *Date  `json:"publicationDate"`
	Quantity        int    `json:"quantity"`
}

// BookPatch is a partial update; nil fields are left untouched. A JSON null
// cannot be told apart from an absent field, so removing the publication
// date takes ClearPublicationDate.
type BookPatch struct {
	Title                *string `json:"title,omitempty"`
	Author               *string `json:"author,omitempty"`
	PublicationDate      *Date   `json:"publicationDate,omitempty"`
	ClearPublicationDate bool    `json:"clearPublicationDate,omitempty"`
	Quantity             *int    `json:"quantity,omitempty"`
}

// Apply copies the set fields of p onto b.
func (p BookPatch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	switch {
	case p.ClearPublicationDate:
		b.PublicationDate = nil
	case p.PublicationDate != nil && !p.PublicationDate.IsZero():
		d := *p.PublicationDate
		b.PublicationDate = &d
	}
	if p.Quantity != nil {
		b.Quantity = *p.Quantity
	}
}

// BookPage is one page of the catalog plus the total number of matches.
type BookPage struct {
	Items []Book `json:"items"`
	Total int64  `json:"total"`
}

// Borrowing records one copy of a book lent to a user.
type Borrowing struct {
	ID         int64      `json:"id"`
	BookID     int64      `json:"bookId"`
	BookTitle  string     `json:"bookTitle"`
	UserName   string     `json:"userName,omitempty"`
	BorrowedAt Timestamp  `json:"borrowedAt"`
	ReturnedAt *Timestamp `json:"returnedAt"`
}

// Returned reports whether the copy is back on the shelf.
func (b Borrowing) Returned() bool {
	return b.ReturnedAt != nil && !b.ReturnedAt.IsZero()
}

// BorrowResult is the body returned by the borrow endpoint.
type BorrowResult struct {
	Message     string `json:"message"`
	BorrowingID int64  `json:"borrowingId"`
}

// ReturnResult is the body returned by the return endpoint.
type ReturnResult struct {
	Message string `json:"message"`
}
