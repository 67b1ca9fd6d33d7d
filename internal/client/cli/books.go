package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookshelf/bookapp/internal/client/httpclient"
	"github.com/bookshelf/bookapp/internal/core/domain"
)

func (r *root) booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage the catalog",
	}
	cmd.AddCommand(
		r.booksListCmd(),
		r.booksGetCmd(),
		r.booksCreateCmd(),
		r.booksUpdateCmd(),
		r.booksDeleteCmd(),
		r.booksBorrowCmd(),
		r.booksReturnCmd(),
	)
	return cmd
}

func (r *root) booksListCmd() *cobra.Command {
	var (
		page, pageSize int
		search         string
		sorts          []string
		desc           bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books a page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := httpclient.ListQuery{Page: page, PageSize: pageSize}
			if term := strings.TrimSpace(search); term != "" {
				q = q.WithSearch(term)
				if cmd.Flags().Changed("page") {
					q.Page = page
				}
			}
			for _, field := range sorts {
				field = strings.ToLower(field)
				if !domain.ValidSortField(field) {
					return fmt.Errorf("--sort must be one of: %s, %s, %s",
						domain.SortByTitle, domain.SortByAuthor, domain.SortByPublicationDate)
				}
				q = q.ToggleSort(field)
			}
			if desc {
				q.Desc = true
			}
			if q.Page < 1 {
				q.Page = httpclient.DefaultPage
			}

			result, err := r.app.Client.ListBooks(cmd.Context(), q)
			if err != nil {
				return r.apiFailure(err, "Failed to load books")
			}
			info := pageInfo{page: q.Page}
			if q.HasPrev() {
				info.prev = q.PrevPage().Page
			}
			if q.HasNext(result) {
				info.next = q.NextPage().Page
			}
			return r.out.books(result, info)
		},
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", httpclient.DefaultPage, "Page number (1-based)")
	f.IntVar(&pageSize, "page-size", httpclient.DefaultPageSize, "Books per page (max 100)")
	f.StringVar(&search, "search", "", "Match title or author; starts from page 1 unless --page is given")
	f.StringArrayVar(&sorts, "sort", nil, "Sort by title, author or publicationdate; repeat a field to reverse it")
	f.BoolVar(&desc, "desc", false, "Sort descending")
	return cmd
}

func (r *root) booksGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book id")
			if err != nil {
				return err
			}
			b, err := r.app.Client.GetBook(cmd.Context(), id)
			if err != nil {
				return r.apiFailure(err, "Failed to load book")
			}
			return r.out.book(b)
		},
	}
}

// bookForm mirrors the fields a user can edit.
type bookForm struct {
	Title     string `json:"title"    validate:"notblank"`
	Author    string `json:"author"   validate:"notblank"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	Published string `json:"-"`
}

func (f *bookForm) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.Title, "title", "", "Title")
	fl.StringVar(&f.Author, "author", "", "Author")
	fl.StringVar(&f.Published, "published", "", "Publication date (YYYY-MM-DD)")
	fl.IntVar(&f.Quantity, "quantity", 0, "Copies on the shelf")
}

func (r *root) checkBookForm(f *bookForm) error {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	if err := r.valid.Validate(f); err != nil {
		if f.Title == "" || f.Author == "" {
			return errors.New("Title and Author are required.")
		}
		return errors.New("Quantity cannot be negative.")
	}
	return nil
}

func parsePublished(s string) (*domain.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("Invalid --published date %q", s)
	}
	return &d, nil
}

func (r *root) booksCreateCmd() *cobra.Command {
	var form bookForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a book to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.requireAuth("add books"); err != nil {
				return err
			}
			if err := r.checkBookForm(&form); err != nil {
				return err
			}
			date, err := parsePublished(form.Published)
			if err != nil {
				return err
			}

			b, err := r.app.Client.CreateBook(cmd.Context(), domain.BookInput{
				Title:           form.Title,
				Author:          form.Author,
				PublicationDate: date,
				Quantity:        form.Quantity,
			})
			if err != nil {
				return r.apiFailure(err, "Save failed")
			}
			return r.out.book(b)
		},
	}
	form.bind(cmd)
	return cmd
}

// booksUpdateCmd loads the book, overlays the flags that were given and
// sends only those fields.
func (r *root) booksUpdateCmd() *cobra.Command {
	var form bookForm

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book id")
			if err != nil {
				return err
			}
			if err := r.requireAuth("edit books"); err != nil {
				return err
			}

			current, err := r.app.Client.GetBook(cmd.Context(), id)
			if err != nil {
				return r.apiFailure(err, "Failed to load book")
			}

			changed := cmd.Flags().Changed
			merged := bookForm{Title: current.Title, Author: current.Author, Quantity: current.Quantity}
			if changed("title") {
				merged.Title = form.Title
			}
			if changed("author") {
				merged.Author = form.Author
			}
			if changed("quantity") {
				merged.Quantity = form.Quantity
			}
			if err := r.checkBookForm(&merged); err != nil {
				return err
			}

			var patch domain.BookPatch
			if changed("title") {
				patch.Title = &merged.Title
			}
			if changed("author") {
				patch.Author = &merged.Author
			}
			if changed("quantity") {
				patch.Quantity = &merged.Quantity
			}
			if changed("published") {
				if patch.PublicationDate, err = parsePublished(form.Published); err != nil {
					return err
				}
				patch.ClearPublicationDate = patch.PublicationDate == nil
			}

			b, err := r.app.Client.UpdateBook(cmd.Context(), id, patch)
			if err != nil {
				return r.apiFailure(err, "Save failed")
			}
			return r.out.book(b)
		},
	}
	form.bind(cmd)
	cmd.Flags().Lookup("published").Usage = `Publication date (YYYY-MM-DD); "" clears it`
	return cmd
}

func (r *root) booksDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a book (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book id")
			if err != nil {
				return err
			}
			if !r.app.Session.IsAdmin() {
				return errors.New("Only administrators can delete books.")
			}
			if !yes && !r.confirm("Delete this book?") {
				fmt.Fprintln(r.opts.Err, "Cancelled.")
				return nil
			}
			if err := r.app.Client.DeleteBook(cmd.Context(), id); err != nil {
				return r.apiFailure(err, "Delete failed")
			}
			if !r.out.structured() {
				r.out.line("Book %d deleted.", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// confirm reads a y/N answer. Anything but yes, including EOF, is no.
func (r *root) confirm(question string) bool {
	fmt.Fprintf(r.opts.Err, "%s [y/N]: ", question)
	answer, _ := r.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (r *root) booksBorrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow ID",
		Short: "Borrow one copy of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book id")
			if err != nil {
				return err
			}
			if err := r.requireAuth("borrow books"); err != nil {
				return err
			}
			res, err := r.app.Client.Borrow(cmd.Context(), id)
			if err != nil {
				return r.apiFailure(err, "Borrow failed")
			}
			if r.out.structured() {
				return r.out.value(res)
			}
			msg := res.Message
			if msg == "" {
				msg = "Borrowed"
			}
			r.out.line("%s. Borrowing ID: %s", strings.TrimSuffix(msg, "."), formatID(res.BorrowingID))
			return nil
		},
	}
}

func (r *root) booksReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return BORROWING_ID",
		Short: "Return a borrowed copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "borrowing id")
			if err != nil {
				return err
			}
			return r.returnBorrowing(cmd, id)
		},
	}
}

func (r *root) returnBorrowing(cmd *cobra.Command, id int64) error {
	if id <= 0 {
		return errors.New("Borrowing ID must be greater than 0.")
	}
	if err := r.requireAuth("return books"); err != nil {
		return err
	}
	res, err := r.app.Client.Return(cmd.Context(), id)
	if err != nil {
		return r.apiFailure(err, "Return failed")
	}
	if r.out.structured() {
		return r.out.value(res)
	}
	msg := res.Message
	if msg == "" {
		msg = "Returned"
	}
	r.out.line("%s.", strings.TrimSuffix(msg, "."))
	return nil
}
