package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
	return &printer{w: w, format: format}, nil
}

func (p *printer) structured() bool {
	return p.format != FormatTable
}

// value writes v as json or yaml. YAML goes through JSON first so that keys
// and date layouts match the API's wire format.
func (p *printer) value(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.format == FormatJSON {
		var buf []byte
		buf, err = json.MarshalIndent(json.RawMessage(raw), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.w, string(buf))
		return err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	_, err = p.w.Write(out)
	return err
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) books(page *domain.BookPage, q pageInfo) error {
	if p.structured() {
		return p.value(page)
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tPUBLISHED\tQUANTITY")
	for _, b := range page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", b.ID, b.Title, b.Author, published(b.PublicationDate), b.Quantity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p.line("Page %d - %d total", q.page, page.Total)
	if q.prev > 0 {
		p.line("Prev: --page %d", q.prev)
	}
	if q.next > 0 {
		p.line("More: --page %d", q.next)
	}
	return nil
}

func (p *printer) book(b *domain.Book) error {
	if p.structured() {
		return p.value(b)
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", b.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", b.Title)
	fmt.Fprintf(tw, "Author:\t%s\n", b.Author)
	fmt.Fprintf(tw, "Published:\t%s\n", published(b.PublicationDate))
	fmt.Fprintf(tw, "Quantity:\t%d\n", b.Quantity)
	fmt.Fprintf(tw, "Available:\t%s\n", yesNo(b.Available()))
	return tw.Flush()
}

func (p *printer) borrowings(items []domain.Borrowing) error {
	if p.structured() {
		return p.value(items)
	}
	if len(items) == 0 {
		p.line("No borrowings.")
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBOOK\tTITLE\tBORROWED\tRETURNED")
	for _, b := range items {
		returned := "No"
		if b.Returned() {
			returned = b.ReturnedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", b.ID, b.BookID, b.BookTitle,
			b.BorrowedAt.Local().Format("2006-01-02 15:04"), returned)
	}
	return tw.Flush()
}

func (p *printer) profile(u *domain.UserProfile) error {
	if p.structured() {
		if u == nil {
			return p.value(map[string]any{"authenticated": false})
		}
		return p.value(map[string]any{
			"authenticated": true,
			"userName":      u.UserName,
			"fullName":      u.FullName,
			"roles":         u.Roles,
			"admin":         u.IsAdmin(),
		})
	}
	if u == nil {
		p.line("Not signed in.")
		return nil
	}
	badge := ""
	if u.IsAdmin() {
		badge = " [Admin]"
	}
	if u.DisplayName() != u.UserName {
		p.line("Signed in as %s (%s)%s", u.DisplayName(), u.UserName, badge)
		return nil
	}
	p.line("Signed in as %s%s", u.UserName, badge)
	return nil
}

type pageInfo struct {
	page int
	prev int
	next int
}

func published(d *domain.Date) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatID(id int64) string {
	if id <= 0 {
		return "N/A"
	}
	return strconv.FormatInt(id, 10)
}
