package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bookshelf/bookapp/internal/api"
	"github.com/bookshelf/bookapp/internal/client/credstore"
	"github.com/bookshelf/bookapp/internal/client/httpclient"
	"github.com/bookshelf/bookapp/internal/client/session"
	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/infrastructure/db/memory"
	"github.com/bookshelf/bookapp/pkg/logger"
)

// harness runs bookctl invocations against a real dev server. Each run builds
// a fresh App, so state only carries over through the credential file.
type harness struct {
	t        *testing.T
	srv      *httptest.Server
	credFile string
	stdin    string
	// stderr holds what the last run wrote to the error stream.
	stderr string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	e, err := api.NewRouter(context.Background(), api.Deps{
		Users:         memory.NewUserRepository(),
		Books:         memory.NewBookRepository(),
		Borrowings:    memory.NewBorrowingRepository(),
		JWTSecret:     "cli-test-secret",
		TokenTTL:      time.Hour,
		AdminUser:     "admin",
		AdminPassword: "admin123",
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, credFile: filepath.Join(t.TempDir(), "credentials.json")}
}

func (h *harness) newApp(ctx context.Context, _ Globals) (*App, error) {
	reg := prometheus.NewRegistry()
	client, err := httpclient.New(h.srv.URL, httpclient.WithMetrics(reg))
	if err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	store := credstore.New(credstore.NewFileKV(h.credFile), log)
	return &App{Client: client, Session: session.NewManager(ctx, client, store, log), Log: log, Metrics: reg}, nil
}

func (h *harness) run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, Options{
		Out:    &out,
		Err:    &errOut,
		In:     strings.NewReader(h.stdin),
		NewApp: h.newApp,
	})
	h.stderr = errOut.String()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "bookctl %s", strings.Join(args, " "))
	return out
}

func (h *harness) fails(want string, args ...string) {
	h.t.Helper()
	_, err := h.run(args...)
	require.Error(h.t, err, "bookctl %s", strings.Join(args, " "))
	assert.Equal(h.t, want, err.Error())
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestWhoami_Anonymous(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Not signed in.\n", h.mustRun("whoami"))

	got := decode[map[string]any](t, h.mustRun("whoami", "-o", "json"))
	assert.Equal(t, false, got["authenticated"])
}

func TestLogin_SessionSurvivesBetweenRuns(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("login", "-u", "admin", "-p", "admin123")
	assert.Equal(t, "Signed in as admin [Admin]\n", out)
	assert.Equal(t, "Signed in as admin [Admin]\n", h.mustRun("whoami"))

	assert.Equal(t, "Signed out.\n", h.mustRun("logout"))
	assert.Equal(t, "Not signed in.\n", h.mustRun("whoami"))

	// logging out twice is harmless
	h.mustRun("logout")
}

func TestLogin_Errors(t *testing.T) {
	h := newHarness(t)

	h.fails("Please enter both username and password", "login", "-u", "admin")
	h.fails("Please enter both username and password", "login", "-u", "  ", "-p", "x")
	h.fails("Invalid username or password", "login", "-u", "admin", "-p", "wrong")
	h.fails("Invalid username or password", "login", "-u", "ghost", "-p", "whatever")

	assert.Equal(t, "Not signed in.\n", h.mustRun("whoami"))
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "-u", "admin", "-p", "admin123")

	h.fails("Invalid username or password", "login", "-u", "admin", "-p", "nope")
	assert.Equal(t, "Signed in as admin [Admin]\n", h.mustRun("whoami"))
}

func TestExpiredSession_SuggestsLogin(t *testing.T) {
	h := newHarness(t)
	store := credstore.New(credstore.NewFileKV(h.credFile), zerolog.Nop())
	require.NoError(t, store.Save(context.Background(), domain.Session{
		Token: "stale",
		User:  &domain.UserProfile{UserName: "bob", Roles: []string{domain.RoleUser}},
	}))

	_, err := h.run("borrowings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(your session may have expired; run bookctl login)")

	// a rejected login is about the password, not the stored token
	h.fails("Invalid username or password", "login", "-u", "bob", "-p", "nope")
}

func TestForbidden_ExplainsPermission(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "-u", "admin", "-p", "admin123")
	book := decode[domain.Book](t, h.mustRun("books", "create", "-o", "json", "--title", "Dune", "--author", "Frank Herbert"))
	h.mustRun("register", "--username", "bob", "--email", "bob@example.com", "--password", "secret1")

	// a profile that claims more than the token grants
	store := credstore.New(credstore.NewFileKV(h.credFile), zerolog.Nop())
	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	sess.User.Roles = []string{domain.RoleAdmin}
	require.NoError(t, store.Save(context.Background(), sess))

	h.fails("forbidden (your account lacks permission for this)", "books", "delete", formatID(book.ID), "--yes")
}

func TestStats_SummarisesRequests(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "-u", "admin", "-p", "admin123")

	h.mustRun("books", "list", "--stats")
	assert.Contains(t, h.stderr, "API requests: 1 in ")
	assert.Regexp(t, `GET\s+200\s+1`, h.stderr)

	_, err := h.run("books", "get", "42", "--stats")
	require.Error(t, err)
	assert.Regexp(t, `GET\s+404\s+1`, h.stderr)

	h.mustRun("books", "list")
	assert.Empty(t, h.stderr)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	h.fails("All fields are required.", "register", "--username", "bob", "--password", "secret1")
	h.fails("Please enter a valid email address.", "register", "--username", "bob", "--email", "bob-at-home", "--password", "secret1")
	h.fails("Password must be at least 6 characters.", "register", "--username", "bob", "--email", "bob@example.com", "--password", "abc")

	out := h.mustRun("register", "--username", "bob", "--email", "bob@example.com", "--password", "secret1", "--full-name", "Bob Reader")
	assert.Equal(t, "Signed in as Bob Reader (bob)\n", out)

	got := decode[map[string]any](t, h.mustRun("whoami", "-o", "json"))
	assert.Equal(t, "bob", got["userName"])
	assert.Equal(t, false, got["admin"])
	assert.Equal(t, []any{domain.RoleUser}, got["roles"])

	h.mustRun("logout")
	_, err := h.run("register", "--username", "bob", "--email", "bob2@example.com", "--password", "secret1")
	require.Error(t, err)
}

func TestBooks_CatalogManagement(t *testing.T) {
	h := newHarness(t)

	h.fails("Please log in to add books.", "books", "create", "--title", "Dune", "--author", "Frank Herbert")

	h.mustRun("login", "-u", "admin", "-p", "admin123")
	h.fails("Title and Author are required.", "books", "create", "--title", "Dune")
	h.fails("Title and Author are required.", "books", "create", "--title", "Dune", "--author", "   ")

	created := decode[domain.Book](t, h.mustRun("books", "create", "-o", "json",
		"--title", "Dune", "--author", "Frank Herbert", "--published", "1965-08-01", "--quantity", "2"))
	assert.Equal(t, "Dune", created.Title)
	require.NotNil(t, created.PublicationDate)
	assert.Equal(t, "1965-08-01", created.PublicationDate.String())

	h.mustRun("books", "create", "--title", "Emma", "--author", "Jane Austen", "--quantity", "1")

	page := decode[domain.BookPage](t, h.mustRun("books", "list", "-o", "json", "--sort", "title", "--desc"))
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, "Emma", page.Items[0].Title)

	table := h.mustRun("books", "list", "--search", "austen")
	assert.Contains(t, table, "Jane Austen")
	assert.NotContains(t, table, "Frank Herbert")
	assert.Contains(t, table, "Page 1 - 1 total")

	more := h.mustRun("books", "list", "--page-size", "1")
	assert.Contains(t, more, "More: --page 2")

	h.fails("--sort must be one of: title, author, publicationdate", "books", "list", "--sort", "isbn")

	// repeating a sort field reverses it
	flipped := decode[domain.BookPage](t, h.mustRun("books", "list", "-o", "json", "--sort", "title", "--sort", "title"))
	require.Len(t, flipped.Items, 2)
	assert.Equal(t, "Emma", flipped.Items[0].Title)

	second := h.mustRun("books", "list", "--page-size", "1", "--page", "2")
	assert.Contains(t, second, "Prev: --page 1")
	assert.NotContains(t, more, "Prev:")

	// a search starts over from the first page unless one is given
	assert.Contains(t, h.mustRun("books", "list", "--search", "dune", "--page-size", "1"), "Page 1 - 1 total")
	assert.Contains(t, h.mustRun("books", "list", "--search", "dune", "--page", "2"), "Page 2 - 1 total")

	id := formatID(created.ID)
	updated := decode[domain.Book](t, h.mustRun("books", "update", id, "-o", "json", "--quantity", "5"))
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, "Dune", updated.Title)
	h.fails("Title and Author are required.", "books", "update", id, "--title", "")

	var asYAML map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(h.mustRun("books", "get", id, "-o", "yaml")), &asYAML))
	assert.Equal(t, "Frank Herbert", asYAML["author"])
	assert.Equal(t, "1965-08-01", asYAML["publicationDate"])

	assert.Contains(t, h.mustRun("books", "get", id), "Available:  yes")
	cleared := decode[domain.Book](t, h.mustRun("books", "update", id, "-o", "json", "--published", ""))
	assert.Nil(t, cleared.PublicationDate)
	assert.Equal(t, 5, cleared.Quantity)
	h.fails(`Invalid --published date "someday"`, "books", "update", id, "--published", "someday")

	h.fails("Book not found", "books", "get", "999")
	h.fails(`Invalid book id: "abc"`, "books", "get", "abc")
}

func TestBooks_DeleteIsAdminOnly(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "-u", "admin", "-p", "admin123")
	book := decode[domain.Book](t, h.mustRun("books", "create", "-o", "json", "--title", "Dune", "--author", "Frank Herbert"))
	id := formatID(book.ID)

	h.mustRun("register", "--username", "bob", "--email", "bob@example.com", "--password", "secret1")
	h.fails("Only administrators can delete books.", "books", "delete", id, "--yes")

	h.mustRun("login", "-u", "admin", "-p", "admin123")
	h.stdin = "n\n"
	assert.Empty(t, h.mustRun("books", "delete", id))
	assert.Equal(t, "Delete this book? [y/N]: Cancelled.\n", h.stderr)
	assert.Empty(t, h.mustRun("books", "delete", id, "-o", "json"))
	h.mustRun("books", "get", id)

	h.stdin = "y\n"
	assert.Equal(t, "Book "+id+" deleted.\n", h.mustRun("books", "delete", id))
	h.fails("Book not found", "books", "get", id)
	h.fails("Book not found", "books", "delete", id, "--yes")
}

func TestBorrowing_Flow(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "-u", "admin", "-p", "admin123")
	book := decode[domain.Book](t, h.mustRun("books", "create", "-o", "json",
		"--title", "Emma", "--author", "Jane Austen", "--quantity", "1"))
	id := formatID(book.ID)
	h.mustRun("logout")

	h.fails("Please log in to borrow books.", "books", "borrow", id)
	h.fails("Please log in to see your borrowings.", "borrowings")

	h.mustRun("register", "--username", "bob", "--email", "bob@example.com", "--password", "secret1")
	assert.Equal(t, "Book borrowed successfully. Borrowing ID: 1\n", h.mustRun("books", "borrow", id))
	h.fails("No copies available", "books", "borrow", id)

	mine := decode[[]domain.Borrowing](t, h.mustRun("borrowings", "-o", "json"))
	require.Len(t, mine, 1)
	assert.Equal(t, "Emma", mine[0].BookTitle)
	assert.False(t, mine[0].Returned())

	h.fails("Borrowing ID must be greater than 0.", "books", "return", "0")
	h.fails("Borrowing ID must be greater than 0.", "borrowings", "--return", "-3")

	assert.Equal(t, "Book returned successfully.\n", h.mustRun("borrowings", "--return", "1"))
	h.fails("Book already returned", "books", "return", "1")

	table := h.mustRun("borrowings")
	assert.Contains(t, table, "Emma")
	assert.NotContains(t, table, " No\n")

	got := decode[domain.Book](t, h.mustRun("books", "get", id, "-o", "json"))
	assert.Equal(t, 1, got.Quantity)
}

func TestBorrowings_EmptyList(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "--username", "amy", "--email", "amy@example.com", "--password", "secret1")
	assert.Equal(t, "No borrowings.\n", h.mustRun("borrowings"))
	assert.Equal(t, "[]\n", h.mustRun("borrowings", "-o", "json"))
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	h.fails(`unknown output format "xml" (want table, json or yaml)`, "whoami", "-o", "xml")
}

func TestBuild_FileBackend(t *testing.T) {
	h := newHarness(t)
	logger.Reset()
	t.Cleanup(logger.Reset)

	t.Setenv("BOOKAPP_API_URL", h.srv.URL)
	t.Setenv("BOOKAPP_CREDENTIAL_BACKEND", "file")
	t.Setenv("BOOKAPP_CREDENTIAL_FILE", h.credFile)

	var out bytes.Buffer
	err := Execute(context.Background(), []string{"login", "-u", "admin", "-p", "admin123"}, Options{Out: &out, Err: &bytes.Buffer{}})
	require.NoError(t, err)

	// the harness reads the same file
	assert.Equal(t, "Signed in as admin [Admin]\n", h.mustRun("whoami"))
}

func TestBuild_RedisBackend(t *testing.T) {
	h := newHarness(t)
	mr := miniredis.RunT(t)
	logger.Reset()
	t.Cleanup(logger.Reset)

	t.Setenv("BOOKAPP_CREDENTIAL_BACKEND", "redis")
	t.Setenv("BOOKAPP_CREDENTIAL_PREFIX", "test:")
	t.Setenv("REDIS_ADDR", mr.Addr())

	run := func(args ...string) string {
		var out bytes.Buffer
		args = append(args, "--api-url", h.srv.URL)
		require.NoError(t, Execute(context.Background(), args, Options{Out: &out, Err: &bytes.Buffer{}}))
		return out.String()
	}

	run("login", "-u", "admin", "-p", "admin123")
	assert.True(t, mr.Exists("test:"+credstore.TokenKey))
	assert.True(t, mr.Exists("test:"+credstore.UserKey))
	assert.Equal(t, "Signed in as admin [Admin]\n", run("whoami"))

	run("logout")
	assert.False(t, mr.Exists("test:"+credstore.TokenKey))
	assert.Equal(t, "Not signed in.\n", run("whoami"))
}

func TestBuild_RedisUnavailable(t *testing.T) {
	logger.Reset()
	t.Cleanup(logger.Reset)

	t.Setenv("BOOKAPP_CREDENTIAL_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	err := Execute(context.Background(), []string{"whoami"}, Options{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential backend")
}
