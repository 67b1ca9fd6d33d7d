package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookshelf/bookapp/internal/client/httpclient"
	"github.com/bookshelf/bookapp/internal/validation"
)

// Options lets callers swap the streams and the App constructor.
type Options struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader
	// NewApp defaults to Build.
	NewApp func(ctx context.Context, g Globals) (*App, error)
}

type root struct {
	opts  Options
	g     Globals
	app   *App
	out   *printer
	in    *bufio.Reader
	valid *validation.Validator
}

// Execute runs bookctl with args and releases the App afterwards.
func Execute(ctx context.Context, args []string, opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.NewApp == nil {
		opts.NewApp = Build
	}

	r := &root{opts: opts, in: bufio.NewReader(opts.In), valid: validation.New()}
	cmd := r.command()
	cmd.SetArgs(args)
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.Err)

	err := cmd.ExecuteContext(ctx)
	if r.g.Stats && r.app != nil && r.app.Metrics != nil {
		if serr := writeStats(opts.Err, r.app.Metrics); serr != nil && err == nil {
			err = serr
		}
	}
	if r.app != nil {
		if cerr := r.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (r *root) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bookctl",
		Short:         "Browse and manage the book inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			out, err := newPrinter(r.opts.Out, r.g.Output)
			if err != nil {
				return err
			}
			r.out = out
			app, err := r.opts.NewApp(cmd.Context(), r.g)
			if err != nil {
				return err
			}
			r.app = app
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&r.g.Output, "output", "o", FormatTable, "Output format (table, json, yaml)")
	pf.StringVar(&r.g.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&r.g.APIURL, "api-url", "", "Book API base URL (overrides BOOKAPP_API_URL)")
	pf.BoolVar(&r.g.Stats, "stats", false, "Print a summary of API requests to stderr when done")

	cmd.AddCommand(
		r.loginCmd(),
		r.registerCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.booksCmd(),
		r.borrowingsCmd(),
	)
	return cmd
}

// requireAuth refuses locally what the API would reject anyway.
func (r *root) requireAuth(action string) error {
	if !r.app.Session.IsAuthenticated() {
		return errors.New("Please log in to " + action + ".")
	}
	return nil
}

// apiFailure turns err into the server's message, or fallback when it sent
// none. A 401 on anything but the auth endpoints while signed in means the
// token has expired.
func (r *root) apiFailure(err error, fallback string) error {
	r.app.Log.Debug().Err(err).Msg(fallback)
	msg := httpclient.ErrorMessage(err, fallback)
	switch {
	case httpclient.IsUnauthorized(err) && r.app.Session.IsAuthenticated() && !authEndpoint(err):
		msg += " (your session may have expired; run bookctl login)"
	case httpclient.IsForbidden(err):
		msg += " (your account lacks permission for this)"
	}
	return errors.New(msg)
}

// authEndpoint reports whether err came from login or registration, where a
// 401 is about the submitted credentials rather than the stored token.
func authEndpoint(err error) bool {
	var ae *httpclient.APIError
	return errors.As(err, &ae) && strings.HasPrefix(ae.Path, authPathPrefix)
}

const authPathPrefix = "/api/auth/"

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("Invalid " + what + ": " + strconv.Quote(s))
	}
	return id, nil
}
