// Package cli implements bookctl, the command-line view over the session
// manager and the book API.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bookshelf/bookapp/internal/client/credstore"
	"github.com/bookshelf/bookapp/internal/client/httpclient"
	"github.com/bookshelf/bookapp/internal/client/session"
	redisdb "github.com/bookshelf/bookapp/internal/infrastructure/db/redis"
	"github.com/bookshelf/bookapp/internal/pkg/config"
	"github.com/bookshelf/bookapp/pkg/logger"
)

// Globals are the persistent flags shared by every command.
type Globals struct {
	Output   string
	LogLevel string
	APIURL   string
	// Stats prints a summary of the API requests made once the command ends.
	Stats bool
}

// App is what a command runs against.
type App struct {
	Client  *httpclient.Client
	Session *session.Manager
	Log     zerolog.Logger
	// Metrics gathers the client's request metrics. Nil disables --stats.
	Metrics prometheus.Gatherer

	closers []func() error
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build loads client configuration from the environment, applies flag
// overrides and wires the credential backend, HTTP client and session.
func Build(ctx context.Context, g Globals) (*App, error) {
	cfg, err := config.LoadClient(ctx)
	if err != nil {
		return nil, err
	}
	if g.APIURL != "" {
		cfg.APIURL = g.APIURL
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, App: "bookctl"})
	reg := prometheus.NewRegistry()
	app := &App{Log: log, Metrics: reg}

	kv, err := credentialBackend(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	client, err := httpclient.New(cfg.APIURL,
		httpclient.WithInsecureTLS(cfg.InsecureTLS),
		httpclient.WithLogger(logger.For("httpclient")),
		httpclient.WithMetrics(reg),
	)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Client = client
	app.Session = session.NewManager(ctx, client,
		credstore.New(kv, logger.For("credstore")),
		logger.For("session"))
	return app, nil
}

func credentialBackend(ctx context.Context, cfg *config.Client, app *App) (credstore.KV, error) {
	switch cfg.Credentials.Backend {
	case config.BackendRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, fmt.Errorf("credential backend: %w", err)
		}
		app.closers = append(app.closers, rdb.Close)
		return redisdb.NewKV(rdb, cfg.Credentials.KeyPrefix), nil
	default:
		return credstore.NewFileKV(cfg.Credentials.File), nil
	}
}
