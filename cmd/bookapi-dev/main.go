// Command bookapi-dev serves the book inventory REST API for local client
// development. Storage is in memory unless BOOKAPI_MONGO_URI is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookshelf/bookapp/internal/api"
	"github.com/bookshelf/bookapp/internal/infrastructure/db/memory"
	"github.com/bookshelf/bookapp/internal/infrastructure/db/mongo"
	"github.com/bookshelf/bookapp/internal/infrastructure/http/handlers"
	"github.com/bookshelf/bookapp/internal/pkg/config"
	"github.com/bookshelf/bookapp/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServer(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, App: "bookapi-dev", Pretty: cfg.Env == "development"})

	deps := api.Deps{
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
		Logger:        log,
	}

	storeLog := logger.For("storage")
	if cfg.Mongo.URI != "" {
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		deps.Users = mongo.NewUserRepository(db)
		deps.Books = mongo.NewBookRepository(db)
		deps.Borrowings = mongo.NewBorrowingRepository(db)
		deps.Checks = map[string]handlers.Checker{"mongodb": handlers.MongoChecker(db)}
		storeLog.Info().Str("database", cfg.Mongo.Database).Msg("using mongodb storage")
	} else {
		deps.Users = memory.NewUserRepository()
		deps.Books = memory.NewBookRepository()
		deps.Borrowings = memory.NewBorrowingRepository()
		storeLog.Info().Msg("using in-memory storage")
	}

	e, err := api.NewRouter(ctx, deps)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("bookapi-dev listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return shutdown(e.Shutdown, log)
}

func shutdown(fn func(context.Context) error, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("shutting down")
	if err := fn(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
