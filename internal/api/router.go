package api

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/bookshelf/bookapp/internal/api/docs"
	"github.com/bookshelf/bookapp/internal/api/handler"
	"github.com/bookshelf/bookapp/internal/api/metrics"
	"github.com/bookshelf/bookapp/internal/api/middleware"
	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
	"github.com/bookshelf/bookapp/internal/core/service"
	"github.com/bookshelf/bookapp/internal/infrastructure/http/handlers"
	"github.com/bookshelf/bookapp/internal/validation"
)

// Deps are the storage backends and settings the router is built from.
type Deps struct {
	Users      ports.UserRepository
	Books      ports.BookRepository
	Borrowings ports.BorrowingRepository

	JWTSecret string
	TokenTTL  time.Duration

	// AdminUser is seeded with the Admin role when set and not yet present.
	AdminUser     string
	AdminPassword string

	// Checks feed /health/ready. Empty means always ready.
	Checks map[string]handlers.Checker

	// Registry collects /metrics. Nil means a fresh registry per router.
	Registry *prometheus.Registry

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(ctx context.Context, deps Deps) (*echo.Echo, error) {
	log := deps.Logger
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	promMW, err := echoprometheus.MiddlewareConfig{Subsystem: "bookapi", Registerer: reg}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("prometheus middleware: %w", err)
	}
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(promMW)

	// --- Dependencies ---
	m := metrics.New(reg)
	authService := service.NewAuthService(deps.Users, deps.JWTSecret, deps.TokenTTL, log.With().Str("component", "auth").Logger())
	bookService := service.NewBookService(deps.Books, log.With().Str("component", "books").Logger())
	borrowingService := service.NewBorrowingService(deps.Books, deps.Borrowings, log.With().Str("component", "borrowings").Logger())

	if deps.AdminUser != "" {
		if err := authService.EnsureAdmin(ctx, deps.AdminUser, deps.AdminPassword); err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
	}

	authHandler := handler.NewAuthHandler(authService, m)
	bookHandler := handler.NewBookHandler(bookService, m)
	borrowingHandler := handler.NewBorrowingHandler(borrowingService, m)
	authMiddleware := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/api/auth/register", authHandler.Register)
	e.POST("/api/auth/login", authHandler.Login)

	// --- Catalog: reads are anonymous, writes need a token, delete needs Admin ---
	books := e.Group("/api/books")
	books.GET("", bookHandler.List)
	books.GET("/:id", bookHandler.Get)
	books.POST("", bookHandler.Create, authMiddleware)
	books.PUT("/:id", bookHandler.Update, authMiddleware)
	books.DELETE("/:id", bookHandler.Delete, authMiddleware, adminOnly)
	books.POST("/:id/borrow", borrowingHandler.Borrow, authMiddleware)
	books.POST("/:id/return", borrowingHandler.Return, authMiddleware)

	e.GET("/api/borrowings/my", borrowingHandler.Mine, authMiddleware)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
