// Package metrics defines the custom Prometheus metrics of the book API. It is
// the single source of truth for metric names, labels and help strings.
//
// Metrics are registered on the registerer passed to New so that each router
// can own its registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bookapi"

type Metrics struct {
	// AuthAttemptsTotal counts login and register calls.
	// Labels:
	//   - action: "login" or "register"
	//   - result: "success" or "failure"
	AuthAttemptsTotal *prometheus.CounterVec

	// BooksBorrowedTotal counts successful borrows.
	BooksBorrowedTotal prometheus.Counter

	// BooksReturnedTotal counts successful returns.
	BooksReturnedTotal prometheus.Counter

	// BorrowRejectedTotal counts borrows refused by the service.
	// Label:
	//   - reason: "out_of_stock", "not_found" or "error"
	BorrowRejectedTotal *prometheus.CounterVec

	// CatalogChangesTotal counts book writes.
	// Label:
	//   - op: "create", "update" or "delete"
	CatalogChangesTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AuthAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Total number of login and register attempts, by action and result.",
			},
			[]string{"action", "result"},
		),
		BooksBorrowedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_borrowed_total",
			Help:      "Total number of copies lent.",
		}),
		BooksReturnedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_returned_total",
			Help:      "Total number of copies taken back.",
		}),
		BorrowRejectedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "borrow_rejected_total",
				Help:      "Total number of refused borrow requests, by reason.",
			},
			[]string{"reason"},
		),
		CatalogChangesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_changes_total",
				Help:      "Total number of book writes, by operation.",
			},
			[]string{"op"},
		),
	}
}

// AuthResult returns the label value for an auth outcome.
func AuthResult(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
