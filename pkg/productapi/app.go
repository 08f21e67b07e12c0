package productapi

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/cached"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/metrics"
)

// Option configures an App.
type Option func(*App)

// WithLogger sets the request and application logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}

// WithReadOnly sets the initial read-only mode.
func WithReadOnly(readOnly bool) Option {
	return func(a *App) {
		a.readOnly.Store(readOnly)
	}
}

// WithCache caches lookups for ttl. Zero disables caching.
func WithCache(ttl time.Duration) Option {
	return func(a *App) {
		a.cacheTTL = ttl
	}
}

// WithMetrics instruments the store with c and serves gatherer on /metrics.
func WithMetrics(c *metrics.Collector, gatherer prometheus.Gatherer) Option {
	return func(a *App) {
		a.collector = c
		a.gatherer = gatherer
	}
}

// WithClock overrides the time source used to stamp products.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// App holds the application state.
type App struct {
	products *models.ProductRepository
	log      zerolog.Logger
	now      func() time.Time
	readOnly atomic.Bool

	cacheTTL  time.Duration
	collector *metrics.Collector
	gatherer  prometheus.Gatherer
}

// New wraps store and returns the application.
func New(store repository.Store[models.Product, models.ProductID], opts ...Option) *App {
	a := &App{
		log: zerolog.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.collector != nil {
		store = metrics.Wrap(store, a.collector)
	}
	if a.cacheTTL > 0 {
		store = cached.New(store, a.cacheTTL)
	}
	store = repository.NewReadOnly(store, a.IsReadOnly)

	a.products = models.NewProductRepository(store)
	return a
}

// Products returns the decorated product repository.
func (a *App) Products() *models.ProductRepository {
	return a.products
}

// SetReadOnly toggles read-only mode. While it is on every write is
// rejected with repository.ErrReadOnly and reads keep working.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly.Store(readOnly)
	a.log.Info().Bool("read_only", readOnly).Msg("application read-only mode changed")
}

// IsReadOnly reports whether the application is in read-only mode.
func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}

// Router returns the HTTP handler of the application.
func (a *App) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(
		hlog.NewHandler(a.log),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Debug().
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
	)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", a.handleListProducts).Methods("GET")
	api.HandleFunc("/products", a.handleCreateProduct).Methods("POST")
	api.HandleFunc("/products/batch", a.handleCreateProducts).Methods("POST")
	api.HandleFunc("/products/expensive", a.handleExpensiveProducts).Methods("GET")
	api.HandleFunc("/products/{id}", a.handleGetProduct).Methods("GET")
	api.HandleFunc("/products/{id}", a.handleUpdateProduct).Methods("PUT")
	api.HandleFunc("/products/{id}", a.handleDeleteProduct).Methods("DELETE")

	router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	if a.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	return router
}
