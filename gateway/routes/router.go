package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relpchain/gateway/middleware"
	"relpchain/native/relp"
	"relpchain/storage/eventlog"
)

// Ledger is the node surface the routes drive.
type Ledger interface {
	Apply(ctx context.Context, op string, block uint64, fn func(*relp.Engine) error) error
	Query(fn func(*relp.Engine) error) error
	Events(ctx context.Context, filter eventlog.Filter) ([]eventlog.Record, error)
	Subscribe(ctx context.Context) (<-chan eventlog.Record, func())
	Height() uint64
}

type Config struct {
	Ledger        Ledger
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

// Rate limit keys.
const (
	LimitQuery = "query"
	LimitTx    = "tx"
)

func New(cfg Config) (http.Handler, error) {
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("routes: ledger required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := &handlers{ledger: cfg.Ledger, logger: cfg.Logger, origins: cfg.CORS.AllowedOrigins}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Observability != nil {
		r.Use(cfg.Observability.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Group(func(q chi.Router) {
			if cfg.RateLimiter != nil {
				q.Use(cfg.RateLimiter.Middleware(LimitQuery))
			}
			q.Get("/supply", h.supply)
			q.Get("/farm", h.farm)
			q.Get("/accounts/{address}", h.account)
			q.Get("/accounts/{owner}/allowances/{spender}", h.allowance)
			q.Get("/pools/{pool}", h.pool)
			q.Get("/pools/{pool}/awards/{index}", h.award)
			q.Get("/events", h.events)
			q.Get("/events/stream", h.eventStream)
		})
		v1.Route("/tx", func(tx chi.Router) {
			if cfg.RateLimiter != nil {
				tx.Use(cfg.RateLimiter.Middleware(LimitTx))
			}
			if cfg.Authenticator != nil {
				tx.Use(cfg.Authenticator.Middleware(middleware.ScopeWrite))
			}
			tx.Post("/mint", h.mint)
			tx.Post("/burn", h.burn)
			tx.Post("/transfer", h.transfer)
			tx.Post("/transferFrom", h.transferFrom)
			tx.Post("/approve", h.approve)
			tx.Post("/lock", h.lock)
			tx.Post("/touch", h.touch)
		})
		v1.Route("/admin", func(admin chi.Router) {
			if cfg.RateLimiter != nil {
				admin.Use(cfg.RateLimiter.Middleware(LimitTx))
			}
			if cfg.Authenticator != nil {
				admin.Use(cfg.Authenticator.Middleware(middleware.ScopeAdmin))
			}
			admin.Post("/awards", h.announce)
			admin.Post("/dailyAward", h.setDailyAward)
			admin.Post("/blockAwards", h.updateBlockAwards)
		})
	})

	return r, nil
}

type handlers struct {
	ledger  Ledger
	logger  *slog.Logger
	origins []string
}
