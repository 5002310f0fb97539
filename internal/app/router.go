package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/nusalend/nusalend/internal/auth"
	"github.com/nusalend/nusalend/internal/customers"
	"github.com/nusalend/nusalend/internal/loan"
	"github.com/nusalend/nusalend/internal/masterdata/plafonds"
	"github.com/nusalend/nusalend/internal/masterdata/products"
	"github.com/nusalend/nusalend/internal/observability"
	"github.com/nusalend/nusalend/internal/rbac"
	"github.com/nusalend/nusalend/internal/shared"
	"github.com/nusalend/nusalend/internal/users"
	"github.com/nusalend/nusalend/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler     *auth.Handler
	LoanHandler     *loan.Handler
	RBACHandler     *rbac.Handler
	UsersHandler    *users.Handler
	CustomerHandler *customers.Handler
	PlafondHandler  *plafonds.Handler
	ProductHandler  *products.Handler
	JobHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Credential stuffing protection: login gets a tighter per-IP budget
		// than the global limiter.
		r.With(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
			Route("/auth", params.AuthHandler.MountRoutes)

		r.Route("/loan", params.LoanHandler.MountRoutes)
		if params.RBACHandler != nil {
			r.Route("/permission", params.RBACHandler.MountPermissionRoutes)
			r.Route("/role", params.RBACHandler.MountRoleRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/user", params.UsersHandler.MountRoutes)
		}
		if params.CustomerHandler != nil {
			r.Route("/customer-detail", params.CustomerHandler.MountRoutes)
		}
		if params.PlafondHandler != nil {
			r.Route("/plafond", params.PlafondHandler.MountRoutes)
		}
		if params.ProductHandler != nil {
			r.Route("/product", params.ProductHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
