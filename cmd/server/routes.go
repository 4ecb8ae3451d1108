package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accounthandler "pesa/internal/account/handler"
	assethandler "pesa/internal/asset/handler"
	authhandler "pesa/internal/auth/handler"
	ledgerhandler "pesa/internal/ledger/handler"
	"pesa/internal/platform/middleware"
	requesthandler "pesa/internal/request/handler"
	"pesa/pkg/domain"
	"pesa/pkg/platform/httputil"
)

type routerDeps struct {
	logger   *slog.Logger
	tokens   middleware.TokenValidator
	accounts *accounthandler.Handler
	auth     *authhandler.Handler
	ledger   *ledgerhandler.Handler
	requests *requesthandler.Handler
	assets   *assethandler.Handler
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public surface.
	r.Group(func(r chi.Router) {
		deps.auth.RegisterPublicRoutes(r)
		deps.accounts.RegisterPublicRoutes(r)
	})

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.tokens, deps.logger))
		deps.accounts.RegisterRoutes(r)
		deps.ledger.RegisterRoutes(r)
		deps.requests.RegisterRoutes(r)
		deps.assets.RegisterRoutes(r)

		// Approver-only surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleApprover))
			deps.accounts.RegisterApproverRoutes(r)
			deps.ledger.RegisterApproverRoutes(r)
			deps.assets.RegisterApproverRoutes(r)
		})
	})

	return r
}
