package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/rwa-leads/internal/infra/http/handlers"
	"github.com/xavierca1/rwa-leads/internal/infra/http/middleware"
)

type Options struct {
	CORSOrigins    []string
	SteppedEnabled bool
	SingleEnabled  bool
	RateLimiter    *middleware.RateLimiter
}

func New(opts Options, leads *handlers.LeadHandler, admin *handlers.AdminHandler, health *handlers.HealthHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	limited := func(h http.HandlerFunc) http.Handler {
		if opts.RateLimiter == nil {
			return h
		}
		return opts.RateLimiter.Handler(h)
	}

	if opts.SteppedEnabled {
		r.Method(http.MethodPost, "/submit_step", limited(leads.SubmitStep))
	}
	if opts.SingleEnabled {
		r.Method(http.MethodPost, "/submit", limited(leads.Submit))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Method(http.MethodPost, "/login", limited(admin.Login))
		r.Post("/logout", admin.Logout)
		r.Get("/logout", admin.Logout)

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdmin)
			r.Get("/leads", admin.Leads)
			r.Delete("/leads/{id}", admin.DeleteLead)
			r.Post("/leads/{id}/delete", admin.DeleteLead)
			r.Get("/export.csv", admin.ExportCSV)
			r.Get("/export.xlsx", admin.ExportXLSX)
			r.Post("/fix-db", admin.FixDB)
		})
	})

	return r
}
