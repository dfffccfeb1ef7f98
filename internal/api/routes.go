package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignite/listguard/internal/auth"
)

// RouteOptions carries the pieces of the router that are not handlers.
type RouteOptions struct {
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
	Health         *HealthChecker
}

// SetupRoutes configures all routes. Everything under /api requires a
// bearer token; the unsubscribe and verify links, /health and /metrics do not.
func SetupRoutes(h *Handlers, authManager *auth.Manager, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.NotFound(HandleNotFound)

	if opts.Health != nil {
		r.Get("/health", opts.Health.HandleHealth)
	}
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/unsubscribe/{token}", h.Unsubscribe)
	r.Get("/verify/{token}", h.Verify)

	r.Route("/api", func(r chi.Router) {
		r.Use(authManager.RequireAuth)
		r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))

		r.Get("/dashboard", h.Dashboard)

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", h.ListLists)
			r.Post("/", h.CreateList)
			r.Route("/{listID}", func(r chi.Router) {
				r.Get("/", h.GetList)
				r.Delete("/", h.DeleteList)
				r.Put("/policy", h.UpdateListPolicy)
				r.Post("/duplicate", h.DuplicateList)
				r.Get("/analytics", h.ListAnalytics)

				r.Get("/subscribers", h.ListSubscribers)
				r.Post("/subscribers", h.AdmitSubscriber)
				r.Post("/import", h.ImportSubscribers)
				r.Get("/export/{format}", h.ExportSubscribers)
				r.Post("/export/{format}/archive", h.ArchiveExport)
			})
		})

		r.Route("/subscribers", func(r chi.Router) {
			r.Post("/bulk-delete", h.BulkDeleteSubscribers)
			r.Get("/{id}", h.GetSubscriber)
			r.Delete("/{id}", h.DeleteSubscriber)
			r.Put("/{id}/status", h.UpdateSubscriberStatus)
			r.Post("/{id}/tags", h.AddSubscriberTags)
		})
		r.Delete("/subscriber-tags", h.RemoveSubscriberTag)

		r.Route("/blacklist", func(r chi.Router) {
			r.Get("/", h.ListBlacklist)
			r.Post("/", h.AddBlacklist)
			r.Delete("/{id}", h.RemoveBlacklist)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Get("/{id}", h.GetTemplate)
			r.Put("/{id}", h.UpdateTemplate)
			r.Delete("/{id}", h.DeleteTemplate)
			r.Post("/{id}/preview", h.PreviewTemplate)
			r.Post("/{id}/send-test", h.SendTestTemplate)
		})

		r.Get("/tokens", h.ListTokens)
		r.Post("/tokens", h.IssueToken)
		r.Delete("/tokens/{id}", h.RevokeToken)

		r.Post("/organizations", h.CreateOrganization)
		r.Get("/organizations/{orgID}/members", h.ListMembers)
		r.Post("/organizations/{orgID}/invitations", h.Invite)
		r.Post("/invitations/{token}/accept", h.AcceptInvitation)
	})

	return r
}
