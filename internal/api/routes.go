package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/verticalhire/verticalhire/internal/pkg/httputil"
)

// SetupRoutes configures the router and middleware stack.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.CreateCampaign)
			r.Get("/{id}", h.GetCampaign)
			r.Post("/{id}/dispatch", h.DispatchCampaign)
		})

		r.Route("/interviews", func(r chi.Router) {
			r.Post("/", h.CreateInterview)
			r.Get("/{id}", h.GetInterview)
			r.Post("/{id}/transitions", h.TransitionInterview)
			r.Post("/{id}/reschedule", h.RescheduleInterview)
			r.Post("/{id}/pipeline", h.TriggerPipeline)
		})

		r.Route("/companies/{companyID}/suppressions", func(r chi.Router) {
			r.Get("/", h.ListSuppressions)
			r.Post("/", h.AddSuppression)
			r.Delete("/", h.RemoveSuppression)
		})

		r.Post("/webhooks/email-events", h.EmailEventWebhook)
	})

	return r
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}
