// Package httpserver exposes the NutriKeeper JSON API over HTTP.
package httpserver

import (
	"net/http"
	"time"

	"github.com/and161185/nutrikeeper/internal/metrics"
	"github.com/and161185/nutrikeeper/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Services are the application services behind the API.
type Services struct {
	Auth       service.AuthService
	Drafts     service.DraftService
	Meals      service.MealService
	Water      service.WaterService
	Weight     service.WeightService
	Goals      service.GoalService
	Onboarding service.OnboardingService
	Dashboard  service.DashboardService
}

// Options tune transport limits.
type Options struct {
	MaxUploadBytes int64          // cap for multipart draft uploads
	CORSOrigins    []string       // allowed origins, empty means none
	Location       *time.Location // zone of ?date= parameters
}

// Server wires services into HTTP handlers.
type Server struct {
	svc  Services
	opts Options
	log  *zap.Logger
}

// New constructs a Server.
func New(svc Services, opts Options, log *zap.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Server{svc: svc, opts: opts, log: log}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Instrument)
	r.Use(Logging(s.log))
	r.Use(Recover(s.log))
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser(s.svc.Auth))

			r.Post("/onboarding/submit", s.submitOnboarding)
			r.Post("/goals", s.setGoal)
			r.Get("/goals/current", s.currentGoal)
			r.Post("/weight", s.recordWeight)

			r.Post("/meals", s.logMeal)
			r.Delete("/meals/{id}", s.deleteMeal)

			r.Post("/drafts", s.createDraft)
			r.Get("/drafts/{id}", s.getDraft)
			r.Post("/drafts/{id}/confirm", s.confirmDraft)
			r.Delete("/drafts/{id}", s.discardDraft)

			r.Post("/water", s.addWater)
			r.Delete("/water/{id}", s.deleteWater)

			r.Get("/dashboard", s.dashboard)
		})
	})
	return r
}
