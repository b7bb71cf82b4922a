package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Competitions  *CompetitionHandler
	Documents     *DocumentHandler
	Notifications *NotificationHandler
	Committee     *CommitteeHandler
	Stats         *StatsHandler
	// Briefing serves POST /api/generate-briefing.
	Briefing    http.Handler
	Sessions    SessionValidator
	CORSOrigins []string
	Logger      *slog.Logger
	Middleware  []func(http.Handler) http.Handler
}

// NewRouter mounts every API endpoint under /api. Handlers left nil are not
// routed.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	resp := newResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Session-Token", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		resp.writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{Message: msgNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		resp.writeJSON(req.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: localizedStatusMessage(http.StatusMethodNotAllowed)})
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.Auth != nil {
			api.Post("/login", cfg.Auth.Login)
			api.Post("/logout", cfg.Auth.Logout)
			api.Post("/register", cfg.Auth.Register)
		}
		if cfg.Briefing != nil {
			api.Handle("/generate-briefing", cfg.Briefing)
		}

		if cfg.Sessions == nil {
			return
		}

		api.Group(func(session chi.Router) {
			session.Use(RequireSession(cfg.Sessions, logger))
			mountSessionRoutes(session, cfg)

			session.Group(func(admin chi.Router) {
				admin.Use(RequireAdmin(logger))
				mountAdminRoutes(admin, cfg)
			})
		})
	})

	return r
}

func mountSessionRoutes(r chi.Router, cfg RouterConfig) {
	if cfg.Auth != nil {
		r.Get("/me", cfg.Auth.Me)
	}
	if cfg.Users != nil {
		r.Put("/me/profile", cfg.Users.UpdateProfile)
		r.Put("/me/preferences", cfg.Users.UpdatePreferences)
		r.Get("/me/dashboard", cfg.Users.Dashboard)
	}
	if cfg.Competitions != nil {
		r.Get("/competitions", cfg.Competitions.List)
		r.Get("/competitions/{id}", cfg.Competitions.Get)
		r.Post("/competitions/{id}/rsvp", cfg.Competitions.SubmitRSVP)
		r.Get("/competitions/{id}/calendar", cfg.Competitions.CalendarLink)
		r.Get("/competitions/{id}/calendar.png", cfg.Competitions.CalendarQRCode)
		r.Get("/competitions/{id}/briefing", cfg.Competitions.Briefing)
	}
	if cfg.Documents != nil {
		r.Get("/competitions/{id}/documents/{docID}", cfg.Documents.Download)
	}
	if cfg.Notifications != nil {
		r.Get("/notifications", cfg.Notifications.List)
		r.Post("/notifications/read-all", cfg.Notifications.MarkAllRead)
		r.Post("/notifications/{id}/read", cfg.Notifications.MarkRead)
		r.Get("/notifications/ws", cfg.Notifications.Stream)
	}
	if cfg.Committee != nil {
		r.Get("/committee", cfg.Committee.Get)
	}
}

func mountAdminRoutes(r chi.Router, cfg RouterConfig) {
	if cfg.Users != nil {
		r.Get("/users", cfg.Users.List)
		r.Get("/users/export.csv", cfg.Users.ExportCSV)
		r.Post("/users/{id}/approve", cfg.Users.Approve)
		r.Put("/users/{id}/role", cfg.Users.ChangeRole)
		r.Delete("/users/{id}", cfg.Users.Delete)
	}
	if cfg.Competitions != nil {
		r.Post("/competitions", cfg.Competitions.Create)
		r.Get("/competitions/export.csv", cfg.Competitions.ExportCSV)
		r.Put("/competitions/{id}", cfg.Competitions.Update)
		r.Delete("/competitions/{id}", cfg.Competitions.Delete)
		r.Post("/competitions/{id}/payment", cfg.Competitions.TogglePayment)
	}
	if cfg.Documents != nil {
		r.Post("/competitions/{id}/documents", cfg.Documents.Upload)
		r.Delete("/competitions/{id}/documents/{docID}", cfg.Documents.Delete)
	}
	if cfg.Committee != nil {
		r.Put("/committee/members/{id}", cfg.Committee.UpdateMember)
		r.Put("/committee/config", cfg.Committee.UpdateConfig)
	}
	if cfg.Stats != nil {
		r.Get("/stats", cfg.Stats.Attendance)
		r.Get("/stats/export.csv", cfg.Stats.ExportCSV)
	}
}
