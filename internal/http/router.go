package http

import (
	"net/http"

	"nudge/internal/auth"
	"nudge/internal/config"
	"nudge/internal/http/handler"
	mw "nudge/internal/http/middleware"
	"nudge/internal/notiflog"
	"nudge/internal/prefs"
	"nudge/internal/reminder"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, intake *reminder.Intake, feed *notiflog.Store, prefStore *prefs.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	wh := &handler.WebhookHandler{Intake: intake, Token: cfg.WebhookToken}
	r.Post("/webhooks/task-event", wh.TaskEvent)

	nh := &handler.NotificationsHandler{Feed: feed}
	ph := &handler.PreferencesHandler{Prefs: prefStore}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/notifications", nh.List)
		r.Get("/users/preferences", ph.Get)
		r.Put("/users/preferences", ph.Put)
	})

	return r
}
