package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/api/controllers"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/api/middleware"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/leads"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/notify"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/config"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	leadsService leads.Service,
	notifyService notify.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Post("/leads", controllers.RegisterLead(leadsService, logg))
	})

	r.Route("/api/agent", func(r chi.Router) {
		r.Post("/assignments/{assignmentId}/accept", controllers.AcceptAssignment(leadsService, logg))
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListAgentNotifications(notifyService, logg))
			r.Post("/{notificationId}/read", controllers.MarkAgentNotificationRead(notifyService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/leads/unrouted", controllers.ListUnroutedLeads(leadsService, logg))
	})

	return r
}
