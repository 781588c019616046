package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/api/routes"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/leads"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/notify"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/routing"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/config"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/migrate"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/pubsub"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var notificationPublisher notify.Publisher
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		notificationPublisher = notify.NewGCPPublisher(pubsubClient.NotificationPublisher())
	} else {
		logg.Warn(context.Background(), "pubsub project not configured, notifications persist without events")
	}

	notifyService, err := notify.NewService(notify.ServiceParams{
		Logger:    logg,
		Repo:      notify.NewRepository(dbClient.DB()),
		Publisher: notificationPublisher,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	routingRepo := routing.NewRepository(dbClient.DB())
	router, err := routing.NewRouter(routing.RouterParams{
		Logger:   logg,
		DB:       dbClient,
		Repo:     routingRepo,
		Selector: routing.NewSelector(nil),
		Notifier: notifyService,
		Policy:   routing.PolicyFromConfig(cfg.Routing),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lead router", err)
		os.Exit(1)
	}

	leadsService, err := leads.NewService(leads.ServiceParams{
		Logger:      logg,
		Repo:        leads.NewRepository(dbClient.DB()),
		Assignments: routingRepo,
		Router:      router,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create leads service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, leadsService, notifyService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
