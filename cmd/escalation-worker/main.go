package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/cron"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/escalation"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/notify"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/reputation"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/routing"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/config"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/metrics"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/migrate"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/pubsub"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/redis"
)

const lockKeyFormat = "ni:escalation-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "escalation-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "escalation-worker"

	logg = logger.New(logger.Options{
		ServiceName: "escalation-worker",
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

	reputationClient, err := reputation.NewClient(cfg.Reputation, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reputation client", err)
		os.Exit(1)
	}

	policy := routing.PolicyFromConfig(cfg.Routing)
	routingRepo := routing.NewRepository(dbClient.DB())
	router, err := routing.NewRouter(routing.RouterParams{
		Logger:   logg,
		DB:       dbClient,
		Repo:     routingRepo,
		Selector: routing.NewSelector(nil),
		Notifier: notifyService,
		Policy:   policy,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lead router", err)
		os.Exit(1)
	}

	escalationJob, err := escalation.NewJob(escalation.JobParams{
		Logger:     logg,
		DB:         dbClient,
		Router:     router,
		History:    routingRepo,
		Notifier:   notifyService,
		Reputation: reputationClient,
		Policy:     policy,
		Metrics:    metrics.NewEscalationMetrics(prometheus.DefaultRegisterer),
		BatchSize:  cfg.Routing.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escalation job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(escalationJob)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Routing.WorkerInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting escalation worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "escalation worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "escalation worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
