package controllers

import (
	"net/http"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/api/responses"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/config"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db"
	pkgerrors "github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/errors"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NetImob-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NetImob-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
