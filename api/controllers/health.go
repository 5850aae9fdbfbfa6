package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/martinquesada/tienda-backend/api/responses"
	"github.com/martinquesada/tienda-backend/pkg/config"
	pkgerrors "github.com/martinquesada/tienda-backend/pkg/errors"
	"github.com/martinquesada/tienda-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tienda-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing dependency and reports per-component status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, storageP pinger) http.HandlerFunc {
	components := []struct {
		name string
		ping pinger
	}{
		{name: "db", ping: dbP},
		{name: "redis", ping: redisP},
		{name: "storage", ping: storageP},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tienda-Env", cfg.App.Env)

		statuses := map[string]string{}
		var failed []string
		for _, component := range components {
			if component.ping == nil {
				statuses[component.name] = "skipped"
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := component.ping.Ping(ctx)
			cancel()
			if err != nil {
				statuses[component.name] = "down"
				failed = append(failed, component.name)
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "component", component.name), "readiness check failed", err)
				}
				continue
			}
			statuses[component.name] = "up"
		}

		if len(failed) > 0 {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"components": statuses})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"status":     "ready",
			"components": statuses,
		})
	}
}
