// Package handlers implements the HTTP surface described in spec.md §6:
// translation, the probe-sweep/export endpoint, URL status, health and the
// two static informational endpoints. Response shapes follow the original's
// FastAPI JSON bodies field-for-field.
package handlers

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/swhesong/deeplx-gateway/internal/config"
	"github.com/swhesong/deeplx-gateway/internal/core/domain"
	"github.com/swhesong/deeplx-gateway/internal/core/ports"
	"github.com/swhesong/deeplx-gateway/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handlers holds every dependency the HTTP surface needs: the dispatcher,
// health store, pool manager and prober behind their port interfaces, plus the configured URL list
// (distinct from the pool's possibly-narrowed URLs()) and process start
// time for uptime reporting (Open Question d).
type Handlers struct {
	Dispatcher     ports.Dispatcher
	Health         ports.HealthStore
	Pool           ports.PoolManager
	Prober         ports.Prober
	Config         *config.Config
	Logger         *logger.StyledLogger
	ConfiguredURLs []string
	StartTime      time.Time
}

func New(dispatcher ports.Dispatcher, health ports.HealthStore, pool ports.PoolManager, prober ports.Prober, cfg *config.Config, log *logger.StyledLogger, startTime time.Time) *Handlers {
	urls := make([]string, len(cfg.TranslationAPIURLs))
	copy(urls, cfg.TranslationAPIURLs)
	return &Handlers{
		Dispatcher:     dispatcher,
		Health:         health,
		Pool:           pool,
		Prober:         prober,
		Config:         cfg,
		Logger:         log,
		ConfiguredURLs: urls,
		StartTime:      startTime,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders an error the way FastAPI's HTTPException does: a
// {"detail": "..."} body at the error's status code, defaulting to 500 for
// anything not already a domain.APIError.
func writeError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*domain.APIError); ok {
		writeJSON(w, apiErr.StatusCode, map[string]string{"detail": apiErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error"})
}
