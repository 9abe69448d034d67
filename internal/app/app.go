// Package app wires the five core components (HealthState, Prober,
// PoolManager, RateLimiter, Dispatcher) and the Supervisor behind the HTTP
// boundary, the same New/Start/Stop shape as the teacher's Application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/swhesong/deeplx-gateway/internal/adapter/dispatcher"
	"github.com/swhesong/deeplx-gateway/internal/adapter/health"
	"github.com/swhesong/deeplx-gateway/internal/adapter/pool"
	"github.com/swhesong/deeplx-gateway/internal/adapter/ratelimit"
	"github.com/swhesong/deeplx-gateway/internal/adapter/supervisor"
	"github.com/swhesong/deeplx-gateway/internal/app/handlers"
	"github.com/swhesong/deeplx-gateway/internal/app/middleware"
	"github.com/swhesong/deeplx-gateway/internal/config"
	"github.com/swhesong/deeplx-gateway/internal/core/ports"
	"github.com/swhesong/deeplx-gateway/internal/logger"
	"github.com/swhesong/deeplx-gateway/internal/util"
)

const shutdownTimeout = 10 * time.Second
const rateLimitWindow = time.Minute

// Application owns every wired component and the HTTP server built on top
// of them.
type Application struct {
	config     *config.Config
	server     *http.Server
	logger     *slog.Logger
	styled     *logger.StyledLogger
	health     *health.State
	prober     ports.Prober
	pool       ports.PoolManager
	limiter    ports.RateLimiter
	dispatcher ports.Dispatcher
	supervisor *supervisor.Supervisor
	startTime  time.Time
	errCh      chan error
}

// New builds an Application from a loaded Config, wiring each component
// with the values spec.md §6 documents.
func New(cfg *config.Config, log *slog.Logger, styled *logger.StyledLogger) (*Application, error) {
	startTime := time.Now()

	healthState := health.NewState()
	poolManager := pool.NewManager(cfg.TranslationAPIURLs, healthState, styled)
	prober := health.NewProber(healthState, styled, cfg.CheckTimeout, cfg.MaxWorkers, cfg.TestText, cfg.TestSourceLang, cfg.TestTargetLang)
	limiter := ratelimit.NewLimiter(cfg.MaxRequestsPerMinute, rateLimitWindow)
	extractor := util.NewDataExtractor("$.data")
	disp := dispatcher.New(poolManager, healthState, extractor, styled, cfg.Timeout, cfg.MaxTextLength)
	sup := supervisor.New(prober, poolManager, styled, cfg.TranslationAPIURLs, cfg.InitialCheckDelay, cfg.CheckInterval, cfg.AutoUpdateURLs, cfg.MinAvailableURLs)

	h := handlers.New(disp, healthState, poolManager, prober, cfg, styled, startTime)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: buildRouter(h, limiter, styled),
	}

	return &Application{
		config:     cfg,
		server:     server,
		logger:     log,
		styled:     styled,
		health:     healthState,
		prober:     prober,
		pool:       poolManager,
		limiter:    limiter,
		dispatcher: disp,
		supervisor: sup,
		startTime:  startTime,
		errCh:      make(chan error, 1),
	}, nil
}

// buildRouter wires the HTTP surface described in §6. RequestID/Logging/CORS
// apply to every route, matching the original's global FastAPI middleware;
// rate limiting applies only to the translation endpoint, matching the
// original calling rate_limiter.acquire only inside chat_completions.
func buildRouter(h *handlers.Handlers, limiter ports.RateLimiter, log *logger.StyledLogger) http.Handler {
	mux := http.NewServeMux()

	rateLimited := middleware.RateLimit(limiter, log)(http.HandlerFunc(h.ChatCompletions))
	mux.Handle("/v1/chat/completions", rateLimited)
	mux.HandleFunc("/v1/check-and-export-urls", h.CheckAndExportURLs)
	mux.HandleFunc("/v1/urls/status", h.URLsStatus)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/v1/models", h.Models)
	mux.HandleFunc("/", h.Root)

	var top http.Handler = mux
	top = middleware.CORS(top)
	top = middleware.Logging(log)(top)
	top = middleware.RequestID(top)
	return top
}

// Start launches the background supervisor loop and the HTTP server. Both
// are bound to ctx: cancelling it stops the supervisor; the server itself
// is stopped explicitly via Stop.
func (a *Application) Start(ctx context.Context) error {
	go a.supervisor.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.styled.Error("HTTP server error", "error", err)
			a.errCh <- err
		}
	}()

	go func() {
		select {
		case err := <-a.errCh:
			a.styled.Error("server startup error", "error", err)
		case <-ctx.Done():
		}
	}()

	a.styled.Info("gateway started", "bind", a.server.Addr, "upstreams", len(a.config.TranslationAPIURLs))
	return nil
}

// Stop gracefully shuts down the HTTP server and releases the shared probe
// client, bounded by shutdownTimeout.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	if err := a.prober.Close(); err != nil {
		a.styled.Warn("error closing prober", "error", err)
	}

	return nil
}
