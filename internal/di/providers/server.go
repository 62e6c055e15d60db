package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/scentlog/scentlog-server/internal/api"
	"github.com/scentlog/scentlog-server/internal/config"
	"github.com/scentlog/scentlog-server/internal/logger"
	"github.com/scentlog/scentlog-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	collection := do.MustInvoke[*service.CollectionService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)

	handler := api.NewServer(collection, indexHandle.Index, api.Options{
		Metrics:        metricsHandle.Metrics,
		Limiter:        limiter.KeyedRateLimiter,
		AllowedOrigins: cfg.Server.CORSOrigins,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
