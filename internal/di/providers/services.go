package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/scentlog/scentlog-server/internal/config"
	"github.com/scentlog/scentlog-server/internal/logger"
	"github.com/scentlog/scentlog-server/internal/metrics"
	"github.com/scentlog/scentlog-server/internal/ratelimit"
	"github.com/scentlog/scentlog-server/internal/service"
	"github.com/scentlog/scentlog-server/internal/validation"
)

// MetricsHandle carries the Prometheus collectors. Metrics is nil when
// metrics are disabled.
type MetricsHandle struct {
	*metrics.Metrics
}

// Recorder returns the recorder handed to services.
func (h *MetricsHandle) Recorder() metrics.Recorder {
	if h.Metrics == nil {
		return metrics.Noop{}
	}
	return h.Metrics
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*MetricsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Metrics.Enabled {
		log.Info("Metrics disabled by configuration")
		return &MetricsHandle{}, nil
	}

	m, err := metrics.New()
	if err != nil {
		return nil, err
	}
	return &MetricsHandle{Metrics: m}, nil
}

// ProvideValidator provides the input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// RateLimiterHandle stops the limiter's cleanup goroutine on shutdown.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-client limiter for mutating routes.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}, nil
}

// ProvideCollectionService provides the collection service and loads the
// collection, which seeds an empty database and fills the search index.
func ProvideCollectionService(i do.Injector) (*service.CollectionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	metricsHandle := do.MustInvoke[*MetricsHandle](i)
	v := do.MustInvoke[*validation.Validator](i)

	svc := service.NewCollectionService(
		storeHandle.Store,
		indexHandle.Index,
		metricsHandle.Recorder(),
		v,
		log,
		service.Options{
			LowSampleThreshold: cfg.Collection.LowSampleThreshold,
			PresenceThreshold:  cfg.Collection.PresenceThreshold,
		},
	)

	if err := svc.Load(context.Background()); err != nil {
		return nil, err
	}

	n, err := svc.PerfumeCount(context.Background())
	if err != nil {
		return nil, err
	}
	docCount, _ := indexHandle.DocumentCount() //nolint:errcheck // Informational only
	log.Info("Collection loaded", "perfumes", n, "indexed", docCount)

	return svc, nil
}
