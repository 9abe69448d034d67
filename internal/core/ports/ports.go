// Package ports declares the interfaces the HTTP boundary and supervisor
// depend on, decoupling wiring from the concrete adapters.
package ports

import (
	"context"

	"github.com/swhesong/deeplx-gateway/internal/core/domain"
)

// HealthStore is the component-A contract: per-upstream statistics, written
// by the prober and the dispatcher and read by them and the pool manager.
type HealthStore interface {
	Update(url string, success bool, latencySeconds *float64, responseLength *int, errMsg string)
	Get(url string) *domain.HealthRecord
	Snapshot() map[string]*domain.HealthRecord
}

// ProbeResult is returned for each URL probed, ordered per §4.B: available
// first ascending by latency, then unavailable in any stable order.
type ProbeResult struct {
	URL                 string
	Error               string
	LatencySeconds      *float64
	ResponseLengthBytes *int
	TimestampEpoch      float64
	Available           bool
}

// Prober is the component-B contract: single- and batch-URL health probing.
type Prober interface {
	Probe(ctx context.Context, url string) ProbeResult
	ProbeMany(ctx context.Context, urls []string) ([]ProbeResult, error)
	Close() error
}

// PoolManager is the component-C contract: the active URL set, scoring and
// selection.
type PoolManager interface {
	Next() (string, error)
	ReplaceURLs(urls []string)
	URLs() []string
	Len() int
	RequestCounts() map[string]int64
}

// RateLimitResult carries the admission decision plus the fields a
// rate-limit middleware renders into X-RateLimit-* response headers.
type RateLimitResult struct {
	Reason    string
	Allowed   bool
	Limit     int
	Remaining int
}

// RateLimiter is the component-D contract: dual sliding-window admission.
type RateLimiter interface {
	Allow(clientKey string) RateLimitResult
}

// Dispatcher is the component-E contract: end-to-end translation.
type Dispatcher interface {
	Translate(ctx context.Context, text, sourceLang, targetLang, requestID string) (string, error)
	ValidateText(text string) error
}
