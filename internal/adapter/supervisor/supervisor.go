// Package supervisor implements component F: the periodic adaptive-interval
// probe loop. Cancellation follows the teacher's scheduler idiom of a
// select over ctx.Done() at every suspension point, simplified to the
// single long-lived loop this design calls for (no per-endpoint heap is
// needed since every tick probes the whole configured URL list).
package supervisor

import (
	"context"
	"time"

	"github.com/swhesong/deeplx-gateway/internal/core/ports"
	"github.com/swhesong/deeplx-gateway/internal/logger"
)

const maxConsecutiveLoopFailures = 5

// Supervisor drives the periodic background probe sweep described in
// §4.F. It holds no state beyond its own failure counter; the URL list,
// Prober and PoolManager are supplied at construction.
type Supervisor struct {
	prober           ports.Prober
	pool             ports.PoolManager
	logger           *logger.StyledLogger
	urls             []string
	initialDelay     time.Duration
	checkInterval    time.Duration
	autoUpdateURLs   bool
	minAvailableURLs int
}

func New(prober ports.Prober, pool ports.PoolManager, log *logger.StyledLogger, urls []string, initialDelay, checkInterval time.Duration, autoUpdateURLs bool, minAvailableURLs int) *Supervisor {
	return &Supervisor{
		prober:           prober,
		pool:             pool,
		logger:           log,
		urls:             urls,
		initialDelay:     initialDelay,
		checkInterval:    checkInterval,
		autoUpdateURLs:   autoUpdateURLs,
		minAvailableURLs: minAvailableURLs,
	}
}

// Run blocks until ctx is cancelled, driving the Idle -> Probing ->
// UpdatingPool -> Sleeping -> Idle state machine from §4.F. Cancellation
// may occur in any state and terminates at the next suspension point.
func (s *Supervisor) Run(ctx context.Context) {
	if !sleep(ctx, s.initialDelay) {
		return
	}

	consecutiveFailures := 0

	for {
		if ctx.Err() != nil {
			return
		}

		results, err := s.prober.ProbeMany(ctx, s.urls)
		if err != nil {
			s.logger.Error("supervisor probe sweep failed", "error", err)
			consecutiveFailures++

			var wait time.Duration
			if consecutiveFailures >= maxConsecutiveLoopFailures {
				wait = 2 * s.checkInterval
				consecutiveFailures = 0
			} else {
				wait = 60 * time.Second
			}
			if !sleep(ctx, wait) {
				return
			}
			continue
		}
		consecutiveFailures = 0

		available := availableURLs(results)
		interval := s.nextInterval(len(available), len(s.urls))

		if s.autoUpdateURLs && len(available) >= s.minAvailableURLs {
			s.pool.ReplaceURLs(available)
		}

		if !sleep(ctx, interval) {
			return
		}
	}
}

// nextInterval implements §4.F step 2's dynamic-interval rule: a shorter
// interval when fewer than half the configured upstreams are available.
func (s *Supervisor) nextInterval(availableCount, total int) time.Duration {
	if total > 0 && availableCount*2 < total {
		fast := s.checkInterval / 2
		if fast > 120*time.Second {
			fast = 120 * time.Second
		}
		return fast
	}
	return s.checkInterval
}

func availableURLs(results []ports.ProbeResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.Available {
			out = append(out, r.URL)
		}
	}
	return out
}

// sleep waits for d or ctx cancellation, returning false if cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
