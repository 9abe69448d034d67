package handlers

import (
	"net/http"
	"time"

	"github.com/swhesong/deeplx-gateway/internal/core/domain"
	"github.com/swhesong/deeplx-gateway/internal/version"
)

// Health implements GET /health: healthy/degraded/unhealthy based on the
// fraction of configured URLs that have succeeded in the last 300s.
//
// recentlyFailed counts every record with ConsecutiveFailures > 0
// regardless of current availability, as the original does (Open
// Question c). A success resets ConsecutiveFailures and a failure clears
// Available, so no record is counted as both available and recently failed.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Health.Snapshot()
	now := time.Now()
	nowEpoch := domain.NowEpoch(now)

	availableURLs := 0
	recentlyFailed := 0
	var totalRequests int64
	for _, count := range h.Pool.RequestCounts() {
		totalRequests += count
	}

	for _, rec := range snapshot {
		if rec.Available && rec.RecentlySucceeded(nowEpoch, 300) {
			availableURLs++
		}
		if rec.ConsecutiveFailures > 0 {
			recentlyFailed++
		}
	}

	totalConfigured := len(h.ConfiguredURLs)

	status := "healthy"
	statusCode := http.StatusOK
	switch {
	case availableURLs == 0:
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case totalConfigured > 0 && float64(availableURLs) < float64(totalConfigured)*0.5:
		status = "degraded"
	}

	availabilityPct := 0.0
	if totalConfigured > 0 {
		availabilityPct = round1(float64(availableURLs) / float64(totalConfigured) * 100)
	}

	var avgResponseTime interface{}
	var latencies []float64
	for _, rec := range snapshot {
		if rec.LatencySeconds != nil {
			latencies = append(latencies, *rec.LatencySeconds)
		}
	}
	if len(latencies) > 0 {
		sum := 0.0
		for _, l := range latencies {
			sum += l
		}
		avgResponseTime = round3(sum / float64(len(latencies)))
	}

	body := map[string]interface{}{
		"status":    status,
		"timestamp": now.Format(time.RFC3339),
		"service_info": map[string]interface{}{
			"version":                    version.Version,
			"uptime_seconds":             int(now.Sub(h.StartTime).Seconds()),
			"total_requests_processed":   totalRequests,
		},
		"endpoints": map[string]interface{}{
			"total_configured":        totalConfigured,
			"currently_available":     availableURLs,
			"recently_failed":         recentlyFailed,
			"availability_percentage": availabilityPct,
		},
		"performance": map[string]interface{}{
			"avg_response_time": avgResponseTime,
			"rate_limit_status": "normal",
		},
	}

	if h.Config.Debug {
		body["detailed_status"] = snapshot
	}

	writeJSON(w, statusCode, body)
}
