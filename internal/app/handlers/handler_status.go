package handlers

import (
	"net/http"
	"time"

	"github.com/swhesong/deeplx-gateway/internal/core/domain"
)

type enhancedURLStatus struct {
	Available           bool     `json:"available"`
	LastCheckEpoch      float64  `json:"last_check_epoch"`
	LastSuccessEpoch    *float64 `json:"last_success_epoch,omitempty"`
	Latency             *float64 `json:"latency,omitempty"`
	ResponseLength      *int     `json:"response_length,omitempty"`
	LastError           string   `json:"last_error,omitempty"`
	ConsecutiveFailures int      `json:"consecutive_failures"`
	TotalChecks         int      `json:"total_checks"`
	SuccessRate         float64  `json:"success_rate"`
	SecondsSinceCheck   *int     `json:"seconds_since_check,omitempty"`
	SecondsSinceSuccess *int     `json:"seconds_since_success,omitempty"`
	HealthScore         int      `json:"health_score"`
}

// URLsStatus implements GET /v1/urls/status: every tracked URL's raw
// HealthRecord plus the computed fields (seconds-since, health score) the
// original adds on top of url_rotator.url_status.get_all_status().
func (h *Handlers) URLsStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Health.Snapshot()
	now := time.Now()
	nowEpoch := domain.NowEpoch(now)

	enhanced := make(map[string]enhancedURLStatus, len(snapshot))
	availableCount := 0
	requestDistribution := make(map[string]int)

	for url, rec := range snapshot {
		status := enhancedURLStatus{
			Available:           rec.Available,
			LastCheckEpoch:      rec.LastCheckEpoch,
			LastSuccessEpoch:    rec.LastSuccessEpoch,
			Latency:             rec.LatencySeconds,
			ResponseLength:      rec.ResponseLengthBytes,
			LastError:           rec.LastError,
			ConsecutiveFailures: rec.ConsecutiveFailures,
			TotalChecks:         rec.TotalChecks,
			SuccessRate:         rec.SuccessRate,
			HealthScore:         rec.HealthScore(),
		}
		if rec.LastCheckEpoch > 0 {
			secs := int(nowEpoch - rec.LastCheckEpoch)
			status.SecondsSinceCheck = &secs
		}
		if rec.LastSuccessEpoch != nil {
			secs := int(nowEpoch - *rec.LastSuccessEpoch)
			status.SecondsSinceSuccess = &secs
			if rec.RecentlySucceeded(nowEpoch, 300) {
				availableCount++
			}
		}
		enhanced[url] = status
	}

	var totalRequests int64
	for url, count := range h.Pool.RequestCounts() {
		requestDistribution[url] = int(count)
		totalRequests += count
	}

	overallStatus := "degraded"
	if availableCount > 0 {
		overallStatus = "healthy"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    overallStatus,
		"timestamp": now.Format(time.RFC3339),
		"summary": map[string]interface{}{
			"total_urls":     len(h.Pool.URLs()),
			"available_urls": availableCount,
			"degraded_urls":  len(snapshot) - availableCount,
			"avg_latency":    nil,
		},
		"urls_status": enhanced,
		"request_stats": map[string]interface{}{
			"total_requests":       totalRequests,
			"request_distribution": requestDistribution,
		},
	})
}
