package domain

import "time"

// HealthRecord is the per-upstream statistics block described in §4.A:
// availability, latency, consecutive failures, totals, success rate and
// timestamps. One record exists per upstream, created lazily on first probe.
type HealthRecord struct {
	LastSuccessEpoch    *float64
	LatencySeconds      *float64
	ResponseLengthBytes *int
	LastError           string
	Available           bool
	LastCheckEpoch      float64
	ConsecutiveFailures int
	TotalChecks         int
	SuccessRate         float64
}

// NewHealthRecord returns the zero-value record used before any probe has
// run: optimistically available, zero totals, perfect success rate.
func NewHealthRecord() *HealthRecord {
	return &HealthRecord{
		Available:   true,
		SuccessRate: 1.0,
	}
}

// Clone returns a copy safe for a caller to read without holding the
// HealthState mutex.
func (h *HealthRecord) Clone() *HealthRecord {
	if h == nil {
		return NewHealthRecord()
	}
	c := *h
	if h.LatencySeconds != nil {
		v := *h.LatencySeconds
		c.LatencySeconds = &v
	}
	if h.ResponseLengthBytes != nil {
		v := *h.ResponseLengthBytes
		c.ResponseLengthBytes = &v
	}
	if h.LastSuccessEpoch != nil {
		v := *h.LastSuccessEpoch
		c.LastSuccessEpoch = &v
	}
	return &c
}

// Apply updates the record in place per §4.A's update semantics: success
// resets ConsecutiveFailures and stamps LastSuccessEpoch; failure leaves
// LastSuccessEpoch untouched and increments ConsecutiveFailures.
// TotalChecks always increments and SuccessRate is recomputed from it.
func (h *HealthRecord) Apply(now float64, success bool, latency *float64, responseLength *int, errMsg string) {
	h.LastCheckEpoch = now
	h.TotalChecks++
	h.Available = success

	if success {
		h.ConsecutiveFailures = 0
		successEpoch := now
		h.LastSuccessEpoch = &successEpoch
		h.LatencySeconds = latency
		h.ResponseLengthBytes = responseLength
		h.LastError = ""
	} else {
		h.ConsecutiveFailures++
		h.LastError = errMsg
	}

	if h.TotalChecks > 0 {
		rate := float64(h.TotalChecks-h.ConsecutiveFailures) / float64(h.TotalChecks)
		if rate < 0 {
			rate = 0
		}
		h.SuccessRate = rate
	}
}

// RecentlySucceeded reports whether LastSuccessEpoch lies within window
// seconds of now, the test applied by the /health handler (§6).
func (h *HealthRecord) RecentlySucceeded(now float64, window float64) bool {
	if h.LastSuccessEpoch == nil {
		return false
	}
	return now-*h.LastSuccessEpoch <= window
}

// HealthScore is the 0-100 score reported by /v1/urls/status: start at 100,
// subtract 20*consecutive_failures capped at 80, subtract 10 if the last
// latency exceeds 2.0s.
func (h *HealthRecord) HealthScore() int {
	score := 100
	penalty := h.ConsecutiveFailures * 20
	if penalty > 80 {
		penalty = 80
	}
	score -= penalty
	if h.LatencySeconds != nil && *h.LatencySeconds > 2.0 {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

// NowEpoch is the single conversion point from wall-clock time to the float
// epoch seconds used throughout HealthRecord, matching the original's
// time.time() semantics.
func NowEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
