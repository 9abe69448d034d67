package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/swhesong/deeplx-gateway/internal/core/ports"
)

type urlCheckResult struct {
	URL            string   `json:"url"`
	Available      bool     `json:"available"`
	Latency        *float64 `json:"latency"`
	Error          string   `json:"error,omitempty"`
	ResponseLength *int     `json:"response_length,omitempty"`
	Timestamp      float64  `json:"timestamp"`
}

// CheckAndExportURLs implements POST /v1/check-and-export-urls: a full
// probe sweep over the configured URL list, a human-readable report
// written to Config.ExportPath, and (when auto-update is enabled and
// enough URLs survived) a pool refresh.
func (h *Handlers) CheckAndExportURLs(w http.ResponseWriter, r *http.Request) {
	urls := h.ConfiguredURLs
	if len(urls) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No URLs found in environment variables"})
		return
	}

	h.Logger.Info("starting URL check", "count", len(urls))

	results, err := h.Prober.ProbeMany(r.Context(), urls)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":     fmt.Sprintf("Failed to check URLs: %v", err),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	available, unavailable := splitResults(results)
	sort.SliceStable(available, func(i, j int) bool {
		return latencyOf(available[i]) < latencyOf(available[j])
	})

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	reportText := buildReport(h.Config.ResultFormat, timestamp, urls, available, unavailable)

	fileWritten := safeWriteText(reportText, h.Config.ExportPath)
	if !fileWritten {
		h.Logger.Warn("failed to write results to file, but check completed successfully")
	}

	updatedURLs := false
	if h.Config.AutoUpdateURLs && len(available) >= h.Config.MinAvailableURLs {
		newURLs := make([]string, len(available))
		for i, res := range available {
			newURLs[i] = res.URL
		}
		h.Pool.ReplaceURLs(newURLs)
		updatedURLs = true
		h.Logger.Info("URLs auto-updated", "active", len(newURLs))
	} else if h.Config.AutoUpdateURLs {
		h.Logger.Warn("not enough available URLs for auto-update", "available", len(available), "min", h.Config.MinAvailableURLs)
	}

	successRate := 0.0
	if len(urls) > 0 {
		successRate = round1(float64(len(available)) / float64(len(urls)) * 100)
	}

	unavailableOut := unavailable
	if len(unavailableOut) > 10 {
		unavailableOut = unavailableOut[:10]
	}

	response := map[string]interface{}{
		"status":    "success",
		"message":   "URLs checked and exported successfully",
		"timestamp": timestamp,
		"summary": map[string]interface{}{
			"total_checked": len(urls),
			"available":     len(available),
			"unavailable":   len(unavailable),
			"success_rate":  successRate,
		},
		"available_urls":   toCheckResults(available),
		"unavailable_urls": toCheckResults(unavailableOut),
		"export_path":      h.Config.ExportPath,
		"file_written":     fileWritten,
		"urls_updated":     updatedURLs,
	}

	if perf := performanceStats(available); perf != nil {
		response["performance"] = perf
	}

	writeJSON(w, http.StatusOK, response)
}

func splitResults(results []ports.ProbeResult) (available, unavailable []ports.ProbeResult) {
	for _, r := range results {
		if r.Available {
			available = append(available, r)
		} else {
			unavailable = append(unavailable, r)
		}
	}
	return
}

func latencyOf(r ports.ProbeResult) float64 {
	if r.LatencySeconds == nil {
		return 1e18
	}
	return *r.LatencySeconds
}

func toCheckResults(results []ports.ProbeResult) []urlCheckResult {
	out := make([]urlCheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, urlCheckResult{
			URL:            r.URL,
			Available:      r.Available,
			Latency:        r.LatencySeconds,
			Error:          r.Error,
			ResponseLength: r.ResponseLengthBytes,
			Timestamp:      r.TimestampEpoch,
		})
	}
	return out
}

func performanceStats(available []ports.ProbeResult) map[string]float64 {
	var latencies []float64
	for _, r := range available {
		if r.LatencySeconds != nil {
			latencies = append(latencies, *r.LatencySeconds)
		}
	}
	if len(latencies) == 0 {
		return nil
	}
	sum, min, max := 0.0, latencies[0], latencies[0]
	for _, l := range latencies {
		sum += l
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	return map[string]float64{
		"avg_latency": round3(sum / float64(len(latencies))),
		"min_latency": round3(min),
		"max_latency": round3(max),
	}
}

// buildReport renders the human-readable report written to ExportPath,
// in either the "detailed" or compact format (RESULT_FORMAT).
func buildReport(format, timestamp string, allURLs []string, available, unavailable []ports.ProbeResult) string {
	if format != "detailed" {
		names := make([]string, len(available))
		for i, r := range available {
			names[i] = r.URL
		}
		return fmt.Sprintf("\n%s\nDeepLX (%d/%d) %s\n", timestamp, len(available), len(allURLs), strings.Join(names, ", "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DeepLX URL Check Report - %s\n", timestamp)
	b.WriteString(strings.Repeat("=", 80) + "\n\n")

	successRate := 0.0
	if len(allURLs) > 0 {
		successRate = round1(float64(len(available)) / float64(len(allURLs)) * 100)
	}
	fmt.Fprintf(&b, "Summary:\n")
	fmt.Fprintf(&b, "   Total URLs checked: %d\n", len(allURLs))
	fmt.Fprintf(&b, "   Available URLs: %d\n", len(available))
	fmt.Fprintf(&b, "   Unavailable URLs: %d\n", len(unavailable))
	fmt.Fprintf(&b, "   Success rate: %.1f%%\n\n", successRate)

	if len(available) > 0 {
		b.WriteString("Available DeepLX Endpoints (sorted by latency):\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")
		for i, r := range available {
			latency := latencyOf(r)
			length := 0
			if r.ResponseLengthBytes != nil {
				length = *r.ResponseLengthBytes
			}
			fmt.Fprintf(&b, "%2d. (%.3fs, %s) %s\n", i+1, latency, units.HumanSize(float64(length)), r.URL)
		}
		b.WriteString(strings.Repeat("-", 60) + "\n\n")
	}

	if len(unavailable) > 0 {
		b.WriteString("Unavailable Endpoints:\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")
		for i, r := range unavailable {
			errMsg := r.Error
			if len(errMsg) > 50 {
				errMsg = errMsg[:50]
			}
			fmt.Fprintf(&b, "%2d. %s\n      Error: %s\n", i+1, r.URL, errMsg)
		}
		b.WriteString(strings.Repeat("-", 60) + "\n\n")
	}

	if perf := performanceStats(available); perf != nil {
		fmt.Fprintf(&b, "Performance Statistics:\n")
		fmt.Fprintf(&b, "   Average latency: %.3fs\n", perf["avg_latency"])
		fmt.Fprintf(&b, "   Best latency: %.3fs\n", perf["min_latency"])
		fmt.Fprintf(&b, "   Worst latency: %.3fs\n\n", perf["max_latency"])
	}

	return b.String()
}

func safeWriteText(text, path string) bool {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false
		}
	}
	return os.WriteFile(path, []byte(text), 0o644) == nil
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
