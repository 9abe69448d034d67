// Package pool implements component C (PoolManager): the active URL set,
// weighted scoring and rotation, and dynamic replacement, the same shape as
// the teacher's priority/weighted balancer selectors but scored against
// HealthState rather than static priority tiers.
package pool

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/swhesong/deeplx-gateway/internal/adapter/health"
	"github.com/swhesong/deeplx-gateway/internal/core/domain"
	"github.com/swhesong/deeplx-gateway/internal/logger"
)

const maxConsecutiveFailures = 5

// Manager owns PoolEntry state exclusively (§3 Ownership) and reads
// HealthState to score candidates. All reads and writes are serialized
// under one mutex; the selection path releases the lock before returning,
// never holding it across I/O (§5).
type Manager struct {
	mu      sync.Mutex
	urls    []string
	entries map[string]*domain.PoolEntry
	health  *health.State
	logger  *logger.StyledLogger
	rng     *rand.Rand
}

func NewManager(initialURLs []string, healthState *health.State, log *logger.StyledLogger) *Manager {
	m := &Manager{
		entries: make(map[string]*domain.PoolEntry),
		health:  healthState,
		logger:  log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.ReplaceURLs(initialURLs)
	return m
}

// Len returns the number of URLs currently in the pool.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}

// URLs returns a copy of the active URL set.
func (m *Manager) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.urls))
	copy(out, m.urls)
	return out
}

// RequestCounts returns a snapshot of per-URL request counts, used by
// /v1/urls/status's request_stats block.
func (m *Manager) RequestCounts() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.entries))
	for url, entry := range m.entries {
		out[url] = entry.RequestCount
	}
	return out
}

// Next implements next_url() from §4.C: score every candidate that is
// marked available (a URL with no record yet counts as available) and
// hasn't exceeded the consecutive-failure ceiling, pick the lowest score
// (ties by insertion order), fall back to a uniform-random pick across the
// whole pool if every candidate was filtered out, and fail if the pool is
// empty.
func (m *Manager) Next() (string, error) {
	now := domain.NowEpoch(time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.urls) == 0 {
		return "", domain.ErrNoUpstreams
	}

	bestURL := ""
	bestScore := 0.0
	found := false

	for _, url := range m.urls {
		rec := m.health.Get(url)
		if !rec.Available {
			continue
		}
		if rec.ConsecutiveFailures > maxConsecutiveFailures {
			continue
		}
		score := m.score(url, rec, now)
		if !found || score < bestScore {
			bestURL = url
			bestScore = score
			found = true
		}
	}

	if !found {
		bestURL = m.urls[m.rng.Intn(len(m.urls))]
		m.logger.WarnURL("all upstreams unavailable or over the consecutive-failure ceiling, falling back to random pick", bestURL)
	}

	entry := m.entries[bestURL]
	if entry == nil {
		entry = domain.NewPoolEntry()
		m.entries[bestURL] = entry
	}
	entry.RequestCount++
	entry.LastUsedEpoch = now

	return bestURL, nil
}

// score computes the §4.C scoring formula; lower is better.
func (m *Manager) score(url string, rec *domain.HealthRecord, now float64) float64 {
	latency := 1.0
	if rec.LatencySeconds != nil {
		latency = *rec.LatencySeconds
	}
	successRate := rec.SuccessRate
	if rec.TotalChecks == 0 {
		successRate = 1.0
	}
	if successRate == 0 {
		successRate = 0.0001
	}

	entry := m.entries[url]
	requestCount := int64(0)
	lastUsed := 0.0
	weight := 1.0
	if entry != nil {
		requestCount = entry.RequestCount
		lastUsed = entry.LastUsedEpoch
		weight = entry.Weight
	}
	if weight == 0 {
		weight = 0.0001
	}

	recency := 10.0 - (now - lastUsed)
	if recency < 0 {
		recency = 0
	}

	numerator := latency + 0.005*float64(requestCount) + 0.05*recency
	return numerator / (successRate * weight)
}

// ReplaceURLs implements replace_urls(): trims/dedupes/drops empties. If
// nothing survives cleaning, logs a warning and leaves the pool untouched.
// Otherwise the cleaned set becomes active; request_count/last_used/weight
// carry over for intersecting URLs (P3); dropped URLs' entries are
// discarded.
func (m *Manager) ReplaceURLs(newURLs []string) {
	cleaned := dedupeNonEmpty(newURLs)
	if len(cleaned) == 0 {
		m.logger.Warn("replace_urls called with no usable URLs, pool left unchanged")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	survivors := make(map[string]*domain.PoolEntry, len(cleaned))
	for _, url := range cleaned {
		if existing, ok := m.entries[url]; ok {
			survivors[url] = existing
		} else {
			survivors[url] = domain.NewPoolEntry()
		}
	}

	m.urls = cleaned
	m.entries = survivors
}

func dedupeNonEmpty(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		trimmed := strings.TrimSpace(u)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
