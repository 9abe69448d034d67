package health

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/swhesong/deeplx-gateway/internal/core/domain"
	"github.com/swhesong/deeplx-gateway/internal/core/ports"
	"github.com/swhesong/deeplx-gateway/internal/logger"
	"github.com/swhesong/deeplx-gateway/internal/util"
	"github.com/swhesong/deeplx-gateway/internal/version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	maxErrorBodyChars = 200
	maxConnErrorChars = 100
	progressEvery     = 10

	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second
	DefaultDialTimeout         = 10 * time.Second
	DefaultKeepAlive           = 30 * time.Second
)

// probePayload is the body sent to an upstream during a health probe
// (§4.B): text/source_lang/target_lang plus a fresh request id.
type probePayload struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang"`
	RequestID  string `json:"request_id"`
}

// Prober implements component B: single- and batch-URL health probing with
// semantic response validation and bounded concurrency.
type Prober struct {
	client         *http.Client
	state          *State
	logger         *logger.StyledLogger
	extractor      *util.DataExtractor
	testText       string
	testSourceLang string
	testTargetLang string
	checkTimeout   time.Duration
	maxWorkers     int
}

func NewProber(state *State, log *logger.StyledLogger, checkTimeout time.Duration, maxWorkers int, testText, testSourceLang, testTargetLang string) *Prober {
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		DialContext: (&net.Dialer{
			Timeout:   DefaultDialTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
	}

	return &Prober{
		client:         &http.Client{Transport: transport, Timeout: checkTimeout},
		state:          state,
		logger:         log,
		extractor:      util.NewDataExtractor("$.data"),
		checkTimeout:   checkTimeout,
		maxWorkers:     maxWorkers,
		testText:       testText,
		testSourceLang: testSourceLang,
		testTargetLang: testTargetLang,
	}
}

// Close releases the shared client's idle connections on shutdown.
func (p *Prober) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Probe performs a single POST probe against url and classifies the
// outcome per §4.B, recording the result into HealthState before
// returning.
func (p *Prober) Probe(ctx context.Context, url string) ports.ProbeResult {
	start := time.Now()
	requestID := uuid.NewString()

	payload, err := json.Marshal(probePayload{
		Text:       p.testText,
		SourceLang: p.testSourceLang,
		TargetLang: p.testTargetLang,
		RequestID:  requestID,
	})
	if err != nil {
		return p.fail(url, start, fmt.Sprintf("Connection error: %s", truncate(err.Error(), maxConnErrorChars)))
	}

	target := util.WithCacheBuster(url, time.Now().UnixMilli(), "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return p.fail(url, start, fmt.Sprintf("Connection error: %s", truncate(err.Error(), maxConnErrorChars)))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", requestID)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return p.fail(url, start, "Connection timeout")
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return p.fail(url, start, "Connection timeout")
		}
		return p.fail(url, start, fmt.Sprintf("Connection error: %s", truncate(err.Error(), maxConnErrorChars)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return p.fail(url, start, fmt.Sprintf("Connection error: %s", truncate(err.Error(), maxConnErrorChars)))
	}

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if len(body) > 0 {
			reason = fmt.Sprintf("%s: %s", reason, truncate(string(body), maxErrorBodyChars))
		}
		return p.fail(url, start, reason)
	}

	// Reuse the Dispatcher's extractor (internal/util/jsonfield.go) so both
	// components classify upstream responses identically: a non-string
	// "data" (e.g. a bare number) is stringified rather than rejected as
	// invalid JSON.
	data, err := p.extractor.Extract(body)
	if err != nil {
		if strings.Contains(err.Error(), "invalid JSON") {
			return p.fail(url, start, "Invalid JSON response")
		}
		return p.fail(url, start, "Invalid response format - missing 'data' field")
	}
	if data == "" || data == p.testText {
		return p.fail(url, start, "Empty or invalid translation response")
	}

	latency := time.Since(start).Seconds()
	respLen := len(body)
	p.state.Update(url, true, &latency, &respLen, "")
	p.logger.InfoProbe(url, true, "latency_s", latency)

	return ports.ProbeResult{
		URL:                 url,
		Available:           true,
		LatencySeconds:      &latency,
		ResponseLengthBytes: &respLen,
		TimestampEpoch:      domain.NowEpoch(time.Now()),
	}
}

func (p *Prober) fail(url string, start time.Time, reason string) ports.ProbeResult {
	p.state.Update(url, false, nil, nil, reason)
	p.logger.InfoProbe(url, false, "error", reason)
	return ports.ProbeResult{
		URL:            url,
		Available:      false,
		Error:          reason,
		TimestampEpoch: domain.NowEpoch(time.Now()),
	}
}

// ProbeMany fans out probes over urls bounded by min(maxWorkers, len(urls)),
// logging progress every 10 completions, and returns results sorted
// available-first ascending by latency, then unavailable in any order. On
// any internal fan-out error outstanding probes are cancelled but
// already-collected results are kept.
func (p *Prober) ProbeMany(ctx context.Context, urls []string) ([]ports.ProbeResult, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	limit := p.maxWorkers
	if limit > len(urls) {
		limit = len(urls)
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]ports.ProbeResult, len(urls))
	var completed int64
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	total := len(urls)
	for i, u := range urls {
		i, u := i, u
		eg.Go(func() error {
			results[i] = p.Probe(egCtx, u)

			done := atomic.AddInt64(&completed, 1)
			if done%progressEvery == 0 || int(done) == total {
				mu.Lock()
				p.logger.InfoProgress(int(done), total)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Available != results[j].Available {
			return results[i].Available
		}
		if !results[i].Available {
			return false
		}
		li, lj := 0.0, 0.0
		if results[i].LatencySeconds != nil {
			li = *results[i].LatencySeconds
		}
		if results[j].LatencySeconds != nil {
			lj = *results[j].LatencySeconds
		}
		return li < lj
	})

	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
