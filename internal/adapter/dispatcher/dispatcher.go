// Package dispatcher implements component E: the end-to-end translation
// pipeline, select->POST->validate->retry-with-failover, plus streaming
// chunk emission. Grounded on the original's translate_single and the
// teacher's proxy_sherpa.go shared-transport style.
package dispatcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/swhesong/deeplx-gateway/internal/core/domain"
	"github.com/swhesong/deeplx-gateway/internal/core/ports"
	"github.com/swhesong/deeplx-gateway/internal/logger"
	"github.com/swhesong/deeplx-gateway/internal/util"
	"github.com/swhesong/deeplx-gateway/internal/version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	maxRetryCap        = 5
	nominalRetryOnEmpty = 3
	maxDuplicateSkips   = 3
	duplicateSleep      = 100 * time.Millisecond
	maxErrorMessageLen  = 200
	backoffBase         = 100 * time.Millisecond
	backoffCap          = 2 * time.Second
)

type translatePayload struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang"`
	RequestID  string `json:"request_id"`
}

// Dispatcher implements ports.Dispatcher.
type Dispatcher struct {
	pool          ports.PoolManager
	health        ports.HealthStore
	client        *http.Client
	extractor     *util.DataExtractor
	logger        *logger.StyledLogger
	timeout       time.Duration
	maxTextLength int
}

func New(pool ports.PoolManager, health ports.HealthStore, extractor *util.DataExtractor, log *logger.StyledLogger, timeout time.Duration, maxTextLength int) *Dispatcher {
	return &Dispatcher{
		pool:   pool,
		health: health,
		client: &http.Client{Timeout: timeout},
		extractor:     extractor,
		logger:        log,
		timeout:       timeout,
		maxTextLength: maxTextLength,
	}
}

// ValidateText implements the §4.E input-validation rule: empty/whitespace
// text is rejected, as is text longer than maxTextLength (B1).
func (d *Dispatcher) ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrInvalidRequest("text must not be empty")
	}
	if utf8.RuneCountInString(text) > d.maxTextLength {
		return domain.ErrInvalidRequest(fmt.Sprintf("text exceeds maximum length of %d characters", d.maxTextLength))
	}
	return nil
}

// Translate implements the §4.E retry-with-failover pipeline. R1:
// source_lang == target_lang short-circuits with zero HTTP calls.
func (d *Dispatcher) Translate(ctx context.Context, text, sourceLang, targetLang, requestID string) (string, error) {
	if sourceLang == targetLang {
		return text, nil
	}

	maxRetries := clamp(d.pool.Len(), 1, maxRetryCap)
	if d.pool.Len() == 0 {
		maxRetries = nominalRetryOnEmpty
	}

	tried := make(map[string]struct{}, maxRetries)
	lastErr := ""

	for attempt := 0; attempt < maxRetries; attempt++ {
		url, err := d.selectURL(tried)
		if err != nil {
			return "", domain.ErrServiceUnavailable("no upstream translation endpoints available", err)
		}
		tried[url] = struct{}{}

		result, attemptErr := d.attempt(ctx, url, text, sourceLang, targetLang, requestID, attempt)
		if attemptErr == nil {
			return result, nil
		}
		lastErr = util.TruncateMessage(attemptErr.Error(), maxErrorMessageLen)

		if attempt < maxRetries-1 {
			time.Sleep(util.DispatchBackoff(attempt, backoffBase, backoffCap))
		}
	}

	return "", domain.ErrServiceUnavailable(fmt.Sprintf("all upstreams exhausted: %s", lastErr), errors.New(lastErr))
}

// selectURL asks the pool for the next URL, re-rolling up to
// maxDuplicateSkips times if it repeats a URL already tried this call,
// then accepting the duplicate rather than failing (§4.E step 1).
func (d *Dispatcher) selectURL(tried map[string]struct{}) (string, error) {
	var url string
	var err error

	for skip := 0; skip < maxDuplicateSkips; skip++ {
		url, err = d.pool.Next()
		if err != nil {
			return "", err
		}
		if _, seen := tried[url]; !seen {
			return url, nil
		}
		time.Sleep(duplicateSleep)
	}
	return url, nil
}

func (d *Dispatcher) attempt(ctx context.Context, url, text, sourceLang, targetLang, requestID string, attempt int) (string, error) {
	start := time.Now()

	payload, err := json.Marshal(translatePayload{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		RequestID:  requestID,
	})
	if err != nil {
		return "", err
	}

	target := util.WithCacheBuster(url, time.Now().UnixMilli(), fmt.Sprintf("retry=%d", attempt))

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		d.health.Update(url, false, nil, nil, err.Error())
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		reason := classifyDialError(err)
		d.health.Update(url, false, nil, nil, reason)
		return "", errors.New(reason)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		d.health.Update(url, false, nil, nil, err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if len(body) > 0 {
			reason = fmt.Sprintf("%s: %s", reason, util.TruncateMessage(string(body), 200))
		}
		d.health.Update(url, false, nil, nil, reason)
		return "", errors.New(reason)
	}

	data, err := d.extractor.Extract(body)
	if err != nil || strings.TrimSpace(data) == "" {
		reason := "Empty or invalid translation response"
		if err != nil {
			reason = err.Error()
		}
		d.health.Update(url, false, nil, nil, reason)
		return "", errors.New(reason)
	}

	latency := time.Since(start).Seconds()
	respLen := len(body)
	d.health.Update(url, true, &latency, &respLen, "")

	return data, nil
}

func classifyDialError(err error) string {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return "Connection timeout"
	}
	return fmt.Sprintf("Connection error: %s", util.TruncateMessage(err.Error(), 100))
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
