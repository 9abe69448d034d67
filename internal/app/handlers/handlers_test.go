package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swhesong/deeplx-gateway/internal/adapter/dispatcher"
	"github.com/swhesong/deeplx-gateway/internal/adapter/health"
	"github.com/swhesong/deeplx-gateway/internal/adapter/pool"
	"github.com/swhesong/deeplx-gateway/internal/config"
	"github.com/swhesong/deeplx-gateway/internal/logger"
	"github.com/swhesong/deeplx-gateway/internal/util"
)

func newTestHandlers(t *testing.T, urls []string) (*Handlers, *health.State, *pool.Manager) {
	t.Helper()
	base, cleanup, err := logger.New(&logger.Config{Level: "error"})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	styled := logger.NewStyledLogger(base)

	hs := health.NewState()
	pm := pool.NewManager(urls, hs, styled)
	prober := health.NewProber(hs, styled, time.Second, 4, "Hello", "EN", "ZH")
	extractor := util.NewDataExtractor("$.data")
	disp := dispatcher.New(pm, hs, extractor, styled, 2*time.Second, 5000)

	cfg := config.DefaultConfig()
	cfg.TranslationAPIURLs = urls
	cfg.ExportPath = t.TempDir() + "/useful.txt"

	return New(disp, hs, pm, prober, cfg, styled, time.Now()), hs, pm
}

func TestChatCompletions_HappyPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"你好"}`))
	}))
	defer upstream.Close()

	h, _, _ := newTestHandlers(t, []string{upstream.URL})

	body := bytes.NewBufferString(`{"model":"deepl-EN-ZH","messages":[{"role":"user","content":"Hello"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", body)
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "你好")
}

func TestChatCompletions_Streaming(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"Bonjour le monde"}`))
	}))
	defer upstream.Close()

	h, _, _ := newTestHandlers(t, []string{upstream.URL})

	body := bytes.NewBufferString(`{"model":"deepl-EN-FR","stream":true,"messages":[{"role":"user","content":"Hello world"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", body)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	out := rec.Body.String()
	assert.Contains(t, out, "Bonjour le monde")
	assert.True(t, bytes.HasSuffix([]byte(out), []byte("data: [DONE]\n\n")), "P6: stream must terminate with the DONE sentinel")
}

func TestChatCompletions_InvalidModel(t *testing.T) {
	h, _, _ := newTestHandlers(t, nil)

	body := bytes.NewBufferString(`{"model":"deepl","messages":[{"role":"user","content":"Hello"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", body)
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatCompletions_RoundTripSameLanguage(t *testing.T) {
	h, _, _ := newTestHandlers(t, nil)

	body := bytes.NewBufferString(`{"model":"deepl-EN-EN","messages":[{"role":"user","content":"Hello"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", body)
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello")
}

func TestHealth_UnhealthyWhenNoneAvailable(t *testing.T) {
	h, _, _ := newTestHandlers(t, []string{"http://a"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}

func TestHealth_HealthyAfterSuccess(t *testing.T) {
	h, hs, _ := newTestHandlers(t, []string{"http://a"})
	latency := 0.1
	length := 20
	hs.Update("http://a", true, &latency, &length, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestURLsStatus_IncludesHealthScore(t *testing.T) {
	h, hs, _ := newTestHandlers(t, []string{"http://a"})
	hs.Update("http://a", false, nil, nil, "boom")

	req := httptest.NewRequest(http.MethodGet, "/v1/urls/status", nil)
	rec := httptest.NewRecorder()
	h.URLsStatus(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"health_score":80`)
}

func TestModels_ListsSupportedPairs(t *testing.T) {
	h, _, _ := newTestHandlers(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	h.Models(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deepl-EN-ZH")
}

func TestCheckAndExportURLs_WritesReport(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"你好"}`))
	}))
	defer upstream.Close()

	h, _, _ := newTestHandlers(t, []string{upstream.URL})

	req := httptest.NewRequest(http.MethodPost, "/v1/check-and-export-urls", nil)
	rec := httptest.NewRecorder()
	h.CheckAndExportURLs(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
}
