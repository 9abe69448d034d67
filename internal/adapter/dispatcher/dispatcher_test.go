package dispatcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swhesong/deeplx-gateway/internal/adapter/health"
	"github.com/swhesong/deeplx-gateway/internal/adapter/pool"
	"github.com/swhesong/deeplx-gateway/internal/logger"
	"github.com/swhesong/deeplx-gateway/internal/util"
)

func newTestDispatcher(t *testing.T, urls []string) (*Dispatcher, *health.State) {
	t.Helper()
	base, cleanup, err := logger.New(&logger.Config{Level: "error"})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	styled := logger.NewStyledLogger(base)

	hs := health.NewState()
	pm := pool.NewManager(urls, hs, styled)
	extractor := util.NewDataExtractor("$.data")

	return New(pm, hs, extractor, styled, 2*time.Second, 5000), hs
}

func TestDispatcher_Translate_SameLangIsRoundTrip(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)

	out, err := d.Translate(context.Background(), "Hello", "EN", "EN", "req-1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out, "R1: same-language round trip returns input unchanged")
}

func TestDispatcher_Translate_HappyPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"你好"}`))
	}))
	defer upstream.Close()

	d, hs := newTestDispatcher(t, []string{upstream.URL})

	out, err := d.Translate(context.Background(), "Hello", "EN", "ZH", "req-2")
	require.NoError(t, err)
	assert.Equal(t, "你好", out)

	rec := hs.Get(upstream.URL)
	assert.True(t, rec.Available)
	assert.Equal(t, 0, rec.ConsecutiveFailures)
	assert.Equal(t, 1, rec.TotalChecks)
}

func TestDispatcher_Translate_Failover(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"Bonjour"}`))
	}))
	defer good.Close()

	d, hs := newTestDispatcher(t, []string{bad.URL, good.URL})

	out, err := d.Translate(context.Background(), "Hello", "EN", "FR", "req-3")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)

	assert.GreaterOrEqual(t, hs.Get(bad.URL).ConsecutiveFailures, 1)
	assert.Equal(t, 0, hs.Get(good.URL).ConsecutiveFailures)
}

func TestDispatcher_Translate_Exhaustion(t *testing.T) {
	failCount := 0
	a := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		failCount++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer a.Close()
	b := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		failCount++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer b.Close()

	d, hs := newTestDispatcher(t, []string{a.URL, b.URL})

	_, err := d.Translate(context.Background(), "Hello", "EN", "DE", "req-4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")

	assert.GreaterOrEqual(t, hs.Get(a.URL).ConsecutiveFailures, 1)
	assert.GreaterOrEqual(t, hs.Get(b.URL).ConsecutiveFailures, 1)
	assert.Equal(t, 2, failCount, "min(len(pool), 5) == 2 attempts expected")
}

func TestDispatcher_ValidateText(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)

	assert.Error(t, d.ValidateText(""))
	assert.Error(t, d.ValidateText("   "))

	longText := make([]byte, d.maxTextLength+1)
	for i := range longText {
		longText[i] = 'a'
	}
	assert.Error(t, d.ValidateText(string(longText)))

	exact := make([]byte, d.maxTextLength)
	for i := range exact {
		exact[i] = 'a'
	}
	assert.NoError(t, d.ValidateText(string(exact)), "B1: text at exactly MaxTextLength must succeed")
}

func TestParseModel(t *testing.T) {
	cases := []struct {
		model      string
		wantSource string
		wantTarget string
		wantErr    bool
	}{
		{"deepl-EN-ZH", "EN", "ZH", false},
		{"deepl-zh", "", "ZH", false},
		{"deepl", "", "", true},
	}

	for _, c := range cases {
		source, target, err := ParseModel(c.model)
		if c.wantErr {
			assert.Error(t, err, c.model)
			continue
		}
		require.NoError(t, err, c.model)
		assert.Equal(t, c.wantSource, source, c.model)
		assert.Equal(t, c.wantTarget, target, c.model)
	}
}
