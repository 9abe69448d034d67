package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swhesong/deeplx-gateway/internal/logger"
)

func newTestProber(t *testing.T) (*Prober, *State) {
	t.Helper()
	base, cleanup, err := logger.New(&logger.Config{Level: "error"})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	styled := logger.NewStyledLogger(base)

	state := NewState()
	return NewProber(state, styled, 2*time.Second, 4, "Hello", "EN", "ZH"), state
}

func TestProber_Probe_HappyPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"你好"}`))
	}))
	defer upstream.Close()

	p, state := newTestProber(t)
	result := p.Probe(context.Background(), upstream.URL)

	assert.True(t, result.Available)
	assert.NotNil(t, result.LatencySeconds)
	assert.True(t, state.Get(upstream.URL).Available)
}

func TestProber_Probe_EchoUpstreamRejected(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"Hello"}`))
	}))
	defer upstream.Close()

	p, _ := newTestProber(t)
	result := p.Probe(context.Background(), upstream.URL)

	assert.False(t, result.Available, "echo upstream returning the probe text verbatim must be rejected")
	assert.Equal(t, "Empty or invalid translation response", result.Error)
}

func TestProber_Probe_NonStringDataAccepted(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":42}`))
	}))
	defer upstream.Close()

	p, _ := newTestProber(t)
	result := p.Probe(context.Background(), upstream.URL)

	assert.True(t, result.Available, "a non-string data field must be stringified, not rejected as invalid JSON")
}

func TestProber_Probe_MissingDataField(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"other":"value"}`))
	}))
	defer upstream.Close()

	p, _ := newTestProber(t)
	result := p.Probe(context.Background(), upstream.URL)

	assert.False(t, result.Available)
	assert.Equal(t, "Invalid response format - missing 'data' field", result.Error)
}

func TestProber_Probe_NonOKStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer upstream.Close()

	p, _ := newTestProber(t)
	result := p.Probe(context.Background(), upstream.URL)

	assert.False(t, result.Available)
	assert.Contains(t, result.Error, "HTTP 502")
}

func TestProber_ProbeMany_SortsAvailableFirstByLatency(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"慢"}`))
	}))
	defer slow.Close()
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"快"}`))
	}))
	defer fast.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	p, _ := newTestProber(t)
	results, err := p.ProbeMany(context.Background(), []string{down.URL, slow.URL, fast.URL})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Available)
	assert.True(t, results[1].Available)
	assert.False(t, results[2].Available)
	assert.LessOrEqual(t, *results[0].LatencySeconds, *results[1].LatencySeconds)
}
