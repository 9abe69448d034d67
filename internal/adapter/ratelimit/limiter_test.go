package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter_DerivesPerClientCap(t *testing.T) {
	l := NewLimiter(60, time.Minute)
	assert.Equal(t, 60, l.globalLimit)
	assert.Equal(t, 15, l.perClientLimit, "per-client cap is min(60/4, 30)")
}

func TestNewLimiter_PerClientCapIsClamped(t *testing.T) {
	l := NewLimiter(1000, time.Minute)
	assert.Equal(t, maxPerClientLimit, l.perClientLimit)
}

func TestLimiter_Allow_ZeroLimitRejectsEverything(t *testing.T) {
	l := NewLimiter(0, time.Minute)
	result := l.Allow("1.2.3.4")
	assert.False(t, result.Allowed, "B3: MAX_REQUESTS_PER_MINUTE=0 must reject every request")
	assert.Equal(t, "Global rate limit exceeded", result.Reason)
}

func TestLimiter_Allow_PerClientCapScenario(t *testing.T) {
	l := NewLimiter(60, time.Minute)

	for i := 0; i < 15; i++ {
		result := l.Allow("10.0.0.1")
		require.True(t, result.Allowed, "request %d should be accepted under the per-client cap of 15", i+1)
	}

	result := l.Allow("10.0.0.1")
	assert.False(t, result.Allowed)
	assert.Equal(t, "Client rate limit exceeded", result.Reason)
}

func TestLimiter_Allow_GlobalLimitIndependentOfClient(t *testing.T) {
	// Limit 4 gives a per-client cap of 1, so each distinct client gets one
	// request and the fifth client is stopped by the global window.
	l := NewLimiter(4, time.Minute)

	require.True(t, l.Allow("a").Allowed)
	require.True(t, l.Allow("b").Allowed)
	require.True(t, l.Allow("c").Allowed)
	require.True(t, l.Allow("d").Allowed)

	result := l.Allow("e")
	assert.False(t, result.Allowed)
	assert.Equal(t, "Global rate limit exceeded", result.Reason)
}

func TestLimiter_Allow_PurgesExpiredEntries(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)

	require.True(t, l.Allow("").Allowed)
	assert.False(t, l.Allow("").Allowed)

	time.Sleep(60 * time.Millisecond)
	assert.True(t, l.Allow("").Allowed, "P4: expired timestamps must be purged before the next admission check")
}
