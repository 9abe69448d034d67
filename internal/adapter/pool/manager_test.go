package pool

import (
	"testing"

	"github.com/swhesong/deeplx-gateway/internal/adapter/health"
	"github.com/swhesong/deeplx-gateway/internal/logger"
)

func newTestManager(t *testing.T, urls []string) (*Manager, *health.State) {
	t.Helper()
	base, cleanup, err := logger.New(&logger.Config{Level: "error"})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(cleanup)
	styled := logger.NewStyledLogger(base)
	hs := health.NewState()
	return NewManager(urls, hs, styled), hs
}

func TestManager_Next_EmptyPoolFails(t *testing.T) {
	m, _ := newTestManager(t, nil)
	if _, err := m.Next(); err == nil {
		t.Error("expected error selecting from an empty pool")
	}
}

func TestManager_Next_SkipsOverFailureCeiling(t *testing.T) {
	m, hs := newTestManager(t, []string{"http://a", "http://b"})

	for i := 0; i < 6; i++ {
		hs.Update("http://a", false, nil, nil, "boom")
	}

	for i := 0; i < 10; i++ {
		url, err := m.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if url != "http://b" {
			t.Fatalf("expected http://b once http://a exceeds the failure ceiling, got %s", url)
		}
	}
}

func TestManager_Next_IncrementsRequestCount(t *testing.T) {
	m, _ := newTestManager(t, []string{"http://a"})

	for i := 0; i < 3; i++ {
		if _, err := m.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}

	m.mu.Lock()
	entry := m.entries["http://a"]
	m.mu.Unlock()
	if entry.RequestCount != 3 {
		t.Errorf("expected request count 3, got %d", entry.RequestCount)
	}
}

func TestManager_ReplaceURLs_PreservesStatsForSurvivors(t *testing.T) {
	m, _ := newTestManager(t, []string{"http://a", "http://b"})

	if _, err := m.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	m.mu.Lock()
	before := *m.entries["http://a"]
	m.mu.Unlock()

	m.ReplaceURLs([]string{"http://a", "http://c"})

	m.mu.Lock()
	after, ok := m.entries["http://a"]
	_, dropped := m.entries["http://b"]
	m.mu.Unlock()

	if !ok {
		t.Fatal("expected surviving URL http://a to keep an entry")
	}
	if after.RequestCount != before.RequestCount || after.LastUsedEpoch != before.LastUsedEpoch {
		t.Error("expected stats to be carried over for a surviving URL")
	}
	if dropped {
		t.Error("expected dropped URL http://b to have its entry discarded")
	}
}

func TestManager_RequestCounts(t *testing.T) {
	m, _ := newTestManager(t, []string{"http://a"})
	for i := 0; i < 4; i++ {
		if _, err := m.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if got := m.RequestCounts()["http://a"]; got != 4 {
		t.Errorf("expected request count 4, got %d", got)
	}
}

func TestManager_ReplaceURLs_EmptyIsNoop(t *testing.T) {
	m, _ := newTestManager(t, []string{"http://a"})
	m.ReplaceURLs([]string{"", "  "})
	if m.Len() != 1 {
		t.Errorf("expected pool to remain unchanged after an empty replace, got len %d", m.Len())
	}
}
