package config

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxRequestsPerMinute != 60 {
		t.Errorf("expected MaxRequestsPerMinute 60, got %d", cfg.MaxRequestsPerMinute)
	}
	if cfg.MaxWorkers != 5 {
		t.Errorf("expected MaxWorkers 5, got %d", cfg.MaxWorkers)
	}
	if cfg.MaxTextLength != 5000 {
		t.Errorf("expected MaxTextLength 5000, got %d", cfg.MaxTextLength)
	}
	if !cfg.AutoUpdateURLs {
		t.Error("expected AutoUpdateURLs true by default")
	}
	if !cfg.EnableStreaming {
		t.Error("expected EnableStreaming true by default")
	}
	if cfg.ResultFormat != "detailed" {
		t.Errorf("expected ResultFormat detailed, got %s", cfg.ResultFormat)
	}
}

func TestLoad_RequiresURLs(t *testing.T) {
	os.Unsetenv("TRANSLATION_API_URLS")
	if _, err := Load(nil); err == nil {
		t.Error("expected error when TRANSLATION_API_URLS is unset")
	}
}

func TestLoad_ParsesURLs(t *testing.T) {
	os.Setenv("TRANSLATION_API_URLS", "http://a.example/translate, http://b.example/translate")
	defer os.Unsetenv("TRANSLATION_API_URLS")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.TranslationAPIURLs) != 2 {
		t.Fatalf("expected 2 urls, got %d: %v", len(cfg.TranslationAPIURLs), cfg.TranslationAPIURLs)
	}
	if cfg.TranslationAPIURLs[0] != "http://a.example/translate" {
		t.Errorf("expected trimmed first url, got %q", cfg.TranslationAPIURLs[0])
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	os.Setenv("TRANSLATION_API_URLS", "http://a.example/translate")
	os.Setenv("MAX_REQUESTS_PER_MINUTE", "120")
	os.Setenv("MIN_AVAILABLE_URLS", "1")
	defer func() {
		os.Unsetenv("TRANSLATION_API_URLS")
		os.Unsetenv("MAX_REQUESTS_PER_MINUTE")
		os.Unsetenv("MIN_AVAILABLE_URLS")
	}()

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxRequestsPerMinute != 120 {
		t.Errorf("expected MaxRequestsPerMinute 120, got %d", cfg.MaxRequestsPerMinute)
	}
	if cfg.MinAvailableURLs != 1 {
		t.Errorf("expected MinAvailableURLs 1, got %d", cfg.MinAvailableURLs)
	}
}
