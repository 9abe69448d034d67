// Package env provides small helpers for reading typed defaults from the
// process environment, the same shape the teacher's main.go calls through
// internal/env.GetEnvOrDefault (that package itself was not present in the
// retrieved code, so it is recreated here in the same idiom).
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func GetEnvIntOrDefault(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func GetEnvFloatOrDefault(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return f
}

func GetEnvBoolOrDefault(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}

func GetEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// GetEnvStringSlice splits a comma-separated env var, trims whitespace, and
// drops empty entries.
func GetEnvStringSlice(key string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
