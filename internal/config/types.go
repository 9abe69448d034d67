package config

import "time"

// Config is the flat, env-var-only configuration surface described in
// spec.md §6. Every field maps to one environment variable; there is no
// required YAML file, though Load still wires an optional config-file
// reload path (see DEEPLX_CONFIG_FILE in config.go) the way the teacher's
// Load does for its endpoint list.
type Config struct {
	TestText       string
	TestSourceLang string
	TestTargetLang string
	ExportPath     string
	ResultFormat   string
	Host           string
	LogLevel       string

	TranslationAPIURLs []string

	MaxRequestsPerMinute int
	Timeout              time.Duration
	MaxWorkers           int
	CheckTimeout         time.Duration
	CheckInterval        time.Duration
	InitialCheckDelay    time.Duration
	MaxTextLength        int
	MinAvailableURLs     int
	Port                 int

	AutoUpdateURLs  bool
	EnableStreaming bool
	Debug           bool
}

// DefaultConfig mirrors spec.md §6's documented defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxRequestsPerMinute: 60,
		Timeout:              30 * time.Second,
		MaxWorkers:           5,
		CheckTimeout:         5 * time.Second,
		CheckInterval:        300 * time.Second,
		InitialCheckDelay:    30 * time.Second,
		MaxTextLength:        5000,
		MinAvailableURLs:     2,
		AutoUpdateURLs:       true,
		EnableStreaming:      true,
		TestText:             "Hello",
		TestSourceLang:       "EN",
		TestTargetLang:       "ZH",
		ExportPath:           "./results/useful.txt",
		ResultFormat:         "detailed",
		Port:                 8000,
		Host:                 "0.0.0.0",
		LogLevel:             "info",
		Debug:                false,
	}
}
