package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/swhesong/deeplx-gateway/internal/core/domain"
)

const DefaultFileWriteDelay = 150 * time.Millisecond

var (
	lastReload  time.Time
	reloadMutex sync.Mutex
)

// Load builds a Config from environment variables via viper.AutomaticEnv,
// mirroring the teacher's Load but against a flat env-var surface instead
// of a nested YAML document. If DEEPLX_CONFIG_FILE is set, that file is
// also read. When onConfigChange is non-nil, the config file is watched for
// changes with the same fsnotify debounce the teacher uses for its endpoint
// list; with a nil callback nothing is watched.
func Load(onConfigChange func()) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindDefaults(v, cfg)

	if configFile := v.GetString("deeplx_config_file"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var urls []string
	for _, u := range strings.Split(v.GetString("translation_api_urls"), ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		urls = v.GetStringSlice("translation_api_urls")
	}
	if len(urls) == 0 {
		return nil, domain.NewConfigError("TRANSLATION_API_URLS", fmt.Errorf("no upstream translation endpoints configured"))
	}
	cfg.TranslationAPIURLs = urls

	cfg.MaxRequestsPerMinute = v.GetInt("max_requests_per_minute")
	cfg.Timeout = time.Duration(v.GetInt("timeout")) * time.Second
	cfg.MaxWorkers = v.GetInt("max_workers")
	cfg.CheckTimeout = time.Duration(v.GetInt("check_timeout")) * time.Second
	cfg.CheckInterval = time.Duration(v.GetInt("check_interval")) * time.Second
	cfg.InitialCheckDelay = time.Duration(v.GetInt("initial_check_delay")) * time.Second
	cfg.MaxTextLength = v.GetInt("max_text_length")
	cfg.MinAvailableURLs = v.GetInt("min_available_urls")
	cfg.AutoUpdateURLs = v.GetBool("auto_update_urls")
	cfg.EnableStreaming = v.GetBool("enable_streaming")
	cfg.TestText = v.GetString("test_text")
	cfg.TestSourceLang = v.GetString("test_source_lang")
	cfg.TestTargetLang = v.GetString("test_target_lang")
	cfg.ExportPath = v.GetString("export_path")
	cfg.ResultFormat = v.GetString("result_format")
	cfg.Port = v.GetInt("port")
	cfg.Host = v.GetString("host")
	cfg.LogLevel = v.GetString("log_level")
	cfg.Debug = v.GetBool("debug")

	if onConfigChange != nil {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			reloadMutex.Lock()
			defer reloadMutex.Unlock()

			now := time.Now()
			if now.Sub(lastReload) < 500*time.Millisecond {
				return
			}
			lastReload = now

			time.Sleep(DefaultFileWriteDelay)
			onConfigChange()
		})
	}

	return cfg, nil
}

// bindDefaults seeds viper with DefaultConfig's values so GetInt/GetBool
// fall back sanely even when an env var is entirely absent.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("max_requests_per_minute", cfg.MaxRequestsPerMinute)
	v.SetDefault("timeout", int(cfg.Timeout.Seconds()))
	v.SetDefault("max_workers", cfg.MaxWorkers)
	v.SetDefault("check_timeout", int(cfg.CheckTimeout.Seconds()))
	v.SetDefault("check_interval", int(cfg.CheckInterval.Seconds()))
	v.SetDefault("initial_check_delay", int(cfg.InitialCheckDelay.Seconds()))
	v.SetDefault("max_text_length", cfg.MaxTextLength)
	v.SetDefault("min_available_urls", cfg.MinAvailableURLs)
	v.SetDefault("auto_update_urls", cfg.AutoUpdateURLs)
	v.SetDefault("enable_streaming", cfg.EnableStreaming)
	v.SetDefault("test_text", cfg.TestText)
	v.SetDefault("test_source_lang", cfg.TestSourceLang)
	v.SetDefault("test_target_lang", cfg.TestTargetLang)
	v.SetDefault("export_path", cfg.ExportPath)
	v.SetDefault("result_format", cfg.ResultFormat)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("debug", cfg.Debug)
}
