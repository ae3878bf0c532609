package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CROSSREF_[SECTION]_[KEY] (e.g., CROSSREF_LOG_LEVEL).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Root, "CROSSREF_ROOT")

	// Index
	setEnvDuration(&cfg.Index.StopTimeout, "CROSSREF_INDEX_STOP_TIMEOUT")
	if val, ok := os.LookupEnv("CROSSREF_INDEX_GRACEFUL_STOP"); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", "CROSSREF_INDEX_GRACEFUL_STOP", "value", val)
			cfg.Index.GracefulStop = &b
		}
	}

	// Frontend
	setEnvList(&cfg.Frontend.Extensions, "CROSSREF_FRONTEND_EXTENSIONS")
	setEnvList(&cfg.Frontend.HTMLExtensions, "CROSSREF_FRONTEND_HTML_EXTENSIONS")
	setEnvString(&cfg.Frontend.HTMLScriptType, "CROSSREF_FRONTEND_HTML_SCRIPT_TYPE")
	setEnvInt(&cfg.Frontend.Workers, "CROSSREF_FRONTEND_WORKERS")
	setEnvInt(&cfg.Frontend.CacheSize, "CROSSREF_FRONTEND_CACHE_SIZE")
	setEnvFloat64(&cfg.Frontend.MaxFilesPerSecond, "CROSSREF_FRONTEND_MAX_FILES_PER_SECOND")

	// Watch
	setEnvBool(&cfg.Watch.Enabled, "CROSSREF_WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "CROSSREF_WATCH_DEBOUNCE")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "CROSSREF_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CROSSREF_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "CROSSREF_OBSERVABILITY_OTLP_INSECURE")
	setEnvString(&cfg.Observability.ServiceName, "CROSSREF_OBSERVABILITY_SERVICE_NAME")

	// Log
	setEnvString(&cfg.Log.Level, "CROSSREF_LOG_LEVEL")
	setEnvString(&cfg.Log.Format, "CROSSREF_LOG_FORMAT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value; empty items are dropped.
func setEnvList(target *[]string, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) > 0 {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = items
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
