package config

import (
	"runtime"
	"time"
)

// DefaultFile is the configuration file looked up in the project root.
const DefaultFile = "crossref.toml"

type Config struct {
	Version       int           `toml:"version"`
	Root          string        `toml:"root"`
	Index         Index         `toml:"index"`
	Frontend      Frontend      `toml:"frontend"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
	Log           Log           `toml:"log"`
}

type Index struct {
	GracefulStop *bool         `toml:"graceful_stop"`
	StopTimeout  time.Duration `toml:"stop_timeout"`
}

type Frontend struct {
	Extensions        []string `toml:"extensions"`
	HTMLExtensions    []string `toml:"html_extensions"`
	HTMLScriptType    string   `toml:"html_script_type"`
	Workers           int      `toml:"workers"`
	CacheSize         int      `toml:"cache_size"`
	MaxFilesPerSecond float64  `toml:"max_files_per_second"`
}

type Watch struct {
	Enabled      bool          `toml:"enabled"`
	Debounce     time.Duration `toml:"debounce"`
	ExcludeDirs  []string      `toml:"exclude_dirs"`
	ExcludeFiles []string      `toml:"exclude_files"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	OTLPInsecure bool   `toml:"otlp_insecure"`
	ServiceName  string `toml:"service_name"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// IsGraceful reports whether stopping the index finishes queued work. It
// defaults to true.
func (i Index) IsGraceful() bool {
	if i.GracefulStop == nil {
		return true
	}
	return *i.GracefulStop
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Index.StopTimeout <= 0 {
		cfg.Index.StopTimeout = 30 * time.Second
	}

	if len(cfg.Frontend.Extensions) == 0 {
		cfg.Frontend.Extensions = []string{".java"}
	}
	if len(cfg.Frontend.HTMLExtensions) == 0 {
		cfg.Frontend.HTMLExtensions = []string{".html", ".htm"}
	}
	if cfg.Frontend.HTMLScriptType == "" {
		cfg.Frontend.HTMLScriptType = "text/x-java"
	}
	if cfg.Frontend.Workers == 0 {
		cfg.Frontend.Workers = runtime.NumCPU()
	}
	if cfg.Frontend.CacheSize == 0 {
		cfg.Frontend.CacheSize = 1024
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.ExcludeDirs == nil {
		cfg.Watch.ExcludeDirs = []string{".git", "node_modules", "target", "build", "out"}
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "crossref"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
