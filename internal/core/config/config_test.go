package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainerrors "crossref/internal/core/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
root = "./src"

[index]
graceful_stop = false
stop_timeout = "5s"

[frontend]
extensions = [".java", ".jav"]
html_script_type = "application/x-java"
workers = 3
cache_size = 64
max_files_per_second = 250.0

[watch]
enabled = true
debounce = "1s"
exclude_dirs = [".git"]
exclude_files = ["**/*Test.java"]

[observability]
metrics_addr = ":9090"
service_name = "crossref-test"

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Root != "./src" {
		t.Errorf("Expected root ./src, got %s", cfg.Root)
	}
	if cfg.Index.IsGraceful() {
		t.Error("Expected graceful_stop false")
	}
	if cfg.Index.StopTimeout != 5*time.Second {
		t.Errorf("Expected stop_timeout 5s, got %v", cfg.Index.StopTimeout)
	}
	if len(cfg.Frontend.Extensions) != 2 || cfg.Frontend.Extensions[1] != ".jav" {
		t.Errorf("Unexpected extensions: %v", cfg.Frontend.Extensions)
	}
	if len(cfg.Frontend.HTMLExtensions) != 2 {
		t.Errorf("Expected default html extensions, got %v", cfg.Frontend.HTMLExtensions)
	}
	if cfg.Frontend.HTMLScriptType != "application/x-java" {
		t.Errorf("Unexpected script type %q", cfg.Frontend.HTMLScriptType)
	}
	if cfg.Frontend.Workers != 3 || cfg.Frontend.CacheSize != 64 || cfg.Frontend.MaxFilesPerSecond != 250 {
		t.Errorf("Unexpected frontend section: %+v", cfg.Frontend)
	}
	if !cfg.Watch.Enabled || cfg.Watch.Debounce != time.Second {
		t.Errorf("Unexpected watch section: %+v", cfg.Watch)
	}
	if len(cfg.Watch.ExcludeDirs) != 1 || cfg.Watch.ExcludeFiles[0] != "**/*Test.java" {
		t.Errorf("Unexpected excludes: %+v", cfg.Watch)
	}
	if cfg.Observability.MetricsAddr != ":9090" || cfg.Observability.ServiceName != "crossref-test" {
		t.Errorf("Unexpected observability section: %+v", cfg.Observability)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Unexpected log section: %+v", cfg.Log)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Index.IsGraceful() {
		t.Error("Expected graceful stop by default")
	}
	if cfg.Frontend.Workers < 1 {
		t.Errorf("Expected at least one worker, got %d", cfg.Frontend.Workers)
	}
	if cfg.Frontend.HTMLScriptType != "text/x-java" {
		t.Errorf("Unexpected default script type %q", cfg.Frontend.HTMLScriptType)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Unexpected default debounce %v", cfg.Watch.Debounce)
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("Default config must validate, got %v", errs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !domainerrors.IsCode(err, domainerrors.CodeNotFound) {
		t.Fatalf("Expected NOT_FOUND, got %v", err)
	}

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Expected defaults, got version %d", cfg.Version)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "[frontend]\nextentions = [\".java\"]\n")
	_, err := Load(path)
	if !domainerrors.IsCode(err, domainerrors.CodeValidationError) {
		t.Fatalf("Expected VALIDATION_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), "extentions") {
		t.Errorf("Expected the key in the error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"version", func(c *Config) { c.Version = 3 }, "unsupported config version 3"},
		{"extension dot", func(c *Config) { c.Frontend.Extensions = []string{"java"} }, `frontend.extensions[0] "java" must start with a dot`},
		{"shared extension", func(c *Config) { c.Frontend.HTMLExtensions = []string{".java"} }, `extension ".java" is listed as both java and html`},
		{"workers", func(c *Config) { c.Frontend.Workers = -1 }, "frontend.workers must be >= 1, got -1"},
		{"rate", func(c *Config) { c.Frontend.MaxFilesPerSecond = -2 }, "frontend.max_files_per_second must not be negative, got -2"},
		{"glob", func(c *Config) { c.Watch.ExcludeFiles = []string{"[a-"} }, `watch.exclude_files[0] "[a-"`},
		{"level", func(c *Config) { c.Log.Level = "verbose" }, "log.level must be one of"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			errs := Validate(cfg)
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tt.want) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected error containing %q, got %v", tt.want, errs)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CROSSREF_LOG_LEVEL", "warn")
	t.Setenv("CROSSREF_FRONTEND_EXTENSIONS", ".java, .jav ,")
	t.Setenv("CROSSREF_INDEX_GRACEFUL_STOP", "false")
	t.Setenv("CROSSREF_WATCH_DEBOUNCE", "250ms")
	t.Setenv("CROSSREF_FRONTEND_WORKERS", "not-a-number")

	cfg := DefaultConfig()
	workers := cfg.Frontend.Workers
	ApplyEnvOverrides(cfg)

	if cfg.Log.Level != "warn" {
		t.Errorf("Expected level warn, got %s", cfg.Log.Level)
	}
	if len(cfg.Frontend.Extensions) != 2 || cfg.Frontend.Extensions[1] != ".jav" {
		t.Errorf("Unexpected extensions %v", cfg.Frontend.Extensions)
	}
	if cfg.Index.IsGraceful() {
		t.Error("Expected graceful stop disabled")
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.Frontend.Workers != workers {
		t.Errorf("Invalid override must be ignored, got %d workers", cfg.Frontend.Workers)
	}
}
