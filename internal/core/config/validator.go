package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Validate returns every problem found in cfg. Defaults must already be
// applied.
func Validate(cfg *Config) []error {
	var errs []error
	errs = append(errs, validateVersion(cfg)...)
	errs = append(errs, validateIndex(cfg)...)
	errs = append(errs, validateFrontend(cfg)...)
	errs = append(errs, validateWatch(cfg)...)
	errs = append(errs, validateLog(cfg)...)
	return errs
}

func validateVersion(cfg *Config) []error {
	if cfg.Version != 1 {
		return []error{fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)}
	}
	return nil
}

func validateIndex(cfg *Config) []error {
	if cfg.Index.StopTimeout < 0 {
		return []error{fmt.Errorf("index.stop_timeout must not be negative, got %s", cfg.Index.StopTimeout)}
	}
	return nil
}

func validateFrontend(cfg *Config) []error {
	var errs []error
	errs = append(errs, validateExtensions("frontend.extensions", cfg.Frontend.Extensions)...)
	errs = append(errs, validateExtensions("frontend.html_extensions", cfg.Frontend.HTMLExtensions)...)

	seen := make(map[string]string)
	for _, ext := range cfg.Frontend.Extensions {
		seen[strings.ToLower(ext)] = "frontend.extensions"
	}
	for _, ext := range cfg.Frontend.HTMLExtensions {
		if _, dup := seen[strings.ToLower(ext)]; dup {
			errs = append(errs, fmt.Errorf("extension %q is listed as both java and html", ext))
		}
	}

	if strings.TrimSpace(cfg.Frontend.HTMLScriptType) == "" {
		errs = append(errs, fmt.Errorf("frontend.html_script_type must not be empty"))
	}
	if cfg.Frontend.Workers < 1 {
		errs = append(errs, fmt.Errorf("frontend.workers must be >= 1, got %d", cfg.Frontend.Workers))
	}
	if cfg.Frontend.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("frontend.cache_size must be >= 1, got %d", cfg.Frontend.CacheSize))
	}
	if cfg.Frontend.MaxFilesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("frontend.max_files_per_second must not be negative, got %g", cfg.Frontend.MaxFilesPerSecond))
	}
	return errs
}

func validateExtensions(field string, exts []string) []error {
	var errs []error
	for i, ext := range exts {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("%s[%d] %q must start with a dot", field, i, ext))
		}
	}
	return errs
}

func validateWatch(cfg *Config) []error {
	var errs []error
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce))
	}
	for i, pattern := range cfg.Watch.ExcludeFiles {
		if _, err := glob.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("watch.exclude_files[%d] %q: %w", i, pattern, err))
		}
	}
	for i, dir := range cfg.Watch.ExcludeDirs {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("watch.exclude_dirs[%d] must not be empty", i))
		}
	}
	return errs
}

func validateLog(cfg *Config) []error {
	var errs []error
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error"))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: text, json"))
	}
	return errs
}
