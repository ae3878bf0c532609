package config

import (
	"errors"
	"os"

	domainerrors "crossref/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML file, fills in defaults, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domainerrors.AddContext(
				domainerrors.Wrap(err, domainerrors.CodeNotFound, "config file not found"),
				domainerrors.CtxPath, path)
		}
		return nil, err
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes TOML content the same way Load does.
func Parse(content string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, domainerrors.AddContext(
			domainerrors.Newf(domainerrors.CodeValidationError, "unknown config key %q", undecoded[0].String()),
			domainerrors.CtxField, undecoded[0].String())
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, domainerrors.Wrap(errors.Join(errs...), domainerrors.CodeValidationError, "invalid config")
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to DefaultConfig
// otherwise. An empty path always yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		ApplyEnvOverrides(cfg)
		return cfg, nil
	}
	cfg, err := Load(path)
	if domainerrors.IsCode(err, domainerrors.CodeNotFound) {
		cfg = DefaultConfig()
		ApplyEnvOverrides(cfg)
		return cfg, nil
	}
	return cfg, err
}
