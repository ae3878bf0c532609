package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var rootMarkers = []string{
	".git",
	DefaultFile,
	"pom.xml",
	"build.gradle",
	"build.gradle.kts",
}

// ResolveRoot returns the absolute project root: cfg.Root relative to cwd
// when set, otherwise the nearest ancestor of cwd holding a root marker.
func ResolveRoot(cfg *Config, cwd string) (string, error) {
	if strings.TrimSpace(cwd) == "" {
		return "", fmt.Errorf("cwd must not be empty")
	}
	if root := strings.TrimSpace(cfg.Root); root != "" {
		abs, err := filepath.Abs(ResolveRelative(cwd, root))
		if err != nil {
			return "", err
		}
		return abs, nil
	}
	return DetectProjectRoot([]string{cwd})
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate until a directory holds a
// root marker. Without a match the first candidate itself is the root.
func DetectProjectRoot(candidates []string) (string, error) {
	var fallback string
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}
		if fallback == "" {
			fallback = root
		}

		for {
			for _, marker := range rootMarkers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	if fallback != "" {
		return filepath.Clean(fallback), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
