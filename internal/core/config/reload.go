package config

import (
	"reflect"
	"slices"
)

// RestartRequired lists the settings that differ between old and updated but
// only take effect when the process starts again.
func RestartRequired(old, updated *Config) []string {
	if old == nil || updated == nil {
		return nil
	}
	var fields []string
	if old.Root != updated.Root {
		fields = append(fields, "root")
	}
	if old.Index.IsGraceful() != updated.Index.IsGraceful() || old.Index.StopTimeout != updated.Index.StopTimeout {
		fields = append(fields, "index")
	}
	if !reflect.DeepEqual(old.Frontend, updated.Frontend) {
		fields = append(fields, "frontend")
	}
	if old.Watch.Enabled != updated.Watch.Enabled {
		fields = append(fields, "watch.enabled")
	}
	if !slices.Equal(old.Watch.ExcludeDirs, updated.Watch.ExcludeDirs) {
		fields = append(fields, "watch.exclude_dirs")
	}
	if old.Observability != updated.Observability {
		fields = append(fields, "observability")
	}
	return fields
}

// HotChanged reports whether updated changes a setting applied while running:
// logging, the watch debounce or the excluded files.
func HotChanged(old, updated *Config) bool {
	if old == nil {
		return updated != nil
	}
	if updated == nil {
		return false
	}
	return old.Log != updated.Log ||
		old.Watch.Debounce != updated.Watch.Debounce ||
		!slices.Equal(old.Watch.ExcludeFiles, updated.Watch.ExcludeFiles)
}
