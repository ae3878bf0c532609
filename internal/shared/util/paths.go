package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePatternPath turns a project path into the slash separated, cleaned
// form used as a source path and for glob matching. "." becomes "".
func NormalizePatternPath(s string) string {
	clean := path.Clean(strings.TrimSpace(strings.ReplaceAll(s, "\\", "/")))
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix reports whether p is prefix or lies below it. Both are
// normalized first, so "a/b" is below "a/" but "ab" is not below "a".
func HasPathPrefix(p, prefix string) bool {
	p = NormalizePatternPath(p)
	prefix = NormalizePatternPath(prefix)
	switch {
	case p == "" || prefix == "":
		return p == prefix
	case p == prefix:
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

// RelativeSlash maps an absolute file path below root to its normalized
// project path. ok is false for root itself and for paths outside it.
func RelativeSlash(root, file string) (string, bool) {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return NormalizePatternPath(rel), true
}

func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs creates the parent directories of name and writes data.
func WriteFileWithDirs(name string, data []byte, perm fs.FileMode) error {
	if dir := filepath.Dir(name); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(name, data, perm)
}

func WriteStringWithDirs(name, content string, perm fs.FileMode) error {
	return WriteFileWithDirs(name, []byte(content), perm)
}
