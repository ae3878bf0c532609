package frontend

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"crossref/internal/shared/observability"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 1024

type cacheKey struct {
	path string
	lang string
	hash string
}

// parsedSource is an immutable parse result shared by every reader.
type parsedSource struct {
	lang    string
	content []byte
	root    *syntaxNode
}

// ParseCache memoizes syntax trees by path and content hash, so re-declaring
// an unchanged file and resolving it afterwards parse it once.
type ParseCache struct {
	loader *GrammarLoader
	trees  *lru.Cache[cacheKey, *parsedSource]
}

func NewParseCache(loader *GrammarLoader, size int) (*ParseCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	trees, err := lru.New[cacheKey, *parsedSource](size)
	if err != nil {
		return nil, err
	}
	return &ParseCache{loader: loader, trees: trees}, nil
}

// parse returns the cached tree for (path, content) or parses content.
func (c *ParseCache) parse(path, lang string, content []byte) (*parsedSource, error) {
	sum := sha256.Sum256(content)
	key := cacheKey{path: path, lang: lang, hash: hex.EncodeToString(sum[:])}
	if ps, ok := c.trees.Get(key); ok {
		observability.ParseCacheHitsTotal.Inc()
		return ps, nil
	}

	started := time.Now()
	root, err := c.loader.parse(lang, content)
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	ps := &parsedSource{lang: lang, content: append([]byte(nil), content...), root: root}
	c.trees.Add(key, ps)
	return ps, nil
}

// Len returns the number of cached trees.
func (c *ParseCache) Len() int {
	return c.trees.Len()
}

// Purge drops every cached tree.
func (c *ParseCache) Purge() {
	c.trees.Purge()
}
