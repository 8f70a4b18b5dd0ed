package bundler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of transformed modules kept between builds
const DefaultCacheSize = 2048

// TransformCache keeps lowered module sources keyed by path, target and content.
// It is safe for concurrent use by esbuild's loader goroutines.
type TransformCache struct {
	entries *lru.Cache[string, string]
}

// NewTransformCache creates a cache holding up to size modules
func NewTransformCache(size int) (*TransformCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create transform cache: %w", err)
	}
	return &TransformCache{entries: entries}, nil
}

func (c *TransformCache) get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.entries.Get(key)
}

func (c *TransformCache) put(key, code string) {
	if c == nil {
		return
	}
	c.entries.Add(key, code)
}

// Len returns the number of cached modules
func (c *TransformCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func transformKey(path, target string, sourcemap bool, src []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s\x00%s\x00%t\x00", path, target, sourcemap)
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}
