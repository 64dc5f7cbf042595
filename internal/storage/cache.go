package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores processed outputs on disk, keyed by source digest and preset
// name. Only override-free requests are cached; overrides make a request
// unique, so caching them would just grow the directory without hits.
// Layout: {baseDir}/{digest}/{preset}.{ext}
type Cache struct {
	baseDir string
}

// NewCache creates the cache, ensuring the base directory exists.
func NewCache(baseDir string) (*Cache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{baseDir: baseDir}, nil
}

// Path returns the cache location for a digest/preset/format combination.
func (c *Cache) Path(digest, presetName, format string) string {
	return filepath.Join(c.baseDir, digest, presetName+"."+ext(format))
}

// Read returns the cached bytes, or an error when the entry is absent.
func (c *Cache) Read(digest, presetName, format string) ([]byte, error) {
	data, err := os.ReadFile(c.Path(digest, presetName, format))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cache miss: %s/%s", digest, presetName)
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	return data, nil
}

// Write stores processed bytes, creating the digest directory if needed.
func (c *Cache) Write(digest, presetName, format string, data []byte) error {
	dir := filepath.Join(c.baseDir, digest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache entry directory: %w", err)
	}
	if err := os.WriteFile(c.Path(digest, presetName, format), data, 0644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Exists checks whether an entry is cached.
func (c *Cache) Exists(digest, presetName, format string) bool {
	_, err := os.Stat(c.Path(digest, presetName, format))
	return err == nil
}

// Purge removes every cached output for a digest.
func (c *Cache) Purge(digest string) error {
	return os.RemoveAll(filepath.Join(c.baseDir, digest))
}

func ext(format string) string {
	switch format {
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return "jpg"
	}
}
