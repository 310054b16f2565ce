package caching

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache stores fetched documents on disk with a TTL.
type Cache struct {
	path string
	ttl  time.Duration
}

// Entry is one cached document.
type Entry struct {
	URL         string    `yaml:"url"`
	ContentType string    `yaml:"content_type,omitempty"`
	FetchedAt   time.Time `yaml:"fetched_at"`
	Body        string    `yaml:"body"`
}

// NewCache creates a new Cache instance.
// The cache path will be created if it doesn't exist.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		path: path,
		ttl:  ttl,
	}, nil
}

// key generates a SHA256 hash of the URL to use as a filename.
func (c *Cache) key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x.yaml", hash)
}

// Get returns the entry for url if present and younger than the TTL.
// A zero TTL disables reads.
func (c *Cache) Get(url string) (*Entry, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	filePath := filepath.Join(c.path, c.key(url))

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false // Cache miss
	}

	// Check if expired
	if time.Since(info.ModTime()) > c.ttl {
		return nil, false // Cache miss (expired)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false // Cache miss (read error)
	}
	var entry Entry
	if err := yaml.Unmarshal(data, &entry); err != nil || entry.URL != url {
		return nil, false // Cache miss (corrupt or hash collision)
	}

	return &entry, true // Cache hit
}

// Set stores entry under its URL.
func (c *Cache) Set(entry Entry) error {
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now().UTC()
	}
	data, err := yaml.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	filePath := filepath.Join(c.path, c.key(entry.URL))
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
