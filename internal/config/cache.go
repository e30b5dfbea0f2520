package config

import "sync"

// Cache is an explicit process-scoped handle for the loaded settings.
// Construct one at process start and thread it through to collaborators
// instead of relying on a hidden module global; tests then control exactly
// which snapshot a component sees.
type Cache struct {
	mu   sync.Mutex
	path string
	cfg  *Config
}

// NewCache creates a cache that loads from the given path (empty = XDG
// search path) on first use.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// GetOrLoad returns the cached settings, loading them on first call.
// The loaded snapshot is never invalidated within a process lifetime unless
// Invalidate is called explicitly.
func (c *Cache) GetOrLoad() (*Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := Load(c.path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// Set installs a settings snapshot directly, bypassing file loading.
// Intended for embedding and tests.
func (c *Cache) Set(cfg *Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

// Invalidate drops the cached snapshot so the next GetOrLoad reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.cfg = nil
	c.mu.Unlock()
}
