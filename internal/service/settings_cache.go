package service

import (
	"context"
	"errors"
	"sync"

	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
)

// SettingsStore is the persistence surface the cache sits on, implemented
// by repository.SettingsRepo.
type SettingsStore interface {
	Production(ctx context.Context) (*model.ProductionSettings, error)
	SaveProduction(ctx context.Context, s model.ProductionSettings) error
}

// SettingsCache loads production settings once per session and serves the
// cached value to the capacity evaluator. Only an explicit save mutates the
// settings; saving writes through and refreshes the cache. Store errors are
// never cached so a transient outage does not pin a stale miss.
type SettingsCache struct {
	repo SettingsStore

	mu      sync.Mutex
	loaded  bool
	missing bool
	cached  model.ProductionSettings
}

// NewSettingsCache returns a cache over the given store.
func NewSettingsCache(repo SettingsStore) *SettingsCache {
	return &SettingsCache{repo: repo}
}

// Production returns the cached settings, loading them on first use.
// A persisted "never saved" state is cached too and keeps returning
// repository.ErrSettingsNotFound until a save happens.
func (c *SettingsCache) Production(ctx context.Context) (*model.ProductionSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		if c.missing {
			return nil, repository.ErrSettingsNotFound
		}
		s := c.cached
		return &s, nil
	}
	s, err := c.repo.Production(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		c.loaded = true
		c.missing = true
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	c.loaded = true
	c.missing = false
	c.cached = *s
	out := c.cached
	return &out, nil
}

// Save persists new settings and refreshes the cache on success.
func (c *SettingsCache) Save(ctx context.Context, s model.ProductionSettings) error {
	if err := c.repo.SaveProduction(ctx, s); err != nil {
		return err
	}
	c.mu.Lock()
	c.loaded = true
	c.missing = false
	c.cached = s
	c.mu.Unlock()
	return nil
}
