package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
)

type fakeSettingsStore struct {
	stored    *model.ProductionSettings
	loadErr   error
	saveErr   error
	loadCalls int
}

func (f *fakeSettingsStore) Production(ctx context.Context) (*model.ProductionSettings, error) {
	f.loadCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.stored == nil {
		return nil, repository.ErrSettingsNotFound
	}
	s := *f.stored
	return &s, nil
}

func (f *fakeSettingsStore) SaveProduction(ctx context.Context, s model.ProductionSettings) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = &s
	return nil
}

func TestSettingsCache_LoadsOncePerSession(t *testing.T) {
	store := &fakeSettingsStore{stored: &model.ProductionSettings{Limit: 1200, WindowMinutes: 60}}
	cache := NewSettingsCache(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := cache.Production(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1200, s.Limit)
	}
	assert.Equal(t, 1, store.loadCalls, "the store is hit once per session")
}

func TestSettingsCache_MissingIsCachedUntilSave(t *testing.T) {
	store := &fakeSettingsStore{}
	cache := NewSettingsCache(store)
	ctx := context.Background()

	_, err := cache.Production(ctx)
	assert.ErrorIs(t, err, repository.ErrSettingsNotFound)
	_, err = cache.Production(ctx)
	assert.ErrorIs(t, err, repository.ErrSettingsNotFound)
	assert.Equal(t, 1, store.loadCalls)

	require.NoError(t, cache.Save(ctx, model.ProductionSettings{Limit: 800, WindowMinutes: 30}))
	s, err := cache.Production(ctx)
	require.NoError(t, err)
	assert.Equal(t, 800, s.Limit)
	assert.Equal(t, 1, store.loadCalls, "save refreshes the cache without reloading")
}

func TestSettingsCache_StoreErrorsAreNotCached(t *testing.T) {
	store := &fakeSettingsStore{loadErr: errors.Join(repository.ErrStoreUnavailable, errors.New("dial tcp"))}
	cache := NewSettingsCache(store)
	ctx := context.Background()

	_, err := cache.Production(ctx)
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)

	// The outage ends; the next read must go back to the store.
	store.loadErr = nil
	store.stored = &model.ProductionSettings{Limit: 500, WindowMinutes: 45}
	s, err := cache.Production(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500, s.Limit)
}

func TestSettingsCache_FailedSaveKeepsOldValue(t *testing.T) {
	store := &fakeSettingsStore{stored: &model.ProductionSettings{Limit: 1200, WindowMinutes: 60}}
	cache := NewSettingsCache(store)
	ctx := context.Background()

	_, err := cache.Production(ctx)
	require.NoError(t, err)

	store.saveErr = errors.New("write failed")
	err = cache.Save(ctx, model.ProductionSettings{Limit: 1, WindowMinutes: 1})
	require.Error(t, err)

	s, err := cache.Production(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1200, s.Limit, "a failed save must not poison the cache")
}
