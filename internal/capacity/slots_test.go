package capacity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
)

func testCatalog(orders *fakeOrders, settings *fakeSettings) *Catalog {
	return NewCatalog(orders, settings, "10:00", "12:00", 30, 80)
}

func slotByTime(t *testing.T, slots []model.TimeSlot, at string) model.TimeSlot {
	t.Helper()
	for _, s := range slots {
		if s.Time == at {
			return s
		}
	}
	t.Fatalf("no slot at %s in %v", at, slots)
	return model.TimeSlot{}
}

func TestBuildSlots_CadenceAndOrdering(t *testing.T) {
	cat := testCatalog(&fakeOrders{}, &fakeSettings{settings: &model.ProductionSettings{Limit: 100, WindowMinutes: 30}})
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.Local)

	slots, err := cat.BuildSlots(context.Background(), "2026-09-01", nil, now)
	require.NoError(t, err)
	times := make([]string, len(slots))
	for i, s := range slots {
		times[i] = s.Time
	}
	assert.Equal(t, []string{"10:00", "10:30", "11:00", "11:30", "12:00"}, times)
}

func TestBuildSlots_ManualMergedDedupedSorted(t *testing.T) {
	cat := testCatalog(&fakeOrders{}, &fakeSettings{settings: &model.ProductionSettings{Limit: 100, WindowMinutes: 30}})
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.Local)

	manual := []string{"11:45", "10:30", "9:15", "bogus"}
	slots, err := cat.BuildSlots(context.Background(), "2026-09-01", manual, now)
	require.NoError(t, err)
	times := make([]string, len(slots))
	for i, s := range slots {
		times[i] = s.Time
	}
	// 10:30 deduplicates against the cadence, bogus is dropped, the rest
	// sort chronologically.
	assert.Equal(t, []string{"09:15", "10:00", "10:30", "11:00", "11:30", "11:45", "12:00"}, times)
}

func TestBuildSlots_PastOnlyOnToday(t *testing.T) {
	cat := testCatalog(&fakeOrders{}, &fakeSettings{settings: &model.ProductionSettings{Limit: 100, WindowMinutes: 30}})
	now := time.Date(2026, 9, 1, 11, 10, 0, 0, time.Local)

	today := now.Format("2006-01-02")
	slots, err := cat.BuildSlots(context.Background(), today, nil, now)
	require.NoError(t, err)
	assert.Equal(t, model.SlotPast, slotByTime(t, slots, "10:30").State)
	assert.Equal(t, model.SlotPast, slotByTime(t, slots, "11:00").State)
	assert.Equal(t, model.SlotAvailable, slotByTime(t, slots, "11:30").State)

	// The same elapsed time on a future date is not past.
	slots, err = cat.BuildSlots(context.Background(), "2026-09-02", nil, now)
	require.NoError(t, err)
	assert.Equal(t, model.SlotAvailable, slotByTime(t, slots, "10:30").State)
}

func TestBuildSlots_CurrentMinuteStillOfferable(t *testing.T) {
	cat := testCatalog(&fakeOrders{}, &fakeSettings{settings: &model.ProductionSettings{Limit: 100, WindowMinutes: 30}})
	now := time.Date(2026, 9, 1, 11, 0, 0, 0, time.Local)

	slots, err := cat.BuildSlots(context.Background(), now.Format("2006-01-02"), nil, now)
	require.NoError(t, err)
	assert.Equal(t, model.SlotPast, slotByTime(t, slots, "10:30").State)
	assert.Equal(t, model.SlotAvailable, slotByTime(t, slots, "11:00").State,
		"a slot at exactly the current minute has not elapsed yet")
}

func TestBuildSlots_LoadStates(t *testing.T) {
	orders := &fakeOrders{orders: []model.Order{
		weighted(1, "2026-09-01", "10:00", 120), // overloads its window
		weighted(2, "2026-09-01", "11:30", 85),  // near the limit
	}}
	cat := testCatalog(orders, &fakeSettings{settings: &model.ProductionSettings{Limit: 100, WindowMinutes: 15}})
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.Local)

	slots, err := cat.BuildSlots(context.Background(), "2026-09-01", nil, now)
	require.NoError(t, err)

	assert.Equal(t, model.SlotOverloaded, slotByTime(t, slots, "10:00").State)
	assert.Equal(t, 120, slotByTime(t, slots, "10:00").ExistingLoad)
	assert.Equal(t, model.SlotNearLimit, slotByTime(t, slots, "11:30").State)
	assert.Equal(t, model.SlotAvailable, slotByTime(t, slots, "12:00").State)
	assert.Equal(t, 0, slotByTime(t, slots, "11:00").ExistingLoad,
		"windows are per-slot, an order 30 minutes away with a 15 minute window does not bleed over")
}

func TestBuildSlots_UnlimitedWithoutSettings(t *testing.T) {
	orders := &fakeOrders{orders: []model.Order{weighted(1, "2026-09-01", "10:00", 9999)}}
	cat := testCatalog(orders, &fakeSettings{err: repository.ErrSettingsNotFound})
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.Local)

	slots, err := cat.BuildSlots(context.Background(), "2026-09-01", nil, now)
	require.NoError(t, err)
	assert.Equal(t, model.SlotAvailable, slotByTime(t, slots, "10:00").State)
}

func TestManualSlots_SessionMemoryPerDate(t *testing.T) {
	m := NewManualSlots()
	m.Add("2026-09-01", "13:15")
	m.Add("2026-09-01", "13:15") // duplicate ignored
	m.Add("2026-09-01", "14:45")
	assert.Equal(t, []string{"13:15", "14:45"}, m.For("2026-09-01"))

	// Switching dates discards the previous date's slots.
	m.Add("2026-09-02", "09:30")
	assert.Equal(t, []string{"09:30"}, m.For("2026-09-02"))
	assert.Nil(t, m.For("2026-09-01"))
}
