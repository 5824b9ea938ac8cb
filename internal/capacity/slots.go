package capacity

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
)

// Catalog builds the list of offerable pickup slots for a date. It is a
// pure function of (date, manual slots, now, current load snapshot): no
// per-slot state is persisted and the caller decides when to rebuild.
type Catalog struct {
	orders    OrderSource
	settings  SettingsSource
	openMin   int // first cadence slot, minutes since midnight
	closeMin  int // last cadence slot, minutes since midnight
	cadence   int // minutes between cadence slots
	nearPct   int // percentage of the limit at which a slot shows near-limit
}

// NewCatalog returns a Catalog generating cadence slots between open and
// close ("15:04" form) every cadence minutes. Times that fail to parse
// fall back to a 09:00-19:00 day, logged, rather than refusing to start.
func NewCatalog(orders OrderSource, settings SettingsSource, openAt, closeAt string, cadence, nearPct int) *Catalog {
	openMin, err := MinuteOfDay(openAt)
	if err != nil {
		log.Printf("slots: invalid open time %q, using 09:00", openAt)
		openMin = 9 * 60
	}
	closeMin, err := MinuteOfDay(closeAt)
	if err != nil {
		log.Printf("slots: invalid close time %q, using 19:00", closeAt)
		closeMin = 19 * 60
	}
	if cadence <= 0 {
		cadence = 30
	}
	if nearPct <= 0 || nearPct > 100 {
		nearPct = 80
	}
	return &Catalog{
		orders:   orders,
		settings: settings,
		openMin:  openMin,
		closeMin: closeMin,
		cadence:  cadence,
		nearPct:  nearPct,
	}
}

// BuildSlots generates the cadence slots for the date, merges in the
// operator's manual slots (de-duplicated, unparsable ones dropped), sorts
// chronologically and annotates each slot with the load currently admitted
// into its window. Slots strictly earlier than now on today's date are
// marked past regardless of load; a slot at the current minute is still
// offerable. now supplies the current wall clock so callers and tests
// control time explicitly.
func (c *Catalog) BuildSlots(ctx context.Context, date string, manual []string, now time.Time) ([]model.TimeSlot, error) {
	minutes := make([]int, 0, (c.closeMin-c.openMin)/c.cadence+1+len(manual))
	seen := make(map[int]struct{})
	for m := c.openMin; m <= c.closeMin; m += c.cadence {
		minutes = append(minutes, m)
		seen[m] = struct{}{}
	}
	for _, t := range manual {
		m, err := MinuteOfDay(t)
		if err != nil {
			log.Printf("slots: dropping invalid manual slot %q", t)
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		minutes = append(minutes, m)
	}
	sort.Ints(minutes)

	settings, err := c.settings.Production(ctx)
	unlimited := false
	if err != nil {
		if !errors.Is(err, repository.ErrSettingsNotFound) {
			log.Printf("slots: settings unavailable, building catalog without limits: %v", err)
		}
		unlimited = true
	}
	orders, err := c.orders.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	isToday := date == now.Format("2006-01-02")
	nowMin := now.Hour()*60 + now.Minute()

	slots := make([]model.TimeSlot, 0, len(minutes))
	for _, m := range minutes {
		slot := model.TimeSlot{Time: FormatMinute(m)}
		if !unlimited {
			slot.ExistingLoad = windowWeight(orders, m, settings.WindowMinutes, 0)
			slot.Limit = settings.Limit
		}
		switch {
		case isToday && m < nowMin:
			slot.State = model.SlotPast
		case unlimited:
			slot.State = model.SlotAvailable
		case slot.ExistingLoad > settings.Limit:
			slot.State = model.SlotOverloaded
		case slot.ExistingLoad*100 >= settings.Limit*c.nearPct:
			slot.State = model.SlotNearLimit
		default:
			slot.State = model.SlotAvailable
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
