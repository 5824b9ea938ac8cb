// Package capacity decides whether a requested pickup time would push the
// rolling admission window over the configured production limit, and builds
// the per-day catalog of offerable pickup slots. Everything here is pure
// read/compute: accepting an overloaded order anyway is the caller's
// decision after explicit operator confirmation, never made here.
package capacity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
)

// OrderSource yields the persisted, non-cancelled orders for a delivery
// date. Cancelled orders must already be filtered out: their capacity
// weight is released from every window the moment they are cancelled.
type OrderSource interface {
	ListByDate(ctx context.Context, date string) ([]model.Order, error)
}

// SettingsSource yields the production settings. It may return
// repository.ErrSettingsNotFound when none were ever saved.
type SettingsSource interface {
	Production(ctx context.Context) (*model.ProductionSettings, error)
}

// WindowLoad is the admission decision input handed back to the caller.
// When Unlimited is true no settings were available; evaluation was skipped
// and the order is admittable regardless of load (availability of sales is
// prioritized over strict capacity enforcement).
type WindowLoad struct {
	ExistingLoad  int  `json:"existing_load"`
	CandidateLoad int  `json:"candidate_load"`
	TotalLoad     int  `json:"total_load"`
	Limit         int  `json:"limit"`
	Unlimited     bool `json:"unlimited,omitempty"`
	Overloaded    bool `json:"overloaded"`
}

// Evaluator computes window loads from persisted orders and settings.
type Evaluator struct {
	orders   OrderSource
	settings SettingsSource
}

// NewEvaluator returns an Evaluator over the given sources.
func NewEvaluator(orders OrderSource, settings SettingsSource) *Evaluator {
	return &Evaluator{orders: orders, settings: settings}
}

// EvaluateWindow computes the load of the admission window centered on the
// given date and "15:04" time. candidate is the line-item list of the order
// being evaluated (not yet persisted, or being edited); excludeOrderID lets
// an edit exclude its own persisted weight from the existing load. The
// same window rule applies to every slot regardless of origin: the window
// extends the full configured minutes on each side, half-open at the end.
func (e *Evaluator) EvaluateWindow(ctx context.Context, date, timeOfDay string, candidate []model.OrderItem, excludeOrderID uint64) (WindowLoad, error) {
	center, err := MinuteOfDay(timeOfDay)
	if err != nil {
		return WindowLoad{}, err
	}
	candidateLoad := model.ItemsWeight(candidate)

	settings, err := e.settings.Production(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingsNotFound) {
			log.Printf("capacity: settings unavailable, admitting without limit: %v", err)
		}
		return WindowLoad{
			CandidateLoad: candidateLoad,
			TotalLoad:     candidateLoad,
			Unlimited:     true,
		}, nil
	}

	orders, err := e.orders.ListByDate(ctx, date)
	if err != nil {
		return WindowLoad{}, err
	}
	existing := windowWeight(orders, center, settings.WindowMinutes, excludeOrderID)
	total := existing + candidateLoad
	return WindowLoad{
		ExistingLoad:  existing,
		CandidateLoad: candidateLoad,
		TotalLoad:     total,
		Limit:         settings.Limit,
		Overloaded:    total > settings.Limit,
	}, nil
}

// windowWeight sums the capacity weight of orders whose delivery time falls
// in [center-window, center+window), skipping the excluded order. Orders
// with unparsable times are skipped; they cannot be placed in any window.
func windowWeight(orders []model.Order, center, windowMinutes int, excludeOrderID uint64) int {
	start := center - windowMinutes
	end := center + windowMinutes
	total := 0
	for _, o := range orders {
		if o.Status == model.StatusCancelled {
			continue
		}
		if excludeOrderID != 0 && o.ID == excludeOrderID {
			continue
		}
		m, err := MinuteOfDay(o.DeliveryTime)
		if err != nil {
			continue
		}
		if m >= start && m < end {
			total += o.CapacityWeight()
		}
	}
	return total
}

// MinuteOfDay parses a "15:04" wall-clock string into minutes since
// midnight.
func MinuteOfDay(timeOfDay string) (int, error) {
	parts := strings.SplitN(timeOfDay, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", timeOfDay)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid time %q", timeOfDay)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", timeOfDay)
	}
	return h*60 + m, nil
}

// FormatMinute renders minutes since midnight back into "15:04" form.
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
