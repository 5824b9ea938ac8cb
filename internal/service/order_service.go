// Package service implements the order admission pipeline: capacity
// evaluation, sequence allocation, persistence, offline queuing and the
// downstream side effects that follow a successful save.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/salgaderia/pos/internal/capacity"
	"github.com/salgaderia/pos/internal/connectivity"
	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/offline"
	queueevents "github.com/salgaderia/pos/internal/queue"
	"github.com/salgaderia/pos/internal/repository"
	"github.com/salgaderia/pos/internal/sequence"
)

// ErrOrderCancelled is returned when an edit targets a cancelled order.
var ErrOrderCancelled = errors.New("order is cancelled")

// ErrInvalidOrder wraps every draft validation failure so handlers can map
// them to a 400 without inspecting message text.
var ErrInvalidOrder = errors.New("invalid order")

// ClientDirectory records returning customers after a confirmed order.
type ClientDirectory interface {
	UpsertByPhone(ctx context.Context, phone, name string) error
}

// StockAdjuster deducts sold quantities for catalog-backed order lines.
type StockAdjuster interface {
	Decrement(ctx context.Context, productID uint64, quantity int) error
}

// OrderService owns the admission pipeline. One instance is constructed
// per process and shared by all handlers; all session state it carries
// (settings cache, manual slots) lives in its collaborators.
type OrderService struct {
	orders    OrderStore
	clients   ClientDirectory
	stock     StockAdjuster
	allocator *sequence.Allocator
	evaluator *capacity.Evaluator
	queue     offline.Queue
	monitor   *connectivity.Monitor
	notifier  Notifier
}

// NewOrderService wires the pipeline. clients, stock and notifier are
// optional side-effect collaborators; everything else must be non-nil.
func NewOrderService(
	orders OrderStore,
	clients ClientDirectory,
	stock StockAdjuster,
	allocator *sequence.Allocator,
	evaluator *capacity.Evaluator,
	queue offline.Queue,
	monitor *connectivity.Monitor,
	notifier Notifier,
) *OrderService {
	if orders == nil || allocator == nil || evaluator == nil || queue == nil || monitor == nil {
		panic("nil dependency passed to NewOrderService")
	}
	return &OrderService{
		orders:    orders,
		clients:   clients,
		stock:     stock,
		allocator: allocator,
		evaluator: evaluator,
		queue:     queue,
		monitor:   monitor,
		notifier:  notifier,
	}
}

// AdmissionResult is what a create or edit hands back to the handler.
// Exactly one of the following holds: NeedsConfirmation (overloaded window,
// operator must confirm or pick another slot), Queued (store unreachable,
// order is in the local queue without a number), or Order is set with its
// definitive number.
type AdmissionResult struct {
	Order             *model.Order        `json:"order,omitempty"`
	Window            capacity.WindowLoad `json:"window"`
	NeedsConfirmation bool                `json:"needs_confirmation,omitempty"`
	Queued            bool                `json:"queued,omitempty"`
	LocalID           string              `json:"local_id,omitempty"`
	DisplayNumber     string              `json:"display_number,omitempty"`
}

// Create admits a new order: evaluate the window, allocate a number and
// persist, or queue locally when the store is unreachable. Overload never
// rejects silently; with confirmOverload false the result asks the operator
// to decide, with true the order is admitted over the limit.
func (s *OrderService) Create(ctx context.Context, draft model.Order, confirmOverload bool) (*AdmissionResult, error) {
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	window, err := s.evaluator.EvaluateWindow(ctx, draft.DeliveryDate, draft.DeliveryTime, draft.Items, 0)
	if err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			s.monitor.ReportDown()
			return s.enqueue(ctx, draft)
		}
		return nil, err
	}
	if window.Overloaded && !confirmOverload {
		return &AdmissionResult{Window: window, NeedsConfirmation: true}, nil
	}

	persisted, err := s.persistNew(ctx, draft)
	if err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			s.monitor.ReportDown()
			return s.enqueue(ctx, draft)
		}
		return nil, err
	}
	s.monitor.ReportUp()
	s.runSideEffects(ctx, persisted, false)
	return &AdmissionResult{
		Order:         persisted,
		Window:        window,
		DisplayNumber: s.allocator.Format(persisted.OrderNumber),
	}, nil
}

// PersistQueued replays one offline order: allocate immediately before
// persistence (numbers follow replay order), then the same side effects an
// online order gets. Implements offline.Persister for the sync coordinator.
func (s *OrderService) PersistQueued(ctx context.Context, o model.Order) (*model.Order, error) {
	persisted, err := s.persistNew(ctx, o)
	if err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			s.monitor.ReportDown()
		}
		return nil, err
	}
	s.monitor.ReportUp()
	s.runSideEffects(ctx, persisted, true)
	return persisted, nil
}

// persistNew allocates the order number and inserts the order inside one
// transaction, so the number is never issued without the order committing
// alongside the advanced counter.
func (s *OrderService) persistNew(ctx context.Context, o model.Order) (*model.Order, error) {
	err := s.orders.RunInOrderTx(ctx, func(tx OrderTx) error {
		number, err := s.allocator.AllocateInTx(ctx, tx)
		if err != nil {
			return err
		}
		o.OrderNumber = number
		o.Status = model.StatusActive
		return tx.CreateOrder(ctx, &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// enqueue pushes the order into the durable local queue. This path never
// assigns a number; one is allocated at replay time. A failure here is the
// local storage itself breaking and is surfaced loudly.
func (s *OrderService) enqueue(ctx context.Context, draft model.Order) (*AdmissionResult, error) {
	draft.Status = model.StatusNew
	draft.OrderNumber = 0
	entry, err := s.queue.Enqueue(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("store unreachable and local queue failed: %w", err)
	}
	log.Printf("orders: store unreachable, queued order locally as %s", entry.LocalID)
	return &AdmissionResult{Queued: true, LocalID: entry.LocalID}, nil
}

// Update edits a persisted order: re-evaluate the window excluding the
// order's own prior weight, keep the number, set status modified. Edits
// have no offline path; a store failure surfaces to the operator.
func (s *OrderService) Update(ctx context.Context, id uint64, draft model.Order, confirmOverload bool) (*AdmissionResult, error) {
	existing, err := s.orders.GetByID(ctx, id)
	if err != nil {
		s.reportStoreOutcome(err)
		return nil, err
	}
	if existing.Status == model.StatusCancelled {
		return nil, ErrOrderCancelled
	}
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	window, err := s.evaluator.EvaluateWindow(ctx, draft.DeliveryDate, draft.DeliveryTime, draft.Items, id)
	if err != nil {
		s.reportStoreOutcome(err)
		return nil, err
	}
	if window.Overloaded && !confirmOverload {
		return &AdmissionResult{Window: window, NeedsConfirmation: true}, nil
	}

	draft.ID = id
	draft.OrderNumber = existing.OrderNumber
	draft.Status = model.StatusModified
	if err := s.orders.Update(ctx, &draft); err != nil {
		s.reportStoreOutcome(err)
		return nil, err
	}
	s.monitor.ReportUp()
	return &AdmissionResult{
		Order:         &draft,
		Window:        window,
		DisplayNumber: s.allocator.Format(draft.OrderNumber),
	}, nil
}

// Cancel marks an order cancelled. Its capacity weight disappears from
// every window immediately; the number is kept and never reused.
func (s *OrderService) Cancel(ctx context.Context, id uint64) error {
	err := s.orders.SetStatus(ctx, id, model.StatusCancelled)
	s.reportStoreOutcome(err)
	return err
}

// Get loads a single order for display.
func (s *OrderService) Get(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	s.reportStoreOutcome(err)
	return o, err
}

// runSideEffects performs the post-persistence collaborator calls: client
// upsert, stock decrement and the confirmation notification. Each failure
// is logged and skipped; none of them can fail the order.
func (s *OrderService) runSideEffects(ctx context.Context, o *model.Order, replayed bool) {
	if s.clients != nil && o.Phone != "" {
		if err := s.clients.UpsertByPhone(ctx, o.Phone, o.CustomerName); err != nil {
			log.Printf("orders: client upsert failed for #%d: %v", o.OrderNumber, err)
		}
	}
	if s.stock != nil {
		for _, it := range o.Items {
			if it.ProductID == nil {
				continue
			}
			if err := s.stock.Decrement(ctx, *it.ProductID, it.Quantity); err != nil {
				log.Printf("orders: stock decrement failed for product %d on #%d: %v", *it.ProductID, o.OrderNumber, err)
			}
		}
	}
	if s.notifier != nil {
		event := queueevents.OrderConfirmedEvent{
			OrderID:       o.ID,
			OrderNumber:   o.OrderNumber,
			DisplayNumber: s.allocator.Format(o.OrderNumber),
			CustomerName:  o.CustomerName,
			DeliveryDate:  o.DeliveryDate,
			DeliveryTime:  o.DeliveryTime,
			ItemCount:     len(o.Items),
			TotalWeight:   o.CapacityWeight(),
			Replayed:      replayed,
			ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.notifier.OrderConfirmed(ctx, event); err != nil {
			log.Printf("orders: confirmation publish failed for #%d: %v", o.OrderNumber, err)
		}
	}
}

// reportStoreOutcome feeds the connectivity monitor from the outcome of a
// store call without changing the error.
func (s *OrderService) reportStoreOutcome(err error) {
	switch {
	case err == nil:
		s.monitor.ReportUp()
	case errors.Is(err, repository.ErrStoreUnavailable):
		s.monitor.ReportDown()
	}
}

// validateDraft checks the operator-entered order before it enters the
// pipeline.
func validateDraft(o *model.Order) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	}
	for i, it := range o.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive", ErrInvalidOrder, i+1)
		}
		if it.CapacityWeight < 0 {
			return fmt.Errorf("%w: item %d: capacity weight cannot be negative", ErrInvalidOrder, i+1)
		}
	}
	if _, err := time.Parse("2006-01-02", o.DeliveryDate); err != nil {
		return fmt.Errorf("%w: bad delivery date %q", ErrInvalidOrder, o.DeliveryDate)
	}
	if _, err := capacity.MinuteOfDay(o.DeliveryTime); err != nil {
		return fmt.Errorf("%w: bad delivery time %q", ErrInvalidOrder, o.DeliveryTime)
	}
	return nil
}
