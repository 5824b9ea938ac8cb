package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
	"github.com/salgaderia/pos/internal/sequence"
	"github.com/salgaderia/pos/internal/service"
)

// OrderHandler exposes the order admission pipeline over HTTP. Capacity
// overload is never auto-rejected: the create and update endpoints answer
// 409 with the window load and the client re-submits with confirm_overload
// once the operator decided.
type OrderHandler struct {
	Service   *service.OrderService
	Allocator *sequence.Allocator
}

// NewOrderHandler constructs an OrderHandler. Both dependencies must be
// non-nil.
func NewOrderHandler(svc *service.OrderService, alloc *sequence.Allocator) *OrderHandler {
	if svc == nil || alloc == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	return &OrderHandler{Service: svc, Allocator: alloc}
}

// orderRequest is the JSON body for create and update.
type orderRequest struct {
	CustomerName    string            `json:"customer_name"`
	Phone           string            `json:"phone"`
	Items           []model.OrderItem `json:"items"`
	DeliveryDate    string            `json:"delivery_date"`
	DeliveryTime    string            `json:"delivery_time"`
	Notes           string            `json:"notes"`
	ConfirmOverload bool              `json:"confirm_overload"`
}

func (r orderRequest) toOrder() model.Order {
	return model.Order{
		CustomerName: strings.TrimSpace(r.CustomerName),
		Phone:        strings.TrimSpace(r.Phone),
		Items:        r.Items,
		DeliveryDate: r.DeliveryDate,
		DeliveryTime: r.DeliveryTime,
		Notes:        r.Notes,
	}
}

// CreateOrder handles POST /v1/orders. Outcomes: 201 with the persisted
// order and its display number, 202 when the store was unreachable and the
// order went to the local queue, 409 with the window load when the slot is
// overloaded and the operator has not confirmed yet.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var body orderRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	result, err := h.Service.Create(c.Request().Context(), body.toOrder(), body.ConfirmOverload)
	if err != nil {
		return writeAdmissionError(c, err)
	}
	switch {
	case result.NeedsConfirmation:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  "slot overloaded, confirmation required",
			"window": result.Window,
		})
	case result.Queued:
		return c.JSON(http.StatusAccepted, echo.Map{
			"queued":   true,
			"local_id": result.LocalID,
			"message":  "store unreachable, order queued locally and will sync automatically",
		})
	default:
		return c.JSON(http.StatusCreated, echo.Map{
			"order":          result.Order,
			"display_number": result.DisplayNumber,
			"window":         result.Window,
		})
	}
}

// UpdateOrder handles PUT /v1/orders/:id. The edit keeps the order number
// and re-evaluates the window with the order's own weight excluded.
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body orderRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	result, err := h.Service.Update(c.Request().Context(), id, body.toOrder(), body.ConfirmOverload)
	if err != nil {
		if errors.Is(err, service.ErrOrderCancelled) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is cancelled"})
		}
		return writeAdmissionError(c, err)
	}
	if result.NeedsConfirmation {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  "slot overloaded, confirmation required",
			"window": result.Window,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order":          result.Order,
		"display_number": result.DisplayNumber,
		"window":         result.Window,
	})
}

// CancelOrder handles POST /v1/orders/:id/cancel. Cancellation releases
// the order's capacity weight from every window and keeps its number.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	if err := h.Service.Cancel(c.Request().Context(), id); err != nil {
		return writeAdmissionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": model.StatusCancelled})
}

// GetOrder handles GET /v1/orders/:id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, err := h.Service.Get(c.Request().Context(), id)
	if err != nil {
		return writeAdmissionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order":          o,
		"display_number": h.Allocator.Format(o.OrderNumber),
	})
}

// PeekNumber handles GET /v1/orders/next-number. The value is display-only
// and non-binding; when the read fails the handler answers with a neutral
// placeholder instead of an error, because the allocate at save time is the
// only authoritative assignment.
func (h *OrderHandler) PeekNumber(c echo.Context) error {
	n, err := h.Allocator.Peek(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{
			"display_number": "----",
			"authoritative":  false,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"number":         n,
		"display_number": h.Allocator.Format(n),
		"authoritative":  false,
	})
}

// writeAdmissionError maps pipeline errors onto HTTP responses. Transaction
// conflicts are retryable from scratch; everything unexpected is a 500.
func writeAdmissionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	case errors.Is(err, repository.ErrTxConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "write conflict, retry the save"})
	case errors.Is(err, repository.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unreachable"})
	case errors.Is(err, service.ErrInvalidOrder):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
