package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salgaderia/pos/internal/capacity"
	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
)

// SlotHandler exposes the pickup slot catalog and window evaluation read
// models consumed by the order-entry UI. Manual slots injected here are
// session memory only; switching dates discards them.
type SlotHandler struct {
	Catalog   *capacity.Catalog
	Evaluator *capacity.Evaluator
	Manual    *capacity.ManualSlots
}

// NewSlotHandler constructs a SlotHandler. All dependencies must be
// non-nil.
func NewSlotHandler(catalog *capacity.Catalog, eval *capacity.Evaluator, manual *capacity.ManualSlots) *SlotHandler {
	if catalog == nil || eval == nil || manual == nil {
		panic("nil dependency passed to NewSlotHandler")
	}
	return &SlotHandler{Catalog: catalog, Evaluator: eval, Manual: manual}
}

// GetSlots handles GET /v1/slots?date=2006-01-02. It rebuilds the catalog
// from the current load snapshot on every call; nothing is persisted per
// slot.
func (h *SlotHandler) GetSlots(c echo.Context) error {
	date := c.QueryParam("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or missing date"})
	}
	slots, err := h.Catalog.BuildSlots(c.Request().Context(), date, h.Manual.For(date), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unreachable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "slots": slots})
}

// AddManualSlot handles POST /v1/slots/manual with {date, time}. The slot
// is remembered for the session and merged into subsequent catalog builds
// for that date.
func (h *SlotHandler) AddManualSlot(c echo.Context) error {
	var body struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if _, err := capacity.MinuteOfDay(body.Time); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time"})
	}
	h.Manual.Add(body.Date, body.Time)
	return c.JSON(http.StatusCreated, echo.Map{
		"date":  body.Date,
		"times": h.Manual.For(body.Date),
	})
}

// EvaluateWindow handles POST /v1/slots/evaluate with {date, time, items},
// returning the window load a candidate order would see. Pure read; the UI
// uses it to warn the operator before submission.
func (h *SlotHandler) EvaluateWindow(c echo.Context) error {
	var body struct {
		Date           string            `json:"date"`
		Time           string            `json:"time"`
		Items          []model.OrderItem `json:"items"`
		ExcludeOrderID uint64            `json:"exclude_order_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	window, err := h.Evaluator.EvaluateWindow(c.Request().Context(), body.Date, body.Time, body.Items, body.ExcludeOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unreachable"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, window)
}
