package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salgaderia/pos/internal/offline"
)

// SyncHandler exposes the offline queue status and a manual retry, used by
// the operator when an automatic sync reported a partial failure.
type SyncHandler struct {
	Queue       offline.Queue
	Coordinator *offline.Coordinator
}

// NewSyncHandler constructs a SyncHandler.
func NewSyncHandler(queue offline.Queue, coord *offline.Coordinator) *SyncHandler {
	if queue == nil || coord == nil {
		panic("nil dependency passed to NewSyncHandler")
	}
	return &SyncHandler{Queue: queue, Coordinator: coord}
}

// Status handles GET /v1/sync/status.
func (h *SyncHandler) Status(c echo.Context) error {
	n, err := h.Queue.Len(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "local queue error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"queued":  n,
		"running": h.Coordinator.Running(),
	})
}

// Run handles POST /v1/sync/run, the manual retry. A sync already in
// flight reports skipped=true rather than starting a second drain.
func (h *SyncHandler) Run(c echo.Context) error {
	result := h.Coordinator.Sync(c.Request().Context())
	return c.JSON(http.StatusOK, result)
}
