package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salgaderia/pos/internal/model"
	"github.com/salgaderia/pos/internal/repository"
	"github.com/salgaderia/pos/internal/service"
)

// SettingsHandler exposes the production capacity settings. Saving is the
// only mutation path; admission never changes these values.
type SettingsHandler struct {
	Settings *service.SettingsCache
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settings *service.SettingsCache) *SettingsHandler {
	if settings == nil {
		panic("nil settings cache passed to NewSettingsHandler")
	}
	return &SettingsHandler{Settings: settings}
}

// GetSettings handles GET /v1/settings/production. 404 means capacity
// enforcement is off because nothing was ever saved.
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	s, err := h.Settings.Production(c.Request().Context())
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "production settings not saved yet"})
		}
		if errors.Is(err, repository.ErrStoreUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unreachable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, s)
}

// SaveSettings handles PUT /v1/settings/production. Both values must be
// positive; the saved settings take effect on the next evaluation.
func (h *SettingsHandler) SaveSettings(c echo.Context) error {
	var body model.ProductionSettings
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Limit <= 0 || body.WindowMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit and window_minutes must be positive"})
	}
	if err := h.Settings.Save(c.Request().Context(), body); err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unreachable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, body)
}
