package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/salgaderia/pos/internal/config"
	"github.com/salgaderia/pos/internal/handler"
	"github.com/salgaderia/pos/internal/middleware"
)

// Register wires every route of the service onto the provided Echo
// instance. The slot catalog sits behind the Redis response cache (short
// TTL, loads change with every admitted order) and order creation behind
// the rate limiter; both middleware degrade to pass-through when rdb is
// nil.
func Register(e *echo.Echo, rdb *redis.Client,
	orders *handler.OrderHandler,
	slots *handler.SlotHandler,
	settings *handler.SettingsHandler,
	sync *handler.SyncHandler,
) {
	e.GET("/healthz", handler.Health)

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewRateLimit(config.LoadRateLimitConfig(), rdb)

	v1 := e.Group("/v1")

	// Order admission pipeline.
	v1.POST("/orders", orders.CreateOrder, limit)
	v1.GET("/orders/next-number", orders.PeekNumber)
	v1.GET("/orders/:id", orders.GetOrder)
	v1.PUT("/orders/:id", orders.UpdateOrder)
	v1.POST("/orders/:id/cancel", orders.CancelOrder)

	// Slot catalog and capacity read models.
	v1.GET("/slots", slots.GetSlots, cache)
	v1.POST("/slots/manual", slots.AddManualSlot)
	v1.POST("/slots/evaluate", slots.EvaluateWindow)

	// Production capacity settings.
	v1.GET("/settings/production", settings.GetSettings)
	v1.PUT("/settings/production", settings.SaveSettings)

	// Offline queue visibility and manual retry.
	v1.GET("/sync/status", sync.Status)
	v1.POST("/sync/run", sync.Run)
}
