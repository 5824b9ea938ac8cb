package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/salgaderia/pos/internal/capacity"
	"github.com/salgaderia/pos/internal/config"
	"github.com/salgaderia/pos/internal/connectivity"
	"github.com/salgaderia/pos/internal/database"
	"github.com/salgaderia/pos/internal/handler"
	"github.com/salgaderia/pos/internal/offline"
	"github.com/salgaderia/pos/internal/queue"
	"github.com/salgaderia/pos/internal/repository"
	"github.com/salgaderia/pos/internal/router"
	"github.com/salgaderia/pos/internal/sequence"
	"github.com/salgaderia/pos/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	monitor := connectivity.NewMonitor()

	// The store may be down at startup; the service still comes up and
	// queues orders locally until connectivity returns.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if db == nil {
		log.Fatalf("invalid database configuration: %v", err)
	}
	if err != nil {
		log.Printf("store unreachable at startup, orders will queue locally: %v", err)
		monitor.ReportDown()
	}

	orderRepo := repository.NewOrderRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)
	clientRepo := repository.NewClientRepo(db)
	stockRepo := repository.NewStockRepo(db)

	seqStore := sequence.NewSQLStore(db, counterRepo, orderRepo)
	allocator := sequence.NewAllocator(seqStore, cfg.NumberWidth)

	settingsCache := service.NewSettingsCache(settingsRepo)
	evaluator := capacity.NewEvaluator(orderRepo, settingsCache)
	catalog := capacity.NewCatalog(orderRepo, settingsCache,
		cfg.OpenTime, cfg.CloseTime, cfg.SlotCadence, cfg.NearLimitPct)
	manualSlots := capacity.NewManualSlots()

	localQueue, err := offline.OpenSQLiteQueue(cfg.QueuePath)
	if err != nil {
		log.Fatalf("open offline queue: %v", err)
	}
	defer localQueue.Close()

	orderStore := service.NewSQLOrderStore(seqStore, orderRepo)
	orderService := service.NewOrderService(orderStore, clientRepo, stockRepo,
		allocator, evaluator, localQueue, monitor, service.AMQPNotifier{})

	coordinator := offline.NewCoordinator(localQueue, orderService)
	coordinator.Start(context.Background(), monitor)

	// Background consumer turning order.confirmed events into the
	// back-office notification log.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, response cache and rate limiting disabled")
	}

	e := echo.New()
	router.Register(e, rdb,
		handler.NewOrderHandler(orderService, allocator),
		handler.NewSlotHandler(catalog, evaluator, manualSlots),
		handler.NewSettingsHandler(settingsCache),
		handler.NewSyncHandler(localQueue, coordinator),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
