package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-trading-post/internal/config"
	"go-trading-post/internal/events"
	"go-trading-post/internal/handler"
	"go-trading-post/internal/middleware"
	"go-trading-post/internal/model"
	"go-trading-post/internal/repository"
	"go-trading-post/internal/service"
	"go-trading-post/internal/telemetry"
	"go-trading-post/internal/ws"
	"go-trading-post/pkg/database"
	"go-trading-post/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load env and config
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg)
	if err != nil {
		appLogger.Warn("Tracing disabled", zap.Error(err))
	}

	// 2. Setup database
	db, err := database.Connect(database.Config{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DBSource,
		LogLevel:     cfg.DBLogLevel,
		MaxIdleConns: 10,
		MaxOpenConns: 100,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		appLogger.Fatal("Failed to migrate database", zap.Error(err))
	}
	appLogger.Info("Database connection established", zap.String("driver", cfg.DBDriver))

	// 3. Event fan-out: websocket hub, plus Kafka when brokers are configured
	wsHub := ws.NewHub(appLogger.Named("ws"))
	go wsHub.Run(ctx)

	publishers := events.Fanout{wsHub}
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, appLogger.Named("kafka"))
		publishers = append(publishers, kafkaPublisher)
		appLogger.Info("Publishing events to Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	// 4. Dependency injection (wiring layers)
	goodRepo := repository.NewGoodRepo(db)
	partyRepo := repository.NewPartyRepo(db)
	txRepo := repository.NewTransactionRepo(db)

	txOpts := []service.TransactionOption{
		service.WithGoodDefaults(service.GoodDefaults{
			Category: model.CategoryOther,
			Material: cfg.NewGoodMaterial,
			Value:    cfg.NewGoodValue,
			Weight:   cfg.NewGoodWeight,
		}),
	}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Warn("Redis unreachable, idempotency keys disabled", zap.Error(err))
		} else {
			txOpts = append(txOpts, service.WithIdempotency(repository.NewRedisIdempotencyRepo(redisClient)))
		}
	}

	txService := service.NewTransactionService(db, goodRepo, txRepo, service.NewPartyResolver(partyRepo), publishers, appLogger.Named("transactions"), txOpts...)
	invService := service.NewInventoryService(goodRepo, db, publishers, appLogger.Named("inventory"))
	partyService := service.NewPartyService(partyRepo, appLogger.Named("parties"))
	reportService := service.NewReportService(txRepo, cfg.LowStockThreshold)

	txHandler := handler.NewTransactionHandler(txService)
	invHandler := handler.NewInventoryHandler(invService)
	hunterHandler := handler.NewPartyHandler(partyService, model.PartyHunter)
	merchantHandler := handler.NewPartyHandler(partyService, model.PartyMerchant)
	reportHandler := handler.NewReportHandler(reportService)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Trading Post v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// 6. Routes, all behind bearer auth
	api := app.Group("/api/v1", middleware.RequireAuth())

	// Goods
	api.Get("/goods", middleware.RequireAnyPrivilege("good:view", "transaction:create"), invHandler.GetGoods)
	api.Get("/goods/name/:name", middleware.RequireAnyPrivilege("good:view", "transaction:create"), invHandler.GetGoodByName)
	api.Put("/goods/name/:name", middleware.RequirePrivilege("good:update"), invHandler.UpdateGoodByName)
	api.Delete("/goods/name/:name", middleware.RequirePrivilege("good:delete"), invHandler.DeleteGoodByName)
	api.Get("/goods/:id", middleware.RequirePrivilege("good:view"), invHandler.GetGood)
	api.Post("/goods", middleware.RequirePrivilege("good:create"), invHandler.CreateGood)
	api.Put("/goods/:id", middleware.RequirePrivilege("good:update"), invHandler.UpdateGood)
	api.Delete("/goods/:id", middleware.RequirePrivilege("good:delete"), invHandler.DeleteGood)

	// Hunters and merchants
	for prefix, h := range map[string]*handler.PartyHandler{"/hunters": hunterHandler, "/merchants": merchantHandler} {
		group := api.Group(prefix)
		group.Get("/", middleware.RequirePrivilege("party:view"), h.List)
		group.Get("/name/:name", middleware.RequirePrivilege("party:view"), h.GetByName)
		group.Put("/name/:name", middleware.RequirePrivilege("party:update"), h.UpdateByName)
		group.Delete("/name/:name", middleware.RequirePrivilege("party:delete"), h.DeleteByName)
		group.Get("/:id", middleware.RequirePrivilege("party:view"), h.Get)
		group.Post("/", middleware.RequirePrivilege("party:create"), h.Create)
		group.Put("/:id", middleware.RequirePrivilege("party:update"), h.Update)
		group.Delete("/:id", middleware.RequirePrivilege("party:delete"), h.Delete)
	}

	// Transactions
	api.Get("/transactions", middleware.RequirePrivilege("transaction:view"), txHandler.GetTransactions)
	api.Get("/transactions/:id", middleware.RequirePrivilege("transaction:view"), txHandler.GetTransaction)
	api.Post("/transactions", middleware.RequirePrivilege("transaction:create"), txHandler.CreateTransaction)
	api.Patch("/transactions/:id", middleware.RequirePrivilege("transaction:update"), txHandler.UpdateTransaction)
	api.Delete("/transactions/:id", middleware.RequirePrivilege("transaction:delete"), txHandler.DeleteTransaction)

	// Reports
	reports := api.Group("/reports", middleware.RequirePrivilege("report:view"))
	reports.Get("/stats", reportHandler.GetDashboardStats)
	reports.Get("/stock-movement", reportHandler.GetStockMovement)
	reports.Get("/financial", reportHandler.GetFinancialSummary)
	reports.Get("/top-goods", reportHandler.GetTopGoods)

	// WebSocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register(c)
		defer wsHub.Unregister(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 7. Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLogger.Panic("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			appLogger.Warn("Failed to close Kafka writer", zap.Error(err))
		}
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			appLogger.Warn("Failed to flush traces", zap.Error(err))
		}
	}

	appLogger.Info("Server exited")
}
