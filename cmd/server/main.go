package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	cartapp "github.com/toystore/backend/internal/application/cart"
	catalogapp "github.com/toystore/backend/internal/application/catalog"
	inventoryapp "github.com/toystore/backend/internal/application/inventory"
	orderapp "github.com/toystore/backend/internal/application/order"
	"github.com/toystore/backend/internal/domain/shared"
	"github.com/toystore/backend/internal/infrastructure/auth"
	"github.com/toystore/backend/internal/infrastructure/cache"
	"github.com/toystore/backend/internal/infrastructure/config"
	"github.com/toystore/backend/internal/infrastructure/event"
	"github.com/toystore/backend/internal/infrastructure/logger"
	"github.com/toystore/backend/internal/infrastructure/persistence"
	"github.com/toystore/backend/internal/infrastructure/scheduler"
	"github.com/toystore/backend/internal/infrastructure/telemetry"
	"github.com/toystore/backend/internal/interfaces/http/handler"
	"github.com/toystore/backend/internal/interfaces/http/middleware"
	"github.com/toystore/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Toy Store Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Idempotency store for payment callbacks. Falls back to in-memory when
	// Redis is unreachable; duplicate suppression is then per-process only.
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		memStore := cache.NewInMemoryIdempotencyStore()
		defer func() {
			_ = memStore.Close()
		}()
		idempotencyStore = memStore
	} else {
		defer func() {
			_ = redisStore.Close()
		}()
		idempotencyStore = redisStore
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)

	// Application services
	scope := persistence.NewGormTransactionScope(db.DB)
	ledgerService := inventoryapp.NewStockLedgerService(scope)
	reservationService := inventoryapp.NewReservationService(scope, cfg.Reservation.TTL)
	productService := catalogapp.NewProductService(scope, ledgerService)
	cartService := cartapp.NewCartService(cartRepo, productRepo, reservationRepo)
	orderService := orderapp.NewOrderService(scope, ledgerService, idempotencyStore)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLowStockHandler(log, event.DefaultLowStockThreshold))
	ledgerService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Reservation expiry sweeper
	sweeper := scheduler.NewReservationSweeper(reservationService, log, cfg.Scheduler)
	if err := sweeper.Start(context.Background()); err != nil {
		log.Fatal("Failed to start reservation sweeper", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sweeper.Stop(stopCtx); err != nil {
			log.Error("Error stopping reservation sweeper", zap.Error(err))
		}
	}()

	// HTTP handlers
	productHandler := handler.NewProductHandler(productService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(orderService)
	inventoryHandler := handler.NewInventoryHandler(ledgerService, reservationService)
	paymentCallbackHandler := handler.NewPaymentCallbackHandler(orderService)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if tracerProvider.IsEnabled() {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Liveness and readiness outside API versioning
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// Payment gateway callbacks, called by the gateway without user auth
	engine.POST("/api/v1/callbacks/payment", paymentCallbackHandler.HandlePaymentResult)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/callbacks",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Catalog: reads for everyone, writes for admins
	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.POST("/products", middleware.RequireAdmin(), productHandler.Create)
	catalogRoutes.PUT("/products/:id", middleware.RequireAdmin(), productHandler.Update)
	r.Register(catalogRoutes)

	cartRoutes := router.NewDomainGroup("cart", "/cart")
	cartRoutes.GET("", cartHandler.Get)
	cartRoutes.DELETE("", cartHandler.Clear)
	cartRoutes.POST("/items", cartHandler.AddItem)
	cartRoutes.PUT("/items/:productId", cartHandler.UpdateItem)
	cartRoutes.DELETE("/items/:productId", cartHandler.RemoveItem)
	cartRoutes.POST("/validate", cartHandler.Validate)
	r.Register(cartRoutes)

	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.GET("/:id/history", orderHandler.History)
	orderRoutes.POST("/:id/cancel", orderHandler.Cancel)
	r.Register(orderRoutes)

	reservationRoutes := router.NewDomainGroup("reservations", "/reservations")
	reservationRoutes.POST("", inventoryHandler.Reserve)
	reservationRoutes.GET("", inventoryHandler.ListReservations)
	reservationRoutes.DELETE("/:id", inventoryHandler.ReleaseReservation)
	r.Register(reservationRoutes)

	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.Use(middleware.RequireAdmin())
	adminRoutes.GET("/orders", orderHandler.ListAll)
	adminRoutes.POST("/orders/:id/transition", orderHandler.Transition)
	adminRoutes.GET("/orders/:id/history", orderHandler.AdminHistory)
	adminRoutes.POST("/inventory/adjustments", inventoryHandler.AdjustStock)
	adminRoutes.GET("/inventory/products/:id/movements", inventoryHandler.ListMovements)
	adminRoutes.GET("/inventory/products/:id/reconciliation", inventoryHandler.Reconcile)
	adminRoutes.GET("/reports/orders", orderHandler.Summary)
	r.Register(adminRoutes)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	r.Register(systemRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
