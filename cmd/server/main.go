package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/orderzap/orderzap/internal/config"
	"github.com/orderzap/orderzap/internal/handlers"
	"github.com/orderzap/orderzap/internal/middleware"
	"github.com/orderzap/orderzap/internal/providers/appmax"
	"github.com/orderzap/orderzap/internal/providers/mercadopago"
	"github.com/orderzap/orderzap/internal/reconcile"
	"github.com/orderzap/orderzap/internal/services"
	"github.com/orderzap/orderzap/internal/tasks"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize Database
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; without it tenant lookups hit the database and
	// the redelivery markers are skipped
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, continuing without cache: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Services
	tenantSvc := services.NewTenantService(db, cache, time.Duration(cfg.TenantCacheTTL)*time.Second)
	orderSvc := services.NewOrderService(db)
	subscriptionSvc := services.NewSubscriptionService(db)
	auditSvc := services.NewWebhookLogService(db)
	queue := tasks.NewQueue(db)

	// Provider clients and reconcilers
	mpClient := mercadopago.NewClient(cfg.MercadoPagoBaseURL)
	amxClient := appmax.NewClient(cfg.AppmaxBaseURL)
	mpReconciler := reconcile.NewOrderReconciler(mpClient, orderSvc)
	amxReconciler := reconcile.NewOrderReconciler(amxClient, orderSvc)
	subReconciler := reconcile.NewSubscriptionReconciler(mpClient, subscriptionSvc, cfg.MercadoPagoPlatformToken)

	var dedup handlers.DedupMarker
	if cache != nil {
		dedup = cache
	}
	webhookHandler := handlers.NewWebhookHandler(tenantSvc, mpReconciler, amxReconciler, subReconciler, auditSvc, queue, dedup)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.CustomErrorHandler

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.CORS())

	// Webhook routes. The subscription route must be registered before the
	// :tenant route would swallow "subscription" as a slug; Echo prefers
	// static segments, but keeping them adjacent makes the intent visible.
	e.POST("/webhooks/mercadopago/subscription", webhookHandler.HandleMercadoPagoSubscription)
	e.POST("/webhooks/mercadopago/:tenant", webhookHandler.HandleMercadoPagoOrder)
	e.POST("/webhooks/appmax/:tenant", webhookHandler.HandleAppmax)

	// Browser return-page fallback for delayed webhook deliveries
	e.GET("/payments/mercadopago/return/:tenant", webhookHandler.HandleMercadoPagoReturn)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	log.Printf("Server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
