package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/martinquesada/tienda-backend/api/routes"
	"github.com/martinquesada/tienda-backend/internal/auth"
	cartsvc "github.com/martinquesada/tienda-backend/internal/cart"
	"github.com/martinquesada/tienda-backend/internal/catalog"
	checkoutsvc "github.com/martinquesada/tienda-backend/internal/checkout"
	emailsvc "github.com/martinquesada/tienda-backend/internal/emails"
	invoicesvc "github.com/martinquesada/tienda-backend/internal/invoices"
	ordersvc "github.com/martinquesada/tienda-backend/internal/orders"
	paymentsvc "github.com/martinquesada/tienda-backend/internal/payments"
	"github.com/martinquesada/tienda-backend/internal/users"
	mpwebhook "github.com/martinquesada/tienda-backend/internal/webhooks/mercadopago"
	"github.com/martinquesada/tienda-backend/pkg/auth/session"
	"github.com/martinquesada/tienda-backend/pkg/config"
	"github.com/martinquesada/tienda-backend/pkg/db"
	"github.com/martinquesada/tienda-backend/pkg/logger"
	"github.com/martinquesada/tienda-backend/pkg/mail"
	"github.com/martinquesada/tienda-backend/pkg/mercadopago"
	"github.com/martinquesada/tienda-backend/pkg/metrics"
	"github.com/martinquesada/tienda-backend/pkg/migrate"
	"github.com/martinquesada/tienda-backend/pkg/redis"
	"github.com/martinquesada/tienda-backend/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "tienda"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "tienda",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	storageClient, err := local.NewClient(context.Background(), cfg.Invoices, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap invoice storage", err)
		os.Exit(1)
	}

	mpClient, err := mercadopago.NewClient(context.Background(), cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mercadopago client", err)
		os.Exit(1)
	}

	mailClient, err := mail.NewClient(context.Background(), cfg.Mail, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mail client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	invoicesRepo := invoicesvc.NewRepository(dbClient.DB())
	couponsRepo := checkoutsvc.NewCouponRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartStore, err := cartsvc.NewRedisStore(redisClient, cfg.Cart)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartStore, catalogService, cfg.MercadoPago.Currency)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Tx:       dbClient,
		Orders:   ordersRepo,
		Coupons:  couponsRepo,
		Catalog:  catalogService,
		Currency: cfg.MercadoPago.Currency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	paymentsService, err := paymentsvc.NewService(paymentsvc.ServiceParams{
		Tx:              dbClient,
		Orders:          ordersRepo,
		Catalog:         catalogRepo,
		Provider:        mpClient,
		Checkout:        cfg.Checkout,
		Currency:        cfg.MercadoPago.Currency,
		NotificationURL: cfg.MercadoPago.NotificationURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	ordersService, err := ordersvc.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	invoicesService, err := invoicesvc.NewService(invoicesvc.ServiceParams{
		Repo:     invoicesRepo,
		Orders:   ordersRepo,
		Store:    storageClient,
		Business: cfg.Invoices.Business,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	emailsService, err := emailsvc.NewService(emailsvc.ServiceParams{
		Orders:   ordersRepo,
		Invoices: invoicesRepo,
		Store:    storageClient,
		Sender:   mailClient,
		Config:   cfg.Mail,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create emails service", err)
		os.Exit(1)
	}

	webhookService, err := mpwebhook.NewService(mpwebhook.ServiceParams{
		Tx:       dbClient,
		Orders:   ordersRepo,
		Catalog:  catalogRepo,
		Provider: mpClient,
		Invoices: invoicesService,
		Emails:   emailsService,
		Metrics:  webhookMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Storage:        storageClient,
			SessionChecker: sessionManager,
			Metrics:        registry,
			HTTPMetrics:    httpMetrics,
			Catalog:        catalogService,
			Cart:           cartService,
			Auth:           authService,
			Checkout:       checkoutService,
			Payments:       paymentsService,
			Orders:         ordersService,
			Invoices:       invoicesService,
			Emails:         emailsService,
			Webhooks:       webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
