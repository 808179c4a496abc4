package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/bazaarly/storefront-backend/api/routes"
	"github.com/bazaarly/storefront-backend/internal/auth"
	"github.com/bazaarly/storefront-backend/internal/banners"
	"github.com/bazaarly/storefront-backend/internal/cart"
	"github.com/bazaarly/storefront-backend/internal/notifications"
	"github.com/bazaarly/storefront-backend/internal/orders"
	"github.com/bazaarly/storefront-backend/internal/payments"
	"github.com/bazaarly/storefront-backend/internal/products"
	"github.com/bazaarly/storefront-backend/internal/reviews"
	"github.com/bazaarly/storefront-backend/internal/users"
	"github.com/bazaarly/storefront-backend/pkg/auth/session"
	"github.com/bazaarly/storefront-backend/pkg/config"
	"github.com/bazaarly/storefront-backend/pkg/db"
	"github.com/bazaarly/storefront-backend/pkg/logger"
	"github.com/bazaarly/storefront-backend/pkg/migrate"
	"github.com/bazaarly/storefront-backend/pkg/razorpay"
	"github.com/bazaarly/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	razorpayClient, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
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

	productService, err := products.NewService(products.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, productService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, nil, notificationsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(razorpayClient, ordersRepo, dbClient, nil, cartRepo, notificationsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviews.NewRepository(dbClient.DB()), ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	bannersService, err := banners.NewService(banners.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create banners service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			SessionChecker: sessionManager,
			Auth:           authService,
			Products:       productService,
			Cart:           cartService,
			Orders:         ordersService,
			Payments:       paymentsService,
			Notifications:  notificationsService,
			Banners:        bannersService,
			Reviews:        reviewsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
