package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadforge/threadforge/internal/auth"
	"github.com/threadforge/threadforge/internal/cache"
	"github.com/threadforge/threadforge/internal/config"
	"github.com/threadforge/threadforge/internal/db"
	"github.com/threadforge/threadforge/internal/email"
	"github.com/threadforge/threadforge/internal/handlers"
	"github.com/threadforge/threadforge/internal/logging"
	"github.com/threadforge/threadforge/internal/services"
	"github.com/threadforge/threadforge/internal/stripe"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	emailProvider, err := email.NewProvider(email.Config{
		Provider: cfg.EmailProvider,
		APIKey:   cfg.EmailAPIKey,
		From:     cfg.EmailFrom,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}

	userStore := db.NewUserStore(database)
	productStore := db.NewProductStore(database)
	orderStore := db.NewOrderStore(database)
	couponStore := db.NewCouponStore(database)
	designStore := db.NewDesignStore(database)
	notificationStore := db.NewNotificationStore(database)

	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(userStore, tokenIssuer, logger.With("component", "auth_service"))

	var stripeClient *stripe.Client
	if cfg.StripeSecretKey != "" {
		stripeClient = stripe.NewClient(cfg.StripeSecretKey)
	}

	emailSender := services.NewProviderEmailSender(emailProvider)
	notificationService := services.NewNotificationService(
		notificationStore,
		userStore,
		emailSender,
		logger.With("component", "notification_service"),
	)
	var checkout services.CheckoutClient
	if stripeClient != nil {
		checkout = stripeClient
	}
	orderService := services.NewOrderService(
		orderStore,
		productStore,
		couponStore,
		checkout,
		notificationService,
		cfg.TaxRate,
		cfg.FlatShippingRate,
		cfg.BaseURL,
		logger.With("component", "order_service"),
	)
	couponService := services.NewCouponService(couponStore, cacheProvider, logger.With("component", "coupon_service"))
	designService := services.NewDesignService(designStore, productStore, notificationService, logger.With("component", "design_service"))

	h, err := handlers.New(handlers.Dependencies{
		Config:              cfg,
		DB:                  database,
		ProductStore:        productStore,
		UserStore:           userStore,
		CacheProvider:       cacheProvider,
		AuthService:         authService,
		OrderService:        orderService,
		CouponService:       couponService,
		DesignService:       designService,
		NotificationService: notificationService,
		Logger:              logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
