package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/merchforge/merchforge-backend/api/routes"
	"github.com/merchforge/merchforge-backend/internal/address"
	"github.com/merchforge/merchforge-backend/internal/cart"
	"github.com/merchforge/merchforge-backend/internal/categories"
	"github.com/merchforge/merchforge-backend/internal/notifications"
	"github.com/merchforge/merchforge-backend/internal/orders"
	products "github.com/merchforge/merchforge-backend/internal/products"
	"github.com/merchforge/merchforge-backend/internal/users"
	"github.com/merchforge/merchforge-backend/pkg/config"
	"github.com/merchforge/merchforge-backend/pkg/db"
	"github.com/merchforge/merchforge-backend/pkg/logger"
	"github.com/merchforge/merchforge-backend/pkg/metrics"
	"github.com/merchforge/merchforge-backend/pkg/migrate"
	"github.com/merchforge/merchforge-backend/pkg/pricing"
	"github.com/merchforge/merchforge-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pricingMetrics := metrics.NewPricingMetrics(registry)

	deps, err := buildDependencies(cfg, dbClient, redisClient, pricingMetrics)
	if err != nil {
		return err
	}
	deps.Gatherer = registry
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Append(server.Shutdown(shutdownCtx), <-serveErr)
}

func buildDependencies(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client, pricingMetrics *metrics.PricingMetrics) (routes.Dependencies, error) {
	conn := dbClient.DB()
	calc := pricing.NewCalculator(pricing.Policy{ClampNegative: cfg.Pricing.ClampNegative})

	categoryRepo := categories.NewRepository(conn)
	categorySvc, err := categories.NewService(categoryRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	productRepo := products.NewRepository(conn)
	productSvc, err := products.NewService(productRepo, dbClient, categoryRepo, calc, pricingMetrics)
	if err != nil {
		return routes.Dependencies{}, err
	}

	cartRepo := cart.NewRepository(conn)
	repricer, err := cart.NewRepricer(calc, pricingMetrics)
	if err != nil {
		return routes.Dependencies{}, err
	}
	cartSvc, err := cart.NewService(cartRepo, dbClient, productRepo, repricer)
	if err != nil {
		return routes.Dependencies{}, err
	}

	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}

	addressRepo := address.NewRepository(conn)
	addressSvc, err := address.NewService(addressRepo, dbClient)
	if err != nil {
		return routes.Dependencies{}, err
	}

	orderSvc, err := orders.NewService(orders.Deps{
		Repo:          orders.NewRepository(conn),
		Tx:            dbClient,
		Carts:         cartRepo,
		Products:      productRepo,
		Addresses:     addressRepo,
		Calculator:    calc,
		Notifications: notificationSvc,
		Pricing:       cfg.Pricing,
		Metrics:       pricingMetrics,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	userRepo := users.NewRepository(conn)
	profileSvc, err := users.NewService(userRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		DB:            dbClient,
		Redis:         redisClient,
		Users:         userRepo,
		Profiles:      profileSvc,
		Products:      productSvc,
		Categories:    categorySvc,
		Cart:          cartSvc,
		Orders:        orderSvc,
		Notifications: notificationSvc,
		Addresses:     addressSvc,
	}, nil
}
