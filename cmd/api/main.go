package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/mwhitfield/wishlist-backend/api/routes"
	authsvc "github.com/mwhitfield/wishlist-backend/internal/auth"
	"github.com/mwhitfield/wishlist-backend/internal/children"
	"github.com/mwhitfield/wishlist-backend/internal/equity"
	"github.com/mwhitfield/wishlist-backend/internal/family"
	"github.com/mwhitfield/wishlist-backend/internal/images"
	"github.com/mwhitfield/wishlist-backend/internal/items"
	"github.com/mwhitfield/wishlist-backend/internal/reservations"
	"github.com/mwhitfield/wishlist-backend/internal/users"
	"github.com/mwhitfield/wishlist-backend/pkg/auth/session"
	"github.com/mwhitfield/wishlist-backend/pkg/config"
	"github.com/mwhitfield/wishlist-backend/pkg/db"
	"github.com/mwhitfield/wishlist-backend/pkg/feed"
	"github.com/mwhitfield/wishlist-backend/pkg/logger"
	"github.com/mwhitfield/wishlist-backend/pkg/metrics"
	"github.com/mwhitfield/wishlist-backend/pkg/migrate"
	"github.com/mwhitfield/wishlist-backend/pkg/redis"
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
	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	apiMetrics := metrics.NewAPIMetrics(registry)

	publisher, err := feed.NewPublisher(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create feed publisher", err)
		os.Exit(1)
	}
	subscriber, err := feed.NewSubscriber(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create feed subscriber", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	childRepo := children.NewRepository(dbClient.DB())
	itemRepo := items.NewRepository(dbClient.DB())
	reservationRepo := reservations.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:  userRepo,
		ChildRepo: childRepo,
		Session:   sessionManager,
		JWTConfig: cfg.JWT,
		Metrics:   apiMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	childrenService, err := children.NewService(children.ServiceParams{
		Repo:     childRepo,
		UserRepo: userRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create children service", err)
		os.Exit(1)
	}

	familyService, err := family.NewService(family.ServiceParams{
		UserRepo:  userRepo,
		ChildRepo: childRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create family service", err)
		os.Exit(1)
	}

	imageFetcher, err := images.NewFetcher(cfg.Images, logg, apiMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create image fetcher", err)
		os.Exit(1)
	}

	itemsService, err := items.NewService(items.ServiceParams{
		Repo:      itemRepo,
		ChildRepo: childRepo,
		Images:    imageFetcher,
		Notifier:  publisher,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create items service", err)
		os.Exit(1)
	}

	reservationsService, err := reservations.NewService(reservations.ServiceParams{
		Repo:     reservationRepo,
		ItemRepo: itemRepo,
		Notifier: publisher,
		Metrics:  apiMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reservations service", err)
		os.Exit(1)
	}

	equityService, err := equity.NewService(equity.ServiceParams{
		Children:     childRepo,
		Items:        itemRepo,
		Reservations: reservationRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create equity service", err)
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
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Sessions:     sessionManager,
			Auth:         authService,
			Children:     childrenService,
			Family:       familyService,
			Items:        itemsService,
			Reservations: reservationsService,
			Equity:       equityService,
			Feed:         subscriber,
			Registry:     registry,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-shutdown
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
