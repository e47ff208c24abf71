package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/usermanagement-backend/api/controllers"
	"github.com/angelmondragon/usermanagement-backend/api/routes"
	"github.com/angelmondragon/usermanagement-backend/internal/auth"
	"github.com/angelmondragon/usermanagement-backend/internal/email"
	"github.com/angelmondragon/usermanagement-backend/internal/users"
	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/angelmondragon/usermanagement-backend/pkg/db"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/metrics"
	"github.com/angelmondragon/usermanagement-backend/pkg/migrate"
	"github.com/angelmondragon/usermanagement-backend/pkg/pubsub"
	"github.com/angelmondragon/usermanagement-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

const shutdownTimeout = 15 * time.Second

var version = "dev"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	var (
		redisClient *redis.Client
		redisPinger controllers.Pinger
		rateLimiter redis.RateLimiter
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		redisPinger, rateLimiter = redisClient, redisClient
	} else {
		logg.Warn(ctx, "redis not configured, auth rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	transport, closeTransport, err := buildTransport(ctx, cfg, logg)
	requireResource(ctx, logg, "email transport", err)

	notifier, err := email.NewNotifier(email.NotifierParams{
		Transport:     transport,
		Logger:        logg,
		Metrics:       metrics.NewEmailMetrics(registry),
		PublicBaseURL: cfg.App.PublicBaseURL,
		Timeout:       cfg.Email.Timeout,
	})
	requireResource(ctx, logg, "email notifier", err)

	userRepo := users.NewRepository(dbClient.DB())
	userService, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		Tx:             dbClient,
		Notifier:       notifier,
		PasswordConfig: cfg.Password,
		AuthConfig:     cfg.Auth,
	})
	requireResource(ctx, logg, "user service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Accounts:       userService,
		Notifier:       notifier,
		Metrics:        metrics.NewAuthMetrics(registry),
		Logger:         logg,
		JWTConfig:      cfg.JWT,
		AuthConfig:     cfg.Auth,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "auth service", err)

	params := routes.RouterParams{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisPinger,
		RateLimiter: rateLimiter,
		AuthService: authService,
		UserService: userService,
		Version:     version,
	}
	if cfg.Metrics.Enabled {
		params.HTTPMetrics = metrics.NewHTTPMetrics(registry)
		params.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"version": version,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
	notifier.Wait()
	errs = multierr.Append(errs, closeTransport())
	if redisClient != nil {
		errs = multierr.Append(errs, redisClient.Close())
	}
	errs = multierr.Append(errs, dbClient.Close())
	if errs != nil {
		logg.Error(serverCtx, "shutdown completed with errors", errs)
		os.Exit(1)
	}
	logg.Info(serverCtx, "api server stopped")
}

// buildTransport picks the email transport named by USERMGMT_EMAIL_TRANSPORT.
// The returned func releases any queue resources on shutdown.
func buildTransport(ctx context.Context, cfg *config.Config, logg *logger.Logger) (email.Transport, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Email.NormalizedTransport() {
	case config.EmailTransportPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, nil, err
		}
		publisher, err := client.EmailPublisher()
		if err != nil {
			return nil, nil, multierr.Append(err, client.Close())
		}
		transport, err := email.NewPubSubTransport(publisher)
		if err != nil {
			return nil, nil, multierr.Append(err, client.Close())
		}
		return transport, func() error {
			transport.Stop()
			return client.Close()
		}, nil
	case config.EmailTransportMailgun:
		transport, err := email.DeliveryTransport(cfg, logg)
		return transport, noop, err
	default:
		return email.NewLogTransport(logg), noop, nil
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
