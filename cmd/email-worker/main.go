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

	"github.com/angelmondragon/usermanagement-backend/internal/email"
	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/metrics"
	"github.com/angelmondragon/usermanagement-backend/pkg/pubsub"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "email-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "email-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"subscription": cfg.PubSub.EmailSubscription,
	})

	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	subscription, err := client.EmailSubscription()
	requireResource(ctx, logg, "email subscription", err)

	transport, err := email.DeliveryTransport(cfg, logg)
	requireResource(ctx, logg, "email transport", err)

	registry := prometheus.NewRegistry()
	consumer, err := email.NewConsumer(subscription, transport, metrics.NewEmailMetrics(registry), logg)
	requireResource(ctx, logg, "email consumer", err)

	var server *http.Server
	if cfg.Metrics.Enabled {
		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		server = &http.Server{Addr: ":" + cfg.App.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
	}

	logg.Info(ctx, "email worker started")
	runErr := consumer.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logg.Error(ctx, "email consumer stopped unexpectedly", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs error
	if server != nil {
		errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
	}
	errs = multierr.Append(errs, client.Close())
	if errs != nil {
		logg.Error(ctx, "shutdown completed with errors", errs)
		os.Exit(1)
	}
	logg.Info(ctx, "email worker stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
