package main

import (
	"context"
	"fmt"

	"github.com/angelmondragon/usermanagement-backend/internal/users"
	"github.com/angelmondragon/usermanagement-backend/pkg/config"
	"github.com/angelmondragon/usermanagement-backend/pkg/db"
	"github.com/angelmondragon/usermanagement-backend/pkg/logger"
	"github.com/angelmondragon/usermanagement-backend/pkg/migrate"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// env bundles what every subcommand needs once config is loaded.
type env struct {
	logg    *logger.Logger
	users   users.Service
	closeDB func() error
}

type envLoader func(ctx context.Context) (*env, error)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(loadEnv)
}

func newRootCmdWith(load envLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "userctl",
		Short:         "Operator tooling for user accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCreateAdminCmd(load),
		newUnlockCmd(load),
		newVerifyCmd(load),
	)
	return root
}

func loadEnv(ctx context.Context) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "userctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("dev migrations: %w", err)
	}

	svc, err := users.NewService(users.ServiceParams{
		Repo:           users.NewRepository(client.DB()),
		Tx:             client,
		PasswordConfig: cfg.Password,
		AuthConfig:     cfg.Auth,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &env{logg: logg, users: svc, closeDB: client.Close}, nil
}

// withEnv loads the environment, runs fn and releases the database handle.
func withEnv(cmd *cobra.Command, load envLoader, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := load(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if e.closeDB != nil {
			_ = e.closeDB()
		}
	}()
	return fn(ctx, e)
}
