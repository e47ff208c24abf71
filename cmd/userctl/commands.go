package main

import (
	"context"
	"fmt"

	"github.com/angelmondragon/usermanagement-backend/internal/users"
	"github.com/angelmondragon/usermanagement-backend/pkg/enums"
	"github.com/angelmondragon/usermanagement-backend/pkg/security"
	"github.com/spf13/cobra"
)

const generatedPasswordLength = 16

func newCreateAdminCmd(load envLoader) *cobra.Command {
	var (
		emailAddr string
		nickname  string
		password  string
		role      string
	)
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified account with an elevated role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := enums.ParseUserRole(role)
			if err != nil {
				return err
			}
			generated := password == ""
			if generated {
				password, err = security.GenerateTempPassword(generatedPasswordLength)
				if err != nil {
					return fmt.Errorf("generate password: %w", err)
				}
			}
			return withEnv(cmd, load, func(ctx context.Context, e *env) error {
				user, err := e.users.CreateAccount(ctx, users.NewAccount{
					Email:    emailAddr,
					Nickname: nickname,
					Password: password,
					Role:     parsed,
					Verified: true,
				})
				if err != nil {
					return err
				}
				e.logg.Info(e.logg.WithUserID(ctx, user.ID.String()), "operator account created")
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) role=%s\n", user.Email, user.ID, user.Role)
				if generated {
					fmt.Fprintf(cmd.OutOrStdout(), "temporary password: %s\n", password)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&emailAddr, "email", "", "account email")
	cmd.Flags().StringVar(&nickname, "nickname", "", "account nickname, generated when empty")
	cmd.Flags().StringVar(&password, "password", "", "account password, generated when empty")
	cmd.Flags().StringVar(&role, "role", string(enums.UserRoleAdmin), "account role")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUnlockCmd(load envLoader) *cobra.Command {
	var emailAddr string
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Clear the lock and failed attempt counter of an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, load, func(ctx context.Context, e *env) error {
				user, err := e.users.GetByEmail(ctx, emailAddr)
				if err != nil {
					return err
				}
				if _, err := e.users.Unlock(ctx, user.ID); err != nil {
					return err
				}
				e.logg.Info(e.logg.WithUserID(ctx, user.ID.String()), "account unlocked by operator")
				fmt.Fprintf(cmd.OutOrStdout(), "unlocked %s\n", user.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&emailAddr, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newVerifyCmd(load envLoader) *cobra.Command {
	var emailAddr string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Mark an account email as verified",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, load, func(ctx context.Context, e *env) error {
				user, err := e.users.GetByEmail(ctx, emailAddr)
				if err != nil {
					return err
				}
				if _, err := e.users.MarkVerified(ctx, user.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "verified %s\n", user.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&emailAddr, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
