package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/sparkboard/internal/application"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var (
		email    string
		password string
		name     string
		admin    bool
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a student or administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s, err := openMigratedStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			role := application.RoleStudent
			if admin {
				role = application.RoleAdmin
			}
			auth := application.NewAuthServiceWithLogger(s, s, newID, newToken, time.Now, cfg.SessionTTL, logger)
			user, err := auth.Register(ctx, application.RegisterParams{
				Email:    email,
				Password: password,
				Name:     name,
				Role:     role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "account email")
	c.Flags().StringVar(&password, "password", "", "account password")
	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().BoolVar(&admin, "admin", false, "grant the administrator role")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
