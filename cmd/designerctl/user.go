package main

import (
	"errors"
	"fmt"

	"dbdesigner/internal/models"
	"dbdesigner/internal/repositories"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func userCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "user",
		Short: "user commands",
	}
	command.AddCommand(createUserCmd())
	return command
}

func createUserCmd() *cobra.Command {
	var email, name, role string

	command := &cobra.Command{
		Use:   "create",
		Short: "Create a user that tokens can be issued for",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != models.RoleUser && role != models.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", models.RoleUser, models.RoleAdmin)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DB_URL or DB_HOST is required to create users")
			}

			db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
			if err != nil {
				return err
			}
			users := repositories.NewUserRepository(db)

			existing, err := users.FindUserByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("user %s already exists with id %d", email, existing.ID)
			}

			user := &models.User{Email: email, Name: name, Role: role}
			if err := users.Create(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}

	command.Flags().StringVarP(&email, "email", "e", "", "user email")
	command.Flags().StringVarP(&name, "name", "n", "", "display name")
	command.Flags().StringVarP(&role, "role", "r", models.RoleUser, "user or admin")
	_ = command.MarkFlagRequired("email")

	return command
}
