package main

import (
	"errors"
	"fmt"
	"time"

	"dbdesigner/internal/repositories"
	"dbdesigner/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "token",
		Short: "access token commands",
	}
	command.AddCommand(issueTokenCmd())
	command.AddCommand(revokeTokenCmd())
	return command
}

func issueTokenCmd() *cobra.Command {
	var userID int64

	command := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			token, jti, err := utils.GenerateAccessToken(cfg.AccessTokenSecret, userID, cfg.AccessTokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token: %s\njti:   %s\n", token, jti)
			return nil
		},
	}

	command.Flags().Int64VarP(&userID, "user", "u", 0, "user id")
	_ = command.MarkFlagRequired("user")

	return command
}

func revokeTokenCmd() *cobra.Command {
	var (
		jti string
		ttl time.Duration
	)

	command := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an access token by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.RedisAddr == "" {
				return errors.New("REDIS_ADDR is required to revoke tokens")
			}
			if ttl <= 0 {
				ttl = cfg.AccessTokenTTL
			}

			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			defer rdb.Close()

			if err := repositories.NewRedisRepository(rdb).Blacklist(cmd.Context(), jti, ttl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s for %s\n", jti, ttl)
			return nil
		},
	}

	command.Flags().StringVar(&jti, "jti", "", "token id")
	command.Flags().DurationVar(&ttl, "ttl", 0, "how long to keep the revocation (default ACCESS_TOKEN_TTL)")
	_ = command.MarkFlagRequired("jti")

	return command
}
