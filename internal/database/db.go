package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"dbdesigner/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// EnsureDatabaseExists creates the configured database through the admin
// account when it is missing. It is a no-op without admin credentials.
func EnsureDatabaseExists(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminUser == "" || cfg.DBHost == "" || cfg.DBName == "" {
		return nil
	}

	userInfo := url.UserPassword(cfg.AdminUser, cfg.AdminPassword)
	dsn := fmt.Sprintf(
		"postgres://%s@%s:%s/postgres?sslmode=disable",
		userInfo.String(),
		cfg.DBHost,
		cfg.DBPort,
	)

	logrus.Infof("checking if database %q exists", cfg.DBName)

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer conn.Close(ctx)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"
	if err := conn.QueryRow(ctx, query, cfg.DBName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	// CREATE DATABASE cannot run inside a transaction.
	createQuery := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{cfg.DBName}.Sanitize())
	if _, err := conn.Exec(ctx, createQuery); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	logrus.Infof("database %q created", cfg.DBName)
	return nil
}

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string (check your .env file): %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cc := poolConfig.ConnConfig
	logrus.Infof("connected to postgres://%s:***@%s:%d/%s", cc.User, cc.Host, cc.Port, cc.Database)
	return pool, nil
}
