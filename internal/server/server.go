package server

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dbdesigner/internal/config"
	"dbdesigner/internal/database"
	"dbdesigner/internal/handlers"
	"dbdesigner/internal/middlewares"
	"dbdesigner/internal/repositories"
	"dbdesigner/internal/routes"
	"dbdesigner/internal/services"
)

// Server owns the HTTP server and the connections behind it.
type Server struct {
	*http.Server
	pool *pgxpool.Pool
	gdb  *gorm.DB
	rdb  *redis.Client
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{}

	var (
		store repositories.Store
		users middlewares.UserFinder
	)
	if cfg.DatabaseURL != "" {
		if err := database.EnsureDatabaseExists(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.pool = pool

		if cfg.AutoMigrate {
			if err := database.RunMigrations(ctx, pool); err != nil {
				s.Cleanup()
				return nil, err
			}
		}

		gdb, err := openUserDB(cfg.DatabaseURL)
		if err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to open user store: %w", err)
		}
		s.gdb = gdb

		store = repositories.NewPgStore(pool)
		users = repositories.NewUserRepository(gdb)
	} else {
		logrus.Warn("DB_URL is not set, keeping the schema in memory")
		store = repositories.NewMemoryStore()
	}

	var (
		blacklist    middlewares.TokenBlacklist
		tokenHandler *handlers.TokenHandler
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		logrus.Info("connected to Redis")

		s.rdb = rdb
		redisRepo := repositories.NewRedisRepository(rdb)
		blacklist = redisRepo
		tokenHandler = handlers.NewTokenHandler(redisRepo, cfg.AccessTokenTTL)
	}

	// Dependency injection
	reconcileService := services.NewReconcileService(store)
	schemaService := services.NewSchemaService(store)
	tableService := services.NewTableService(store)
	databaseService := services.NewDatabaseService(store)

	h := routes.Handlers{
		Schema:   handlers.NewSchemaHandler(schemaService, reconcileService, cfg.DemoMode),
		Table:    handlers.NewTableHandler(tableService, reconcileService, cfg.DemoMode),
		Database: handlers.NewDatabaseHandler(databaseService, cfg.DemoMode),
		Demo:     handlers.NewDemoHandler(cfg.DemoMode),
		Token:    tokenHandler,
	}

	corsConfig, err := newCORSConfig(cfg.AllowedOrigins)
	if err != nil {
		s.Cleanup()
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(), cors.New(corsConfig))

	auth := middlewares.Authenticate(middlewares.AuthConfig{
		Secret:    cfg.AccessTokenSecret,
		Blacklist: blacklist,
		Users:     users,
	})
	routes.RegisterRoutes(router, h, auth)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

// Cleanup releases the database pools and the Redis client.
func (s *Server) Cleanup() {
	if s.pool != nil {
		s.pool.Close()
		logrus.Info("database connection pool closed")
	}
	if s.gdb != nil {
		if sqlDB, err := s.gdb.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close user store")
			}
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close Redis client")
		}
	}
}

func openUserDB(databaseURL string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func newCORSConfig(origins []string) (cors.Config, error) {
	patterns := make([]*regexp.Regexp, 0, len(origins))
	for _, o := range origins {
		re, err := regexp.Compile(o)
		if err != nil {
			return cors.Config{}, fmt.Errorf("invalid CORS origin pattern %q: %w", o, err)
		}
		patterns = append(patterns, re)
	}

	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, re := range patterns {
				if re.MatchString(origin) {
					return true
				}
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}, nil
}
