package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port int

	// DatabaseURL selects PostgreSQL. When empty the server keeps the
	// schema in memory.
	DatabaseURL   string
	DBHost        string
	DBPort        string
	DBName        string
	AdminUser     string
	AdminPassword string
	AutoMigrate   bool

	// RedisAddr enables the token blacklist when set.
	RedisAddr string

	AccessTokenSecret []byte
	AccessTokenTTL    time.Duration

	// DemoMode makes every write endpoint answer without writing.
	DemoMode bool

	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, after .env has been
// loaded by godotenv.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getInt("PORT", 8000),
		DatabaseURL:    os.Getenv("DB_URL"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         getString("DB_PORT", "5432"),
		DBName:         os.Getenv("DB_DATABASE"),
		AdminUser:      os.Getenv("DB_ADMIN_USER"),
		AdminPassword:  os.Getenv("DB_ADMIN_PASSWORD"),
		AutoMigrate:    getBool("AUTO_MIGRATE", true),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AccessTokenTTL: getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		DemoMode:       getBool("DEMO_MODE", false),
		LogLevel:       getString("LOG_LEVEL", "info"),
		LogFormat:      getString("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" && cfg.DBHost != "" {
		user := os.Getenv("DB_USERNAME")
		if user == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("DB_USERNAME and DB_DATABASE are required when DB_HOST is set")
		}
		userInfo := url.UserPassword(user, os.Getenv("DB_PASSWORD"))
		cfg.DatabaseURL = fmt.Sprintf(
			"postgres://%s@%s:%s/%s?sslmode=disable",
			userInfo.String(),
			cfg.DBHost,
			cfg.DBPort,
			url.PathEscape(cfg.DBName),
		)
	}

	secret := os.Getenv("ACCESS_TOKEN_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET environment variable is required")
	}
	cfg.AccessTokenSecret = []byte(secret)

	origins := getString("CORS_ALLOWED_ORIGINS", `^https?://localhost(:\d+)?$,^https?://127\.0\.0\.1(:\d+)?$`)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}

// SetupLogging applies the log level and format to the standard logrus
// logger.
func (c *Config) SetupLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.Warnf("invalid %s=%q, using %t", key, v, def)
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.Warnf("invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
