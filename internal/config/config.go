package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/cache"
	"github.com/Eventstwogo/events-backend-sub002/internal/database"
	"github.com/Eventstwogo/events-backend-sub002/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	ServiceName    string
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	RunMigrations  bool

	// Admin API credentials (Basic Auth)
	AdminUser     string
	AdminPassword string

	Database      database.Config
	NATS          messaging.Config
	Valkey        cache.Config
	Elasticsearch ElasticsearchConfig

	Holds   HoldsConfig
	Events  EventsConfig
	Coupons CouponsConfig
}

// HoldsConfig controls the seat-hold reconciler and the held-count backfill.
type HoldsConfig struct {
	HoldDuration     time.Duration
	CleanupInterval  time.Duration
	BackfillInterval time.Duration
}

type EventsConfig struct {
	CheckInterval time.Duration
}

type CouponsConfig struct {
	HoldDuration    time.Duration
	CleanupInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		ServiceName:    getEnv("SERVICE_NAME", "events-scheduler"),
		Port:           getEnv("PORT", "8082"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		RunMigrations:  getEnvBool("RUN_MIGRATIONS", true),

		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "events"),
			Password:           getEnv("DB_PASSWORD", "events"),
			DBName:             getEnv("DB_NAME", "events"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       os.Getenv("NATS_URL"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "events"),
			ClientID:  getEnv("NATS_CLIENT_ID", "events-scheduler"),
		},

		Valkey: cache.Config{
			Addr:      os.Getenv("VALKEY_ADDR"),
			Password:  os.Getenv("VALKEY_PASSWORD"),
			DB:        getEnvInt("VALKEY_DB", 0),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "events"),
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Holds: HoldsConfig{
			HoldDuration:     getEnvMinutes("HOLD_DURATION_MINUTES", 15),
			CleanupInterval:  getEnvMinutes("BOOKING_SEATS_CLEANUP_INTERVAL_MINUTES", 10),
			BackfillInterval: getEnvMinutes("HELD_BACKFILL_INTERVAL_MINUTES", 0),
		},

		Events: EventsConfig{
			CheckInterval: time.Duration(getEnvInt("EXPIRED_EVENTS_CHECK_INTERVAL_HOURS", 1)) * time.Hour,
		},

		Coupons: CouponsConfig{
			HoldDuration:    getEnvMinutes("COUPON_HOLD_MINUTES", 15),
			CleanupInterval: getEnvMinutes("COUPON_CLEANUP_INTERVAL_MINUTES", 15),
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

// getEnvMinutes reads a whole number of minutes. Negative values fall back to the default.
func getEnvMinutes(key string, defaultValue int) time.Duration {
	minutes := getEnvInt(key, defaultValue)
	if minutes < 0 {
		minutes = defaultValue
	}
	return time.Duration(minutes) * time.Minute
}
