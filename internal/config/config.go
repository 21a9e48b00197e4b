// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// --------------------------------------------------------------------------
// Config is populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Storage
	StoreDriver    string
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	DBAutoMigrate  bool
	SQLitePath     string

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool
	CacheTTL     time.Duration

	// Ingestion
	IngestMaxRetries int
	AlertCooldown    time.Duration // 0 re-fires alerts on every out-of-range reading
	LowWaterMark     float64
	HighTemperature  float64

	// Web Push (VAPID)
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	PushTTL         int
	PushTimeout     time.Duration
	PushConcurrency int
	PushQueueSize   int

	// NATS event bus (optional)
	NATSURL     string
	NATSSubject string

	// MQTT telemetry listener (optional)
	MQTTBrokerURL string
	MQTTClientID  string
	MQTTTopic     string
	MQTTQoS       byte
	MQTTUsername  string
	MQTTPassword  string

	// Retention is an operator policy; both tasks are off unless configured.
	MaintenanceInterval   time.Duration
	EventRetention        time.Duration
	NotificationRetention time.Duration
}

const defaultPushTimeout = 10 * time.Second

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	driver := strings.ToLower(envOr("STORE_DRIVER", DriverPostgres))
	dbURL := envOr("DATABASE_URL", "")

	switch driver {
	case DriverPostgres:
		if dbURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set when STORE_DRIVER=%s", DriverPostgres)
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", driver, DriverPostgres, DriverSQLite)
	}

	qos := envInt("MQTT_QOS", 1)
	if qos < 0 || qos > 2 {
		return nil, fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", qos)
	}

	// A push attempt always has a deadline.
	pushTimeout := envDuration("PUSH_TIMEOUT", defaultPushTimeout)
	if pushTimeout <= 0 {
		pushTimeout = defaultPushTimeout
	}

	return &Config{
		StoreDriver:    driver,
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		DBAutoMigrate:  envBool("DB_AUTO_MIGRATE", true),
		SQLitePath:     envOr("SQLITE_PATH", "./data/petcare.db"),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     envDuration("CACHE_TTL", 5*time.Second),

		IngestMaxRetries: envInt("INGEST_MAX_RETRIES", 5),
		AlertCooldown:    envDuration("ALERT_COOLDOWN", 0),
		LowWaterMark:     envFloat("LOW_WATER_MARK", 30),
		HighTemperature:  envFloat("HIGH_TEMPERATURE", 28),

		VAPIDPublicKey:  envOr("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: envOr("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    envOr("VAPID_SUBJECT", "mailto:admin@localhost"),
		PushTTL:         envInt("PUSH_TTL_SECONDS", 3600),
		PushTimeout:     pushTimeout,
		PushConcurrency: envInt("PUSH_CONCURRENCY", 16),
		PushQueueSize:   envInt("PUSH_QUEUE_SIZE", 256),

		NATSURL:     envOr("NATS_URL", ""),
		NATSSubject: envOr("NATS_SUBJECT_PREFIX", "petcare.notifications"),

		MQTTBrokerURL: envOr("MQTT_BROKER_URL", ""),
		MQTTClientID:  envOr("MQTT_CLIENT_ID", "petcare-ingest"),
		MQTTTopic:     envOr("MQTT_TOPIC", "petcare/readings"),
		MQTTQoS:       byte(qos),
		MQTTUsername:  envOr("MQTT_USERNAME", ""),
		MQTTPassword:  envOr("MQTT_PASSWORD", ""),

		MaintenanceInterval:   envDuration("MAINTENANCE_INTERVAL", 30*time.Minute),
		EventRetention:        envDuration("EVENT_RETENTION", 0),
		NotificationRetention: envDuration("NOTIFICATION_RETENTION", 0),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PushEnabled reports whether VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
