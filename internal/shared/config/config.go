package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the seating engine
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Seat inventory configuration
	Inventory InventoryConfig

	// Hold lifecycle configuration
	Holds HoldConfig

	// Best-available selection configuration
	Selection SelectionConfig

	// Browsing session configuration
	Session SessionConfig

	// Kafka seat-event stream
	Kafka KafkaConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// AdminAPIKey guards operational endpoints (seat block/unblock,
	// chart seeding). Empty disables them.
	AdminAPIKey string

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for cached read-side data
	AvailabilityTTL time.Duration
	ChartTTL        time.Duration
}

// InventoryConfig selects and tunes the seat-state store
type InventoryConfig struct {
	// Backend is "memory" (single instance, authoritative in-process)
	// or "redis" (shared state across instances via Lua scripts).
	Backend string
}

// HoldConfig tunes the hold lifecycle
type HoldConfig struct {
	// DefaultTTL is used when a hold request does not name one.
	DefaultTTL time.Duration
	// MinTTL / MaxTTL clamp caller-supplied TTLs.
	MinTTL time.Duration
	MaxTTL time.Duration
	// ExtendGrant is added to expiresAt per extend call.
	ExtendGrant time.Duration
	// MaxLifetime is the hard ceiling measured from createdAt past
	// which no extension may push expiresAt.
	MaxLifetime time.Duration
	// SweepInterval is how often the expiration sweep scans active
	// holds. Keep it short relative to the TTLs above.
	SweepInterval time.Duration
}

// SelectionConfig tunes the best-available search
type SelectionConfig struct {
	// RowTolerancePercent is the max |Δy| (percent space) for two
	// seats to count as the same row.
	RowTolerancePercent float64
	// GapTolerancePercent is the max x-gap (percent space) between
	// neighbours inside a contiguous run.
	GapTolerancePercent float64
	// MaxQuantity bounds a single best-available request.
	MaxQuantity int
}

// SessionConfig tunes browsing sessions
type SessionConfig struct {
	// TokenSecret signs session tokens (HMAC).
	TokenSecret string
	// TokenTTL is the lifetime of a session token.
	TokenTTL time.Duration
	// MaxSelection is the per-session cap on pending seats.
	MaxSelection int
	// ReconcileInterval is how often session views are folded back
	// onto server truth (hold expiry, seats sold elsewhere).
	ReconcileInterval time.Duration
	// IdleTimeout evicts sessions with no activity.
	IdleTimeout time.Duration
}

// KafkaConfig holds seat-event stream configuration
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled          bool          `json:"enabled"`
	WindowDuration   time.Duration `json:"window_duration"`
	DefaultRequests  int           `json:"default_requests"`
	PublicRequests   int           `json:"public_requests"`
	SessionRequests  int           `json:"session_requests"`
	HoldRequests     int           `json:"hold_requests"`
	CriticalRequests int           `json:"critical_requests"`
	HealthRequests   int           `json:"health_requests"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "seating_db"),
			User:     getEnv("DB_USER", "seating_user"),
			Password: getEnv("DB_PASSWORD", "seating_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			AvailabilityTTL: getDurationEnv("REDIS_AVAILABILITY_TTL", 30*time.Second),
			ChartTTL:        getDurationEnv("REDIS_CHART_TTL", 4*time.Hour),
		},

		Inventory: InventoryConfig{
			Backend: getEnv("SEAT_STORE_BACKEND", "memory"),
		},

		Holds: HoldConfig{
			DefaultTTL:    getDurationEnv("HOLD_DEFAULT_TTL", 10*time.Minute),
			MinTTL:        getDurationEnv("HOLD_MIN_TTL", 30*time.Second),
			MaxTTL:        getDurationEnv("HOLD_MAX_TTL", 15*time.Minute),
			ExtendGrant:   getDurationEnv("HOLD_EXTEND_GRANT", 5*time.Minute),
			MaxLifetime:   getDurationEnv("HOLD_MAX_LIFETIME", 30*time.Minute),
			SweepInterval: getDurationEnv("HOLD_SWEEP_INTERVAL", 5*time.Second),
		},

		Selection: SelectionConfig{
			RowTolerancePercent: getFloatEnv("SELECTION_ROW_TOLERANCE", 1.5),
			GapTolerancePercent: getFloatEnv("SELECTION_GAP_TOLERANCE", 4.0),
			MaxQuantity:         getIntEnv("SELECTION_MAX_QUANTITY", 10),
		},

		Session: SessionConfig{
			TokenSecret:       getEnv("SESSION_TOKEN_SECRET", "change-me-session-secret"),
			TokenTTL:          getDurationEnv("SESSION_TOKEN_TTL", 2*time.Hour),
			MaxSelection:      getIntEnv("SESSION_MAX_SELECTION", 10),
			ReconcileInterval: getDurationEnv("SESSION_RECONCILE_INTERVAL", 2*time.Second),
			IdleTimeout:       getDurationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},

		Kafka: KafkaConfig{
			Enabled:       getBoolEnv("KAFKA_ENABLED", false),
			Brokers:       getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:         getEnv("KAFKA_SEAT_EVENTS_TOPIC", "seat-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "seating-cache-invalidator"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:          getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:   getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:  getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:   getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 120),
			SessionRequests:  getIntEnv("RATE_LIMIT_SESSION_REQUESTS", 240),
			HoldRequests:     getIntEnv("RATE_LIMIT_HOLD_REQUESTS", 30),
			CriticalRequests: getIntEnv("RATE_LIMIT_CRITICAL_REQUESTS", 10),
			HealthRequests:   getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 120),
		},

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getFloatEnv gets a float environment variable with a fallback value
func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
