package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Budget spend scopes. SpendScopeCategory sums only the budget's category
// when one is set; SpendScopeMonth always sums every expense of the month.
const (
	SpendScopeCategory = "category"
	SpendScopeMonth    = "month"
)

// Config holds application configuration
type Config struct {
	Env string

	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// InternalAPIKey guards the internal scan trigger endpoint.
	InternalAPIKey string

	// AMQP fan-out for appended notifications. Disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Notifications
	DedupWindow     time.Duration
	UpcomingDueDays int
	DueScanInterval time.Duration

	// Budgets
	BudgetSpendScope string
}

// fileOverlay is the optional TOML file named by CONFIG_FILE. Only the
// notification and budget tuning knobs can be set there.
type fileOverlay struct {
	Notifications struct {
		DedupWindow     string `toml:"dedup_window"`
		UpcomingDueDays int    `toml:"upcoming_due_days"`
		ScanInterval    string `toml:"scan_interval"`
	} `toml:"notifications"`
	Budgets struct {
		SpendScope string `toml:"spend_scope"`
	} `toml:"budgets"`
}

var appConfig *Config

// Load loads configuration from environment variables, then applies the
// TOML overlay when CONFIG_FILE is set.
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "finanzas"),
		DBPassword: getEnv("DB_PASSWORD", "finanzas"),
		DBName:     getEnv("DB_NAME", "finanzas"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:      getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finanzas.notifications"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "notifications"),

		BudgetSpendScope: getEnv("BUDGET_SPEND_SCOPE", SpendScopeCategory),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.DedupWindow = getDuration("NOTIFICATION_DEDUP_WINDOW", 24*time.Hour)
	config.DueScanInterval = getDuration("DUE_SCAN_INTERVAL", time.Hour)
	config.UpcomingDueDays = getInt("UPCOMING_DUE_DAYS", 3)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.BudgetSpendScope {
	case SpendScopeCategory, SpendScopeMonth:
	default:
		return fmt.Errorf("invalid BUDGET_SPEND_SCOPE %q (use %q or %q)", c.BudgetSpendScope, SpendScopeCategory, SpendScopeMonth)
	}
	if c.DedupWindow <= 0 {
		return fmt.Errorf("notification dedup window must be positive, got %s", c.DedupWindow)
	}
	if c.UpcomingDueDays < 1 {
		return fmt.Errorf("upcoming due days must be at least 1, got %d", c.UpcomingDueDays)
	}
	if c.DueScanInterval <= 0 {
		return fmt.Errorf("due scan interval must be positive, got %s", c.DueScanInterval)
	}
	return nil
}

// CategoryScopedSpend reports whether budget spend is filtered by category.
func (c *Config) CategoryScopedSpend() bool {
	return c.BudgetSpendScope != SpendScopeMonth
}

// applyFile overlays non-empty values from a TOML file.
func (c *Config) applyFile(path string) error {
	var overlay fileOverlay
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if v := overlay.Notifications.DedupWindow; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid notifications.dedup_window %q: %w", v, err)
		}
		c.DedupWindow = d
	}
	if v := overlay.Notifications.ScanInterval; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid notifications.scan_interval %q: %w", v, err)
		}
		c.DueScanInterval = d
	}
	if v := overlay.Notifications.UpcomingDueDays; v != 0 {
		c.UpcomingDueDays = v
	}
	if v := overlay.Budgets.SpendScope; v != "" {
		c.BudgetSpendScope = v
	}
	return nil
}

// PostgresURL returns the URL form of the database DSN used by golang-migrate.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
