package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/internal/notebook/store/drivers/mysql"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	DBDriver     string       // Optional: sqlite or mysql (default: sqlite)
	DatabaseFile string       // Optional: SQLite database file (default: ./notebook.db)
	MySQL        mysql.Config // Used when DBDriver is mysql
	PepperFile   string       // Optional: file holding the password pepper (default: ./pepper)

	// Admin is the account EnsureAdmin creates unless its email is taken.
	Admin service.AdminAccount

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	MaintenanceInterval time.Duration // Store maintenance interval (default: 6h)
	RequestTimeout      time.Duration // Per-request handler timeout (default: 30s)
	CookieSecure        bool          // Mark the session cookie Secure (default: false)

	// TrustedProxies is a comma separated list of CIDRs or addresses whose
	// forwarding headers are believed (default: none, the socket peer is the
	// client).
	TrustedProxies string

	OTelEndpoint        string        // OTLP/HTTP collector URL; empty disables metrics export
	OTelMetricsInterval time.Duration // Metrics push period (default: 60s)
}

// LoadConfig reads the environment. A .env file in the working directory is
// loaded first when present; real environment variables win over it.
func LoadConfig() Config {
	_ = godotenv.Load()
	httpx.LoadRateLimitsFromEnv()

	return Config{
		DBDriver:     getEnvOrDefault("NOTEBOOK_DB_DRIVER", DriverSQLite),
		DatabaseFile: getEnvOrDefault("NOTEBOOK_DATABASE_FILE", "notebook.db"),
		MySQL: mysql.Config{
			Host:     getEnvOrDefault("NOTEBOOK_MYSQL_HOST", "localhost"),
			Port:     getEnvIntOrDefault("NOTEBOOK_MYSQL_PORT", 3306),
			User:     getEnvOrDefault("NOTEBOOK_MYSQL_USER", "notebook"),
			Password: os.Getenv("NOTEBOOK_MYSQL_PASSWORD"),
			Database: getEnvOrDefault("NOTEBOOK_MYSQL_DATABASE", "notebook"),
		},
		PepperFile: getEnvOrDefault("NOTEBOOK_PEPPER_FILE", "pepper"),
		Admin: service.AdminAccount{
			Email:    os.Getenv("NOTEBOOK_ADMIN_EMAIL"),
			Password: os.Getenv("NOTEBOOK_ADMIN_PASSWORD"),
			Name:     os.Getenv("NOTEBOOK_ADMIN_NAME"),
		},
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		MaintenanceInterval: getEnvDurationOrDefault("MAINTENANCE_INTERVAL", 6*time.Hour),
		RequestTimeout:      getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		CookieSecure:        getEnvBoolOrDefault("SESSION_COOKIE_SECURE", false),
		TrustedProxies:      os.Getenv("TRUSTED_PROXIES"),
		OTelEndpoint:        os.Getenv("NOTEBOOK_OTEL_ENDPOINT"),
		OTelMetricsInterval: getEnvDurationOrDefault("NOTEBOOK_OTEL_METRICS_INTERVAL", time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
