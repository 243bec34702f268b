package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tair/supply-dashboard/pkg/database"
)

// BackendConfig describes the inventory REST backend
type BackendConfig struct {
	BaseURL     string
	Timeout     time.Duration
	HealthCheck string
	WarehouseID string
}

// IdentityConfig describes the managed identity provider
type IdentityConfig struct {
	Region       string
	Endpoint     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	AdminGroups  []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig bounds auth form submissions per client IP
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
	SampleRatio    float64
}

// SessionConfig controls the browser session cookie and workspace lifetime
type SessionConfig struct {
	CookieName    string
	CookieSecure  bool
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// DashboardConfig holds the main dashboard configuration
type DashboardConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	ServiceVersion string
	LogLevel       string
	AllowOrigins   string

	Backend   BackendConfig
	Identity  IdentityConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Kafka     KafkaConfig
	Tracing   TracingConfig
	Session   SessionConfig

	DatabaseEnabled bool
	Database        database.Config
}

// IsDevelopment reports whether the dashboard runs in development mode
func (c *DashboardConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig loads the dashboard configuration
func LoadConfig() *DashboardConfig {
	return &DashboardConfig{
		Port:           getEnv("DASHBOARD_PORT", "8000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "supply-dashboard"),
		ServiceVersion: getEnv("SERVICE_VERSION", "1.0.0"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		Backend: BackendConfig{
			BaseURL:     getEnv("BACKEND_URL", "http://localhost:8080"),
			Timeout:     getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
			HealthCheck: getEnv("BACKEND_HEALTH_PATH", "/health"),
			WarehouseID: getEnv("WAREHOUSE_ID", "warehouse_main_01"),
		},
		Identity: IdentityConfig{
			Region:       getEnv("COGNITO_REGION", "us-east-1"),
			Endpoint:     getEnv("COGNITO_ENDPOINT", ""),
			ClientID:     getEnv("COGNITO_CLIENT_ID", ""),
			ClientSecret: getEnv("COGNITO_CLIENT_SECRET", ""),
			Timeout:      getEnvDuration("COGNITO_TIMEOUT", 10*time.Second),
			AdminGroups:  getEnvSlice("ADMIN_GROUPS", []string{"Admin", "ADMINS"}),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: getEnvInt("AUTH_RATE_LIMIT", 20),
			Window:      getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_ORDER_COMPLETED", "order-completed"),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvBool("TRACING_ENABLED", true),
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			SampleRatio:    getEnvFloat("TRACING_SAMPLE_RATIO", 1),
		},
		Session: SessionConfig{
			CookieName:    getEnv("SESSION_COOKIE", "dashboard_session"),
			CookieSecure:  getEnvBool("SESSION_COOKIE_SECURE", false),
			IdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
		DatabaseEnabled: getEnvBool("DB_ENABLED", false),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "dashboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
