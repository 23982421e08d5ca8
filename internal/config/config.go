package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTExpiry = time.Hour

// devJWTSecret only applies when APP_ENV is dev or test.
const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Env         string
	Port        int
	ServiceName string

	// storage
	Store         string // "postgres" | "memory"
	DBURL         string
	DBMaxConns    int32
	RunMigrations bool

	// auth
	JWTSecret           string
	JWTExpiry           time.Duration
	RegisterAllowsRole  bool
	AuthRateLimit       int
	AuthRateLimitWindow time.Duration

	// bootstrap admin
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// notifications
	RabbitMQURL   string
	RabbitMQQueue string

	// notification worker
	WorkerHealthPort  int
	WorkerConcurrency int
	WorkerMaxAttempts int

	// http
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	TrustedProxies     []string

	// tracing
	OTLPEndpoint string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		ServiceName: getEnv("SERVICE_NAME", "eventsapp-api"),

		Store:         strings.ToLower(getEnv("STORE", "postgres")),
		DBURL:         getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:    int32(getEnvInt("DB_MAX_CONNS", 10)),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpiry:           getEnvDuration("JWT_EXPIRES_IN", defaultJWTExpiry),
		RegisterAllowsRole:  getEnvBool("AUTH_REGISTER_ALLOW_ROLE", true),
		AuthRateLimit:       getEnvInt("AUTH_RATE_LIMIT", 10),
		AuthRateLimitWindow: getEnvDuration("AUTH_RATE_WINDOW", time.Minute),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 30*time.Second),

		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue: getEnv("RABBITMQ_QUEUE", "registrations"),

		WorkerHealthPort:  getEnvInt("WORKER_HEALTH_PORT", 8081),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerMaxAttempts: getEnvInt("WORKER_MAX_ATTEMPTS", 5),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		TrustedProxies:     splitList(getEnv("TRUSTED_PROXIES", "")),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.JWTSecret == "" && cfg.IsLocal() {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg
}

// IsLocal reports whether the process runs in a dev or test environment.
func (c Config) IsLocal() bool {
	return c.Env == "dev" || c.Env == "test"
}

// Validate rejects settings the API must not start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", c.Env)
	}
	return nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "eventsapp")
	pass := getEnv("DB_PASSWORD", "eventsapp")
	name := getEnv("DB_NAME", "eventsapp")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// WithRequestTimeout bounds a store call by both the incoming request and a deadline.
func WithRequestTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid int in environment, using default", "key", key, "err", err, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid bool in environment, using default", "key", key, "err", err, "default", fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
