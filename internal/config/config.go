// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/javajoker/curated-market/internal/scoring"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	I18n        I18nConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Review      ReviewConfig
	Order       OrderConfig
	Metrics     MetricsConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	AuthPerMinute     int
}

// MaxRubricScore keeps review averages within the decimal(5,2) score columns.
const MaxRubricScore = 100

// ReviewConfig is the curator rubric policy.
type ReviewConfig struct {
	RubricMinScore      int
	RubricMaxScore      int
	PointsMultiplier    int64
	AcceptanceThreshold decimal.Decimal
}

type OrderConfig struct {
	// RestockOnCancel returns the reserved unit when a pending order is cancelled or fails.
	RestockOnCancel bool
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "curated_market"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
			AuthPerMinute:     getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 5),
		},
		Review: ReviewConfig{
			RubricMinScore:      getEnvAsInt("REVIEW_RUBRIC_MIN_SCORE", 0),
			RubricMaxScore:      getEnvAsInt("REVIEW_RUBRIC_MAX_SCORE", 5),
			PointsMultiplier:    int64(getEnvAsInt("REVIEW_POINTS_MULTIPLIER", 100)),
			AcceptanceThreshold: getEnvAsDecimal("REVIEW_ACCEPTANCE_THRESHOLD", decimal.RequireFromString("3.00")),
		},
		Order: OrderConfig{
			RestockOnCancel: getEnvAsBool("ORDER_RESTOCK_ON_CANCEL", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	r := c.Review
	if r.RubricMinScore < 0 {
		return fmt.Errorf("rubric minimum score must not be negative")
	}
	if r.RubricMinScore >= r.RubricMaxScore {
		return fmt.Errorf("rubric minimum score %d must be below maximum %d", r.RubricMinScore, r.RubricMaxScore)
	}
	if r.RubricMaxScore > MaxRubricScore {
		return fmt.Errorf("rubric maximum score %d exceeds %d", r.RubricMaxScore, MaxRubricScore)
	}
	if r.PointsMultiplier < 0 {
		return fmt.Errorf("review points multiplier must not be negative")
	}
	if r.AcceptanceThreshold.LessThan(decimal.NewFromInt(int64(r.RubricMinScore))) ||
		r.AcceptanceThreshold.GreaterThan(decimal.NewFromInt(int64(r.RubricMaxScore))) {
		return fmt.Errorf("acceptance threshold %s is outside the rubric scale", r.AcceptanceThreshold)
	}

	return nil
}

// ScoringPolicy is the rubric scale and reward multiplier the scoring engine runs with.
func (r ReviewConfig) ScoringPolicy() scoring.Policy {
	return scoring.Policy{
		MinScore:         r.RubricMinScore,
		MaxScore:         r.RubricMaxScore,
		PointsMultiplier: r.PointsMultiplier,
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
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
