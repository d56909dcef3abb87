package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Policy   PolicyConfig
	Payroll  PayrollConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	StorageDriver  string
	SiteTimezone   string
	AllowedOrigins []string
	SeedDemoData   bool
}

// PolicyConfig holds the attendance and payroll rules of the organisation.
type PolicyConfig struct {
	GraceMinutes         int
	HalfDayRatio         float64
	LatePenaltyPerMinute decimal.Decimal
	AbsencePenaltyPerDay decimal.Decimal
	StatutoryRate        decimal.Decimal
}

type PayrollConfig struct {
	BatchConcurrency int
}

type CronConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set by the container.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(dbMaxConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	seedDemoData, err := strconv.ParseBool(getEnv("SEED_DEMO_DATA", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_DEMO_DATA: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StorageDriver:  getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		SiteTimezone:   getEnv("SITE_TIMEZONE", "Asia/Jakarta"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
		SeedDemoData:   seedDemoData,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Policy configuration
	graceMinutes, err := strconv.Atoi(getEnv("POLICY_GRACE_MINUTES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLICY_GRACE_MINUTES: %w", err)
	}
	halfDayRatio, err := strconv.ParseFloat(getEnv("POLICY_HALF_DAY_RATIO", "0.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid POLICY_HALF_DAY_RATIO: %w", err)
	}
	latePenalty, err := decimal.NewFromString(getEnv("POLICY_LATE_PENALTY_PER_MINUTE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLICY_LATE_PENALTY_PER_MINUTE: %w", err)
	}
	absencePenalty, err := decimal.NewFromString(getEnv("POLICY_ABSENCE_PENALTY_PER_DAY", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLICY_ABSENCE_PENALTY_PER_DAY: %w", err)
	}
	statutoryRate, err := decimal.NewFromString(getEnv("POLICY_STATUTORY_DEDUCTION_RATE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLICY_STATUTORY_DEDUCTION_RATE: %w", err)
	}

	config.Policy = PolicyConfig{
		GraceMinutes:         graceMinutes,
		HalfDayRatio:         halfDayRatio,
		LatePenaltyPerMinute: latePenalty,
		AbsencePenaltyPerDay: absencePenalty,
		StatutoryRate:        statutoryRate,
	}

	// Payroll configuration
	batchConcurrency, err := strconv.Atoi(getEnv("PAYROLL_BATCH_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_BATCH_CONCURRENCY: %w", err)
	}
	config.Payroll = PayrollConfig{BatchConcurrency: batchConcurrency}

	// Cron configuration
	cronEnabled, err := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_ENABLED: %w", err)
	}
	config.Cron = CronConfig{Enabled: cronEnabled}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.StorageDriver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.LoadLocation(c.App.SiteTimezone); err != nil {
		return fmt.Errorf("invalid SITE_TIMEZONE: %w", err)
	}
	if c.Policy.GraceMinutes < 0 {
		return fmt.Errorf("POLICY_GRACE_MINUTES must not be negative")
	}
	if c.Policy.HalfDayRatio <= 0 || c.Policy.HalfDayRatio > 1 {
		return fmt.Errorf("POLICY_HALF_DAY_RATIO must be in (0, 1]")
	}
	if c.Policy.LatePenaltyPerMinute.IsNegative() || c.Policy.AbsencePenaltyPerDay.IsNegative() {
		return fmt.Errorf("penalty rates must not be negative")
	}
	if c.Policy.StatutoryRate.IsNegative() || c.Policy.StatutoryRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("POLICY_STATUTORY_DEDUCTION_RATE must be in [0, 1]")
	}
	if c.Payroll.BatchConcurrency < 1 {
		return fmt.Errorf("PAYROLL_BATCH_CONCURRENCY must be at least 1")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
