package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Allocation AllocationConfig
	Sessions   SessionsConfig
	Cron       CronConfig
	Jobs       JobsConfig
	Migrations MigrationsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AllocationConfig tunes class-group allocation.
type AllocationConfig struct {
	DefaultCapacity int
	MaxRetries      int
}

// SessionsConfig governs class-session generation windows and retention.
type SessionsConfig struct {
	DefaultHorizonMonths  int
	SemesterHorizonMonths int
	WeeklyHorizonDays     int
	RetentionKeepYears    int
	BatchTimeout          time.Duration
}

// CronConfig holds the trigger expressions for periodic session maintenance.
type CronConfig struct {
	Enabled       bool
	SemesterSpec  string
	WeeklySpec    string
	RetentionSpec string
}

// JobsConfig configures the background job queue.
type JobsConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
	LockTTL    time.Duration
}

// MigrationsConfig toggles schema migration on boot.
type MigrationsConfig struct {
	AutoMigrate bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Allocation = AllocationConfig{
		DefaultCapacity: positiveOr(v.GetInt("CLASS_GROUP_DEFAULT_CAPACITY"), 40),
		MaxRetries:      positiveOr(v.GetInt("ALLOCATION_MAX_RETRIES"), 3),
	}

	cfg.Sessions = SessionsConfig{
		DefaultHorizonMonths:  positiveOr(v.GetInt("SESSIONS_DEFAULT_HORIZON_MONTHS"), 4),
		SemesterHorizonMonths: positiveOr(v.GetInt("SESSIONS_SEMESTER_HORIZON_MONTHS"), 5),
		WeeklyHorizonDays:     positiveOr(v.GetInt("SESSIONS_WEEKLY_HORIZON_DAYS"), 14),
		RetentionKeepYears:    positiveOr(v.GetInt("SESSIONS_RETENTION_KEEP_YEARS"), 2),
		BatchTimeout:          parseDuration(v.GetString("SESSIONS_BATCH_TIMEOUT"), 2*time.Minute),
	}

	cfg.Cron = CronConfig{
		Enabled:       v.GetBool("ENABLE_CRON"),
		SemesterSpec:  v.GetString("SESSIONS_SEMESTER_CRON"),
		WeeklySpec:    v.GetString("SESSIONS_WEEKLY_CRON"),
		RetentionSpec: v.GetString("SESSIONS_RETENTION_CRON"),
	}

	cfg.Jobs = JobsConfig{
		Workers:    positiveOr(v.GetInt("JOBS_WORKERS"), 1),
		Retries:    positiveOr(v.GetInt("JOBS_RETRIES"), 3),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), 30*time.Second),
		LockTTL:    parseDuration(v.GetString("JOBS_LOCK_TTL"), 15*time.Minute),
	}

	cfg.Migrations = MigrationsConfig{AutoMigrate: v.GetBool("MIGRATIONS_AUTO")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_core")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CLASS_GROUP_DEFAULT_CAPACITY", 40)
	v.SetDefault("ALLOCATION_MAX_RETRIES", 3)

	v.SetDefault("SESSIONS_DEFAULT_HORIZON_MONTHS", 4)
	v.SetDefault("SESSIONS_SEMESTER_HORIZON_MONTHS", 5)
	v.SetDefault("SESSIONS_WEEKLY_HORIZON_DAYS", 14)
	v.SetDefault("SESSIONS_RETENTION_KEEP_YEARS", 2)
	v.SetDefault("SESSIONS_BATCH_TIMEOUT", "2m")

	v.SetDefault("ENABLE_CRON", false)
	v.SetDefault("SESSIONS_SEMESTER_CRON", "0 2 1 1,7 *")
	v.SetDefault("SESSIONS_WEEKLY_CRON", "0 3 * * 1")
	v.SetDefault("SESSIONS_RETENTION_CRON", "0 4 1 8 *")

	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "30s")
	v.SetDefault("JOBS_LOCK_TTL", "15m")

	v.SetDefault("MIGRATIONS_AUTO", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
