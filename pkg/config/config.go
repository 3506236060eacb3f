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

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	RateLimit   RateLimitConfig
	Risk        RiskConfig
	Documents   DocumentsConfig
	Uploads     UploadsConfig
	Maintenance MaintenanceConfig
	Dashboard   DashboardConfig
	Migrations  MigrationsConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig sizes the shared request windows enforced through redis.
type RateLimitConfig struct {
	Enabled  bool
	Default  int
	Critical int
	Window   time.Duration
}

// RiskConfig governs scheduled risk rule evaluation.
type RiskConfig struct {
	ScheduleEnabled   bool
	Schedule          string
	LockTTL           time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// DocumentsConfig tunes document numbering.
type DocumentsConfig struct {
	ReservationTTL time.Duration
}

// UploadsConfig controls attachment storage & validation.
type UploadsConfig struct {
	StorageDir       string
	MaxFileSizeBytes int64
	MaxFormSizeBytes int64
	AllowedMIMEs     []string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
}

// MaintenanceConfig drives the nightly housekeeping routine.
type MaintenanceConfig struct {
	Enabled                   bool
	Schedule                  string
	Timezone                  string
	OccurrenceRetention       time.Duration
	ArchivedDocumentRetention time.Duration
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// MigrationsConfig toggles embedded migrations at boot.
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

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
		Default:  v.GetInt("RATE_LIMIT_DEFAULT"),
		Critical: v.GetInt("RATE_LIMIT_CRITICAL"),
		Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), 5*time.Minute),
	}

	cfg.Risk = RiskConfig{
		ScheduleEnabled:   v.GetBool("RISK_SCHEDULE_ENABLED"),
		Schedule:          v.GetString("RISK_SCHEDULE"),
		LockTTL:           parseDuration(v.GetString("RISK_LOCK_TTL"), 10*time.Minute),
		WorkerConcurrency: v.GetInt("RISK_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("RISK_WORKER_RETRIES"),
	}

	cfg.Documents = DocumentsConfig{
		ReservationTTL: parseDuration(v.GetString("DOCUMENT_RESERVATION_TTL"), 7*24*time.Hour),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:       v.GetString("UPLOADS_STORAGE_DIR"),
		MaxFileSizeBytes: maxUpload,
		MaxFormSizeBytes: v.GetInt64("UPLOADS_MAX_FORM_SIZE"),
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
		SignedURLSecret:  v.GetString("UPLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("UPLOADS_SIGNED_URL_TTL"), 30*time.Minute),
	}

	cfg.Maintenance = MaintenanceConfig{
		Enabled:                   v.GetBool("MAINTENANCE_ENABLED"),
		Schedule:                  v.GetString("MAINTENANCE_SCHEDULE"),
		Timezone:                  v.GetString("CRON_TZ"),
		OccurrenceRetention:       parseDuration(v.GetString("OCCURRENCE_RETENTION"), 5*365*24*time.Hour),
		ArchivedDocumentRetention: parseDuration(v.GetString("ARCHIVED_DOCUMENT_RETENTION"), 10*365*24*time.Hour),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Migrations = MigrationsConfig{AutoMigrate: v.GetBool("MIGRATIONS_AUTO")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_pedagogy")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "sma-pedagogy-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_DEFAULT", 100)
	v.SetDefault("RATE_LIMIT_CRITICAL", 30)
	v.SetDefault("RATE_LIMIT_WINDOW", "300s")

	v.SetDefault("RISK_SCHEDULE_ENABLED", false)
	v.SetDefault("RISK_SCHEDULE", "0 30 6 * * *")
	v.SetDefault("RISK_LOCK_TTL", "10m")
	v.SetDefault("RISK_WORKER_CONCURRENCY", 2)
	v.SetDefault("RISK_WORKER_RETRIES", 2)

	v.SetDefault("DOCUMENT_RESERVATION_TTL", "168h")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_MAX_FORM_SIZE", 30*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "application/pdf,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document,image/png,image/jpeg,audio/mpeg,audio/webm,video/mp4")
	v.SetDefault("UPLOADS_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOADS_SIGNED_URL_TTL", "30m")

	v.SetDefault("MAINTENANCE_ENABLED", false)
	v.SetDefault("MAINTENANCE_SCHEDULE", "0 0 2 * * *")
	v.SetDefault("CRON_TZ", "America/Manaus")
	v.SetDefault("OCCURRENCE_RETENTION", "43800h")
	v.SetDefault("ARCHIVED_DOCUMENT_RETENTION", "87600h")

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
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
