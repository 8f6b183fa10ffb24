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

	Upstream UpstreamConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Sessions SessionConfig
	Catalog  CatalogConfig
	Booking  BookingConfig
	Audit    AuditConfig
	Links    LinkConfig
	CORS     CORSConfig
	Log      LogConfig
}

// UpstreamConfig points the gateway at the appointment backend.
type UpstreamConfig struct {
	BaseURL        string
	AuthURL        string
	Timeout        time.Duration
	RateLimitQPS   float64
	RateLimitBurst int
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
	Issuer     string
	Expiration time.Duration
}

// SessionConfig bounds the lifetime of in-memory gateway state.
type SessionConfig struct {
	AuthTTL     time.Duration
	WorkflowTTL time.Duration
	SweepSpec   string
}

// CatalogConfig governs caching of themes and agendas.
type CatalogConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// BookingConfig holds submit-time limits.
type BookingConfig struct {
	Timezone           string
	NotesMaxLength     int
	RateLimitPerMinute int
	RateLimitBurst     int
}

// AuditConfig toggles the booking attempt trail.
type AuditConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
}

// LinkConfig signs bearer-free document links.
type LinkConfig struct {
	Secret        string
	TTL           time.Duration
	PublicBaseURL string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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

	baseURL := strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/")
	authURL := strings.TrimRight(v.GetString("UPSTREAM_AUTH_URL"), "/")
	if authURL == "" {
		authURL = baseURL + "/auth/jwt"
	}
	cfg.Upstream = UpstreamConfig{
		BaseURL:        baseURL,
		AuthURL:        authURL,
		Timeout:        parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
		RateLimitQPS:   v.GetFloat64("UPSTREAM_RATE_LIMIT_QPS"),
		RateLimitBurst: v.GetInt("UPSTREAM_RATE_LIMIT_BURST"),
	}

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
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
	}

	cfg.Sessions = SessionConfig{
		AuthTTL:     parseDuration(v.GetString("AUTH_SESSION_TTL"), 12*time.Hour),
		WorkflowTTL: parseDuration(v.GetString("WORKFLOW_SESSION_TTL"), 30*time.Minute),
		SweepSpec:   v.GetString("SESSION_SWEEP_SPEC"),
	}

	cfg.Catalog = CatalogConfig{
		CacheEnabled: v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Booking = BookingConfig{
		Timezone:           v.GetString("APPOINTMENT_TIMEZONE"),
		NotesMaxLength:     v.GetInt("BOOKING_NOTES_MAX_LENGTH"),
		RateLimitPerMinute: v.GetInt("BOOKING_RATE_LIMIT_PER_MINUTE"),
		RateLimitBurst:     v.GetInt("BOOKING_RATE_LIMIT_BURST"),
	}

	cfg.Audit = AuditConfig{
		Enabled:    v.GetBool("ENABLE_BOOKING_AUDIT"),
		Workers:    v.GetInt("AUDIT_WORKERS"),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
	}

	linkSecret := v.GetString("LINK_SECRET")
	if linkSecret == "" {
		linkSecret = cfg.JWT.Secret
	}
	cfg.Links = LinkConfig{
		Secret:        linkSecret,
		TTL:           parseDuration(v.GetString("LINK_TTL"), time.Hour),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("UPSTREAM_AUTH_URL", "")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_RATE_LIMIT_QPS", 0)
	v.SetDefault("UPSTREAM_RATE_LIMIT_BURST", 20)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking_gateway")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "booking-gateway")
	v.SetDefault("JWT_EXPIRATION", "12h")

	v.SetDefault("AUTH_SESSION_TTL", "12h")
	v.SetDefault("WORKFLOW_SESSION_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_SPEC", "@every 1m")

	v.SetDefault("ENABLE_CATALOG_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	v.SetDefault("APPOINTMENT_TIMEZONE", "UTC")
	v.SetDefault("BOOKING_NOTES_MAX_LENGTH", 1000)
	v.SetDefault("BOOKING_RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("BOOKING_RATE_LIMIT_BURST", 3)

	v.SetDefault("ENABLE_BOOKING_AUDIT", false)
	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)

	v.SetDefault("LINK_SECRET", "")
	v.SetDefault("LINK_TTL", "1h")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// isMissingFile covers viper surfacing the raw fs error when the .env file is absent.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
