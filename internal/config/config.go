// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, Redis connectivity, the
// ranking cache contract, scheduled job cadences, and rate limiting.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "moum-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// RedisConfig defines connectivity and key naming for the fast-path cache.
type RedisConfig struct {
	Addr      string        // REDIS_ADDR, host:port
	Password  string        // REDIS_PASSWORD
	DB        int           // REDIS_DB
	OpTimeout time.Duration // REDIS_OP_TIMEOUT, per-call deadline

	// RankingKey names the sorted set holding member exp scores. It is
	// injected into the ranking store (rather than hard-coded) so tests
	// can redirect it to an isolated namespace.
	RankingKey string // REDIS_RANKING_KEY
	// RecommendKeyPrefix formats the per-member recommendation list key;
	// must contain a single %d verb for the member id.
	RecommendKeyPrefix string // REDIS_RECOMMEND_KEY_PREFIX
}

// JobsConfig defines scheduled-job cadences and tuning knobs.
type JobsConfig struct {
	RankingSyncSpec    string        // CRON_RANKING_SYNC (cron expression)
	RankingTrimSpec    string        // CRON_RANKING_TRIM
	RecommendSpec      string        // CRON_RECOMMENDATION
	SyncPageSize       int           // RANKING_SYNC_PAGE_SIZE
	TrimRetention      int64         // RANKING_TRIM_RETENTION (top-N kept)
	LockWaitTimeout    time.Duration // JOB_LOCK_WAIT_TIMEOUT
	LockHoldTimeout    time.Duration // JOB_LOCK_HOLD_TIMEOUT
	RecommendPerMember int           // RECOMMEND_PER_MEMBER (list size cap)
}

// AuthConfig defines signup/login settings.
type AuthConfig struct {
	JWTSecret     string        // JWT_SECRET
	TokenTTL      time.Duration // JWT_TTL
	VerifyCodeTTL time.Duration // VERIFY_CODE_TTL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath string // SQLite path

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Subsystems
	Redis RedisConfig
	Jobs  JobsConfig
	Auth  AuthConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "moum.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Redis / ranking cache
		Redis: RedisConfig{
			Addr:               getenv("REDIS_ADDR", "localhost:6379"),
			Password:           getenv("REDIS_PASSWORD", ""),
			DB:                 getint("REDIS_DB", 0),
			OpTimeout:          getdur("REDIS_OP_TIMEOUT", 2*time.Second),
			RankingKey:         getenv("REDIS_RANKING_KEY", "ranking:exp"),
			RecommendKeyPrefix: getenv("REDIS_RECOMMEND_KEY_PREFIX", "user:%d:recommendations"),
		},

		// Scheduled jobs
		Jobs: JobsConfig{
			RankingSyncSpec:    getenv("CRON_RANKING_SYNC", "0 * * * *"),
			RankingTrimSpec:    getenv("CRON_RANKING_TRIM", "30 3 * * *"),
			RecommendSpec:      getenv("CRON_RECOMMENDATION", "0 4 * * *"),
			SyncPageSize:       getint("RANKING_SYNC_PAGE_SIZE", 100),
			TrimRetention:      int64(getint("RANKING_TRIM_RETENTION", 10000)),
			LockWaitTimeout:    getdur("JOB_LOCK_WAIT_TIMEOUT", 3*time.Second),
			LockHoldTimeout:    getdur("JOB_LOCK_HOLD_TIMEOUT", 10*time.Minute),
			RecommendPerMember: getint("RECOMMEND_PER_MEMBER", 50),
		},

		// Auth
		Auth: AuthConfig{
			JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:      getdur("JWT_TTL", 24*time.Hour),
			VerifyCodeTTL: getdur("VERIFY_CODE_TTL", 10*time.Minute),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "moum-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return cfg, errors.New("REDIS_ADDR must not be empty")
	}
	if cfg.Redis.OpTimeout <= 0 {
		return cfg, errors.New("REDIS_OP_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(cfg.Redis.RankingKey) == "" {
		return cfg, errors.New("REDIS_RANKING_KEY must not be empty")
	}
	if !strings.Contains(cfg.Redis.RecommendKeyPrefix, "%d") {
		return cfg, errors.New("REDIS_RECOMMEND_KEY_PREFIX must contain a %d verb")
	}
	if cfg.Jobs.SyncPageSize < 1 {
		return cfg, errors.New("RANKING_SYNC_PAGE_SIZE must be >= 1")
	}
	if cfg.Jobs.TrimRetention < 1 {
		return cfg, errors.New("RANKING_TRIM_RETENTION must be >= 1")
	}
	if cfg.Jobs.LockWaitTimeout < 0 || cfg.Jobs.LockHoldTimeout <= 0 {
		return cfg, errors.New("job lock timeouts must be positive")
	}
	if cfg.Jobs.RecommendPerMember < 1 {
		return cfg, errors.New("RECOMMEND_PER_MEMBER must be >= 1")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return cfg, errors.New("JWT_SECRET must not be empty")
	}
	if cfg.Auth.TokenTTL <= 0 || cfg.Auth.VerifyCodeTTL <= 0 {
		return cfg, errors.New("JWT_TTL and VERIFY_CODE_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
