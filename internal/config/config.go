// Package config loads the service configuration from environment variables.
// Every setting has a default suitable for local development; Load normalizes
// and validates the result so that main can fail fast on a bad deployment.
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
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]

	Headers       map[string]string // OTEL_EXPORTER_OTLP_HEADERS ("k=v,k2=v2")
	ExportTimeout time.Duration     // OTEL_EXPORTER_OTLP_TIMEOUT
	Environment   string            // DEPLOY_ENV, reported as deployment.environment
}

// DatabaseConfig selects the GORM dialector.
type DatabaseConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file, used when Driver is sqlite
	URL    string // Postgres DSN, used when Driver is postgres
}

// QuotaConfig is the default free-generation policy per identity kind.
// A quota stored on a usage record takes precedence over these values.
type QuotaConfig struct {
	GuestRoadmap   int64
	AccountRoadmap int64
	GuestResume    int64
	AccountResume  int64
}

// AIConfig configures the generative-AI client.
type AIConfig struct {
	APIKey  string        // GEMINI_API_KEY or GOOGLE_API_KEY; empty disables generation
	Model   string        // AI_MODEL
	Timeout time.Duration // AI_TIMEOUT, per generation call
}

// AuthConfig configures verification of the identity provider's tokens.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

// GuardConfig configures the cool-down guard and device-key persistence.
type GuardConfig struct {
	DownloadCooldown time.Duration // minimum interval between downloads
	GenerateCooldown time.Duration // minimum interval between generation submissions
	BusyFloor        time.Duration // busy state kept after an action completes
	RedisURL         string        // optional; shared cool-down state across replicas

	DeviceCookieName   string
	DeviceCookieMaxAge time.Duration
	DeviceCookieSecure bool
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxUploadBytes    int64 // multipart resume uploads
	GinMode           string

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	DB     DatabaseConfig
	Quota  QuotaConfig
	AI     AIConfig
	Auth   AuthConfig
	Guards GuardConfig

	// History search
	SearchMinScore float64 // Jaccard cut-off in [0,1]

	// Rate limiting
	RateRPS   float64
	RateBurst int

	CORS     CORSConfig
	Security SecurityConfig

	// IdempotencyTTL bounds how long a replayable Idempotency-Key is honored.
	IdempotencyTTL time.Duration

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
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		// generation calls may take up to AI_TIMEOUT, so writes get more room
		WriteTimeout:   getdur("WRITE_TIMEOUT", 75*time.Second),
		IdleTimeout:    getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getint("MAX_HEADER_BYTES", 1<<20),
		MaxUploadBytes: int64(getint("MAX_UPLOAD_BYTES", 5<<20)),
		GinMode:        strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DatabaseConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "careerfix.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		Quota: QuotaConfig{
			GuestRoadmap:   getint64("QUOTA_GUEST_ROADMAP", 1),
			AccountRoadmap: getint64("QUOTA_ACCOUNT_ROADMAP", 3),
			GuestResume:    getint64("QUOTA_GUEST_RESUME", 1),
			AccountResume:  getint64("QUOTA_ACCOUNT_RESUME", 2),
		},
		AI: AIConfig{
			APIKey:  firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
			Model:   getenv("AI_MODEL", "gemini-2.0-flash"),
			Timeout: getdur("AI_TIMEOUT", 45*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getenv("JWT_SECRET", ""),
			Issuer:    getenv("JWT_ISSUER", ""),
			Audience:  getenv("JWT_AUDIENCE", ""),
		},
		Guards: GuardConfig{
			DownloadCooldown:   getdur("DOWNLOAD_COOLDOWN", 2*time.Second),
			GenerateCooldown:   getdur("GENERATE_COOLDOWN", 2*time.Second),
			BusyFloor:          getdur("BUSY_FLOOR", time.Second),
			RedisURL:           getenv("REDIS_URL", ""),
			DeviceCookieName:   getenv("DEVICE_COOKIE_NAME", "careerfix_device_key"),
			DeviceCookieMaxAge: getdur("DEVICE_COOKIE_MAX_AGE", 365*24*time.Hour),
			DeviceCookieSecure: getbool("DEVICE_COOKIE_SECURE", false),
		},

		SearchMinScore: getfloat("SEARCH_MIN_SCORE", 0),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "careerfix-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),

			Headers:       splitPairs(getenv("OTEL_EXPORTER_OTLP_HEADERS", "")),
			ExportTimeout: getdur("OTEL_EXPORTER_OTLP_TIMEOUT", 10*time.Second),
			Environment:   getenv("DEPLOY_ENV", "development"),
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
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "pg" {
		cfg.DB.Driver = "postgres"
	}

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 || cfg.MaxUploadBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES and MAX_UPLOAD_BYTES must be > 0")
	}

	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be sqlite or postgres")
	}

	q := cfg.Quota
	if q.GuestRoadmap <= 0 || q.AccountRoadmap <= 0 || q.GuestResume <= 0 || q.AccountResume <= 0 {
		return errors.New("QUOTA_* values must be > 0")
	}
	if cfg.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(cfg.AI.Model) == "" {
		return errors.New("AI_MODEL must not be empty")
	}

	g := cfg.Guards
	if g.DownloadCooldown < 0 || g.GenerateCooldown < 0 || g.BusyFloor < 0 {
		return errors.New("cool-down durations must be >= 0")
	}
	if strings.TrimSpace(g.DeviceCookieName) == "" {
		return errors.New("DEVICE_COOKIE_NAME must not be empty")
	}

	if cfg.SearchMinScore < 0 || cfg.SearchMinScore > 1 {
		return errors.New("SEARCH_MIN_SCORE must be between 0 and 1")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
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

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
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

// splitPairs parses "k=v,k2=v2". Entries without a key are skipped.
func splitPairs(s string) map[string]string {
	out := map[string]string{}
	for _, kv := range splitCSV(s) {
		k, v, _ := strings.Cut(kv, "=")
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
