package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := QuotaConfig{GuestRoadmap: 1, AccountRoadmap: 3, GuestResume: 1, AccountResume: 2}
	if cfg.Quota != want {
		t.Fatalf("quota defaults = %+v, want %+v", cfg.Quota, want)
	}
	if cfg.Guards.DownloadCooldown != 2*time.Second || cfg.Guards.BusyFloor != time.Second {
		t.Fatalf("guard defaults unexpected: %+v", cfg.Guards)
	}
	if cfg.AI.Timeout != 45*time.Second || cfg.AI.Model != "gemini-2.0-flash" || cfg.AI.APIKey != "" {
		t.Fatalf("ai defaults unexpected: %+v", cfg.AI)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "careerfix.db" {
		t.Fatalf("db defaults unexpected: %+v", cfg.DB)
	}
	if cfg.Guards.DeviceCookieName != "careerfix_device_key" {
		t.Fatalf("cookie name = %q", cfg.Guards.DeviceCookieName)
	}
}

func TestLoad_OverridesAndNormalization(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("DB_DRIVER", "PostgreSQL")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/careerfix")
	t.Setenv("QUOTA_ACCOUNT_ROADMAP", "10")
	t.Setenv("QUOTA_GUEST_RESUME", "nope")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("AI_TIMEOUT", "30s")
	t.Setenv("DOWNLOAD_COOLDOWN", "500ms")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RATE_RPS", "x")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "api-key=abc, =nokey ,tenant = careerfix")
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "3s")
	t.Setenv("DEPLOY_ENV", "staging")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8088" || cfg.WriteTimeout != 3*time.Second || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "postgres" || cfg.DB.URL == "" {
		t.Fatalf("db unexpected: %+v", cfg.DB)
	}
	if cfg.Quota.AccountRoadmap != 10 || cfg.Quota.GuestResume != 1 {
		t.Fatalf("quota unexpected: %+v", cfg.Quota)
	}
	if cfg.AI.APIKey != "g-key" || cfg.AI.Timeout != 30*time.Second {
		t.Fatalf("ai unexpected: %+v", cfg.AI)
	}
	if cfg.Guards.DownloadCooldown != 500*time.Millisecond || cfg.Guards.RedisURL == "" {
		t.Fatalf("guards unexpected: %+v", cfg.Guards)
	}
	if cfg.RateRPS != 5.0 {
		t.Fatalf("RateRPS should fall back to default, got %v", cfg.RateRPS)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("sample ratio = %v", cfg.OTEL.SampleRatio)
	}
	if !reflect.DeepEqual(cfg.OTEL.Headers, map[string]string{"api-key": "abc", "tenant": "careerfix"}) {
		t.Fatalf("otlp headers unexpected: %#v", cfg.OTEL.Headers)
	}
	if cfg.OTEL.ExportTimeout != 3*time.Second || cfg.OTEL.Environment != "staging" {
		t.Fatalf("otel export settings unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"port", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"upload bytes", map[string]string{"MAX_UPLOAD_BYTES": "0"}, "MAX_UPLOAD_BYTES"},
		{"sqlite path", map[string]string{"DB_PATH": "  "}, "DB_PATH"},
		{"postgres url", map[string]string{"DB_DRIVER": "postgres", "DATABASE_URL": ""}, "DATABASE_URL"},
		{"driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"quota", map[string]string{"QUOTA_GUEST_ROADMAP": "0"}, "QUOTA_"},
		{"ai timeout", map[string]string{"AI_TIMEOUT": "-1s"}, "AI_TIMEOUT"},
		{"cooldown", map[string]string{"BUSY_FLOOR": "-1s"}, "cool-down"},
		{"search score", map[string]string{"SEARCH_MIN_SCORE": "1.5"}, "SEARCH_MIN_SCORE"},
		{"rate burst", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"sampler", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "2"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"  ":       "/",
		"api":      "/api",
		"/api/":    "/api",
		"/api/v1/": "/api/v1",
		"/":        "/",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHelpers_FallBackOnParseErrors(t *testing.T) {
	t.Setenv("X_INT64", "abc")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")
	if getint64("X_INT64", 7) != 7 {
		t.Fatalf("getint64 fallback failed")
	}
	if getdur("X_DUR", time.Minute) != time.Minute {
		t.Fatalf("getdur fallback failed")
	}
	if !getbool("X_BOOL", true) {
		t.Fatalf("getbool fallback failed")
	}
	if firstEnv("X_UNSET_A", "X_UNSET_B") != "" {
		t.Fatalf("firstEnv should be empty for unset keys")
	}
}
