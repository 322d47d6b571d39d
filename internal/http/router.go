// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, identity resolution, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Every API request runs under exactly one resolved identity
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/careerfix-backend/docs"
	"github.com/tbourn/careerfix-backend/internal/config"
	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/http/handlers"
	"github.com/tbourn/careerfix-backend/internal/http/middleware"
	"github.com/tbourn/careerfix-backend/internal/identity"
	"github.com/tbourn/careerfix-backend/internal/repo"
	"github.com/tbourn/careerfix-backend/internal/services"
	"github.com/tbourn/careerfix-backend/internal/tasks"
)

// Deps are the process-wide collaborators the routes are built on.
type Deps struct {
	DB *gorm.DB
	// AI generates roadmaps and reviews; ai.Disabled when no key is configured.
	AI services.Generator
	// Verifier checks bearer tokens; nil serves every request anonymously.
	Verifier middleware.TokenVerifier
	// Redis, when set, backs the cool-down guards so replicas share state.
	Redis *redis.Client
	// Tasks runs usage touches off the request path.
	Tasks *tasks.Dispatcher
}

// corsAllowHeaders are the request headers browsers may send cross-origin.
var corsAllowHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	middleware.HeaderIdempotencyKey, middleware.HeaderDeviceKey, middleware.HeaderDeviceFingerprint,
}

var corsExposeHeaders = []string{
	"X-Request-ID", "Content-Length", "Content-Disposition", "Retry-After", "ETag",
	"Idempotency-Replayed", middleware.HeaderDeviceKey,
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, health, metrics and docs endpoints, and then mounts the versioned
// public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RequestLogger + RedactingLogger: scoped logger and PII-scrubbed access log
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS, security headers and compression
//
// API group only:
//  8. Authenticate: optional bearer token
//  9. ResolveIdentity: account or device key (cookie persisted)
//  10. Rate limiter (per identity/IP, bypass on idempotent replay)
//  11. Idempotency validator on the generation routes
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Request-scoped logger and structured access log with redaction
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit: the upload cap plus multipart overhead
	r.Use(limitBody(cfg.MaxUploadBytes + 1<<20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    corsExposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORS.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  corsAllowHeaders,
			ExposeHeaders: corsExposeHeaders,
			// the device cookie only travels with credentialed requests
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Compression; PDFs are already compressed and Prometheus negotiates its own
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/metrics"}),
		gzip.WithExcludedPathsRegexs([]string{`/pdf$`}),
	))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/ai/guards
	usageSvc := services.NewUsageService(deps.DB, services.PolicyFromConfig(cfg.Quota))
	genSvc := services.NewGenerationService(deps.DB, usageSvc, deps.AI,
		newCooldown(deps.Redis, cfg.Guards.GenerateCooldown, cfg.Guards.BusyFloor), deps.Tasks)
	if cfg.IdempotencyTTL > 0 {
		genSvc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	artifactSvc := services.NewArtifactService(deps.DB, cfg.SearchMinScore)
	reportSvc := services.NewReportService(artifactSvc,
		newCooldown(deps.Redis, cfg.Guards.DownloadCooldown, cfg.Guards.BusyFloor))
	migrationSvc := services.NewMigrationService(deps.DB, usageSvc)

	h := handlers.New(usageSvc, genSvc, artifactSvc, reportSvc, migrationSvc)
	h.MaxUploadBytes = cfg.MaxUploadBytes

	idem := func(res domain.Resource) gin.HandlerFunc {
		return middleware.IdempotencyValidator(
			middleware.IdempotencyOptions{Kind: res, MaxLen: 200},
			func(ctx context.Context, identityKey string, kind domain.Resource, key string, now time.Time) (bool, error) {
				_, err := repo.GetIdempotency(ctx, deps.DB, identityKey, kind, key, now)
				switch {
				case errors.Is(err, repo.ErrNotFound):
					return false, nil
				case err != nil:
					return false, err
				}
				return true, nil
			},
		)
	}

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIdentityOrIP())

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.Authenticate(deps.Verifier),
		middleware.ResolveIdentity(identity.Resolver{}, middleware.DeviceCookieOptions{
			Name:   cfg.Guards.DeviceCookieName,
			MaxAge: cfg.Guards.DeviceCookieMaxAge,
			Secure: cfg.Guards.DeviceCookieSecure,
		}),
	)
	{
		// Generation (idempotency runs before the limiter so replays bypass it)
		api.POST("/roadmaps", idem(domain.ResourceRoadmap), rl.Handler(), h.CreateRoadmap)
		api.POST("/resume-reviews", idem(domain.ResourceResumeReview), rl.Handler(), h.CreateResumeReview)

		// Everything else is rate limited uniformly
		rest := api.Group("", rl.Handler())
		rest.GET("/usage", h.GetUsage)
		rest.GET("/artifacts", h.ListArtifacts)
		rest.GET("/artifacts/:id", h.GetArtifact)
		rest.GET("/artifacts/:id/pdf", h.DownloadArtifactPDF)
		rest.POST("/session", h.CreateSession)
	}
}

// newCooldown returns a Redis-backed guard when a client is configured and
// an in-process one otherwise.
func newCooldown(client *redis.Client, interval, floor time.Duration) services.Cooldown {
	if client != nil {
		return services.NewRedisCooldown(client, interval, floor)
	}
	return services.NewMemoryCooldown(interval, floor)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
