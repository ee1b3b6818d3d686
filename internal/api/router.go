package api

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/welldanyogia/brochure-contact-backend/internal/api/handlers"
	"github.com/welldanyogia/brochure-contact-backend/internal/api/middleware"
	"github.com/welldanyogia/brochure-contact-backend/internal/logger"
	"github.com/welldanyogia/brochure-contact-backend/internal/services"
	"gorm.io/gorm"
)

// DefaultContactBodyLimit caps a contact request: five 5 MB files plus form fields
const DefaultContactBodyLimit = "30M"

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB          *gorm.DB
	Ingestion   services.IngestionService
	Submissions services.SubmissionService
	Export      services.ExportService
	Analytics   services.AnalyticsService
	Logger      *slog.Logger
	Security    *logger.SecurityLogger
	// Gatherer backs /metrics; nil leaves the endpoint unregistered
	Gatherer prometheus.Gatherer
	Location *time.Location

	// Security configuration
	JWTSecret      string   // HS256 secret for admin tokens (empty = auth disabled)
	AllowedOrigins []string // Allowed CORS origins
	Production     bool
	RateLimit      float64 // Requests per second per IP (0 = 10)
	RateBurst      int     // Burst size for rate limiter (0 = 20)
	// TrustedProxies lists CIDRs or IPs allowed to set X-Forwarded-For;
	// empty means the TCP peer address is the client address
	TrustedProxies []string

	StoragePath      string // Attachment directory probed by /health
	ContactBodyLimit string // Max contact request size (empty = DefaultContactBodyLimit)
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Security == nil {
		cfg.Security = logger.NewSecurityLogger()
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	if cfg.ContactBodyLimit == "" {
		cfg.ContactBodyLimit = DefaultContactBodyLimit
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	extractor, err := middleware.IPExtractor(cfg.TrustedProxies)
	if err != nil {
		cfg.Logger.Warn("ignoring trusted proxies", slog.String("error", err.Error()))
		extractor = echo.ExtractIPDirect()
	}
	e.IPExtractor = extractor

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Request IDs so log lines can be correlated
	e.Use(middleware.RequestID())

	// 3. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 4. CORS
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))

	// 5. Rate limiting
	e.Use(middleware.RateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Security))

	// 6. Request logging
	e.Use(middleware.RequestLogger(cfg.Logger))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.StoragePath)
	contactHandler := handlers.NewContactHandler(cfg.Ingestion, cfg.Logger)
	submissionHandler := handlers.NewSubmissionHandler(cfg.Submissions, cfg.Export, cfg.Logger, cfg.Location)
	analyticsHandler := handlers.NewAnalyticsHandler(cfg.Analytics)

	// Operational routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")

	// Public contact form
	api.POST("/contact", contactHandler.Submit, middleware.BodyLimit(cfg.ContactBodyLimit))

	// Admin console
	adminAuth := middleware.AdminAuth(cfg.JWTSecret, cfg.Security)

	// Submission routes; static paths are registered before /:id
	submissions := api.Group("/submissions", adminAuth)
	submissions.GET("", submissionHandler.List)
	submissions.GET("/stats", submissionHandler.Stats)
	submissions.GET("/export", submissionHandler.Export)
	submissions.PUT("/bulk", submissionHandler.BulkUpdate)
	submissions.DELETE("/bulk", submissionHandler.BulkDelete)
	submissions.GET("/:id", submissionHandler.Get)
	submissions.PUT("/:id", submissionHandler.Update)
	submissions.DELETE("/:id", submissionHandler.Delete)
	submissions.GET("/:id/attachments/:index", submissionHandler.Attachment)

	// Analytics routes
	analytics := api.Group("/analytics", adminAuth)
	analytics.GET("/overview", analyticsHandler.Overview)
	analytics.GET("/conversion", analyticsHandler.Conversion)
	analytics.GET("/dashboard", analyticsHandler.Dashboard)
	analytics.GET("/monthly/:year/:month", analyticsHandler.Monthly)

	return e
}
