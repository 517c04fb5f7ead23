package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/ulesfyw/fyw-pay/internal/config"
	"github.com/ulesfyw/fyw-pay/internal/handler"
	"github.com/ulesfyw/fyw-pay/internal/middleware"
)

// Handlers bundles the constructed handler sets so registration stays
// a single call from main.
type Handlers struct {
	Student *handler.StudentHandler
	Payment *handler.PaymentHandler
	Webhook *handler.WebhookHandler
	Admin   *handler.AdminHandler
}

// Register wires every route. Public endpoints live under /v1,
// webhooks under /v1/webhooks, and the operator API under /v1/admin
// behind JWT + role middleware. The Redis client may be nil, in which
// case the rate limiter and response cache become pass-throughs.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")

	// The package catalog changes only when reseeded, so it sits
	// behind the Redis response cache.
	v1.GET("/packages", h.Student.ListPackages, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Student self-service: registration, lookup, package selection.
	v1.POST("/students/identify", h.Student.Identify)
	v1.GET("/students/:matricNumber", h.Student.GetByMatric)
	v1.GET("/students/:matricNumber/payments", h.Payment.History)
	v1.POST("/students/select-package", h.Student.SelectPackage)
	v1.POST("/students/upgrade-package", h.Student.UpgradePackage)

	// Payment initialization is rate limited per client; verification
	// is idempotent and unguarded.
	v1.POST("/payments/initialize", h.Payment.Initialize, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	v1.GET("/payments/verify", h.Payment.Verify)

	// Gateway callbacks authenticate with their own signature schemes,
	// never with JWTs.
	v1.POST("/webhooks/paystack", h.Webhook.Paystack)
	v1.POST("/webhooks/flutterwave", h.Webhook.Flutterwave)

	// Operator API. Login is open; everything else needs a valid admin
	// token.
	v1.POST("/admin/auth/login", h.Admin.Login)

	admin := v1.Group("/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("admin"))
	admin.GET("/metrics", h.Admin.Metrics)
	admin.GET("/students", h.Admin.ListStudents)
	admin.GET("/students/:id", h.Admin.GetStudent)
	admin.POST("/students/:id/resend-invite", h.Admin.ResendInvite)
	admin.POST("/students/:id/regenerate-invite", h.Admin.RegenerateInvite)
	admin.GET("/export.csv", h.Admin.ExportCSV)
}
