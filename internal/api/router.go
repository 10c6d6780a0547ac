package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/webhook"
)

// bodySlack covers multipart framing around the largest accepted upload
const bodySlack = 1 << 20

type Dependencies struct {
	Images    handler.ImageAnalyzer
	Videos    handler.VideoAnalyzer
	Detectors handler.DetectorStatus
	Metrics   *metrics.Manager
	// Webhooks is nil when no downstream endpoint is configured
	Webhooks  *webhook.Worker
	Limits    handler.AnalyzeConfig
	RateLimit middleware.RateLimiterConfig
}

type Router struct {
	app          *fiber.App
	logger       *slog.Logger
	deps         *Dependencies
	rateLimiter  *middleware.RateLimiter
	cancelWorker context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewManager()
	}

	bodyLimit := fiber.DefaultBodyLimit
	if n := max(deps.Limits.MaxVideoBytes, deps.Limits.MaxImageBytes) + bodySlack; n > bodyLimit {
		bodyLimit = n
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Neotriage API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger, r.deps.Metrics))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(r.deps.Detectors)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Prometheus scrape endpoint
	r.app.Get("/metrics", adaptor.HTTPHandler(r.deps.Metrics.Handler()))

	// Webhook worker
	if r.deps.Webhooks != nil {
		ctx, cancel := context.WithCancel(context.Background())
		r.cancelWorker = cancel
		go r.deps.Webhooks.Run(ctx)
	}

	v1 := r.app.Group("/v1")

	// Rate limiting (per client IP)
	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	v1.Use(r.rateLimiter.Handler())

	analyzeHandler := handler.NewAnalyzeHandler(r.deps.Images, r.deps.Videos, r.deps.Limits, r.logger)

	analyze := v1.Group("/analyze")
	analyze.Post("/image", analyzeHandler.Image)
	analyze.Post("/batch", analyzeHandler.Batch)
	analyze.Post("/video", analyzeHandler.Video)
	analyze.Get("/thresholds", analyzeHandler.Thresholds)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop webhook worker
	if r.cancelWorker != nil {
		r.cancelWorker()
		r.deps.Webhooks.Stop()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
