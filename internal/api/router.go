package api

import (
	"errors"
	"time"

	"hs-compliance/docs"
	"hs-compliance/internal/api/handlers"
	"hs-compliance/pkg/auth"
	"hs-compliance/pkg/metrics"
	"hs-compliance/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Compliance *handlers.ComplianceHandler
	Knowledge  *handlers.KnowledgeHandler
	Admin      *handlers.AdminHandler
	Health     *handlers.HealthHandler
}

type RouterConfig struct {
	JWTManager *auth.JWTManager
	Metrics    *metrics.Metrics
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer     prometheus.Gatherer
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// RequestLog enables fiber's access log middleware.
	RequestLog bool
}

func SetupRouter(h Handlers, cfg RouterConfig, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "hs-compliance",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				message = fe.Message
			} else {
				appLogger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": message,
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if cfg.RequestLog {
		app.Use(logger.New())
	}
	app.Use(middleware.Metrics(cfg.Metrics))

	_ = docs.SwaggerInfo // registers the generated docs
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/healthz", h.Health.Healthz)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	compliance := api.Group("/compliance")
	compliance.Post("/check", h.Compliance.CheckCompliance)
	compliance.Get("/check", h.Compliance.CheckCompliance)

	codes := api.Group("/codes")
	codes.Get("", h.Compliance.ListCodes)
	codes.Post("/resolve", h.Compliance.ResolveItem)
	codes.Post("/resolve-description", h.Compliance.ResolveDescription)
	codes.Get("/:code", h.Compliance.GetCode)

	knowledge := api.Group("/knowledge")
	knowledge.Post("/search", h.Knowledge.Search)
	knowledge.Post("/ask", h.Knowledge.Ask)

	admin := api.Group("/admin")
	admin.Post("/login", h.Admin.Login)

	adminOnly := middleware.AdminAuth(cfg.JWTManager, appLogger)
	admin.Post("/regenerate", adminOnly, h.Admin.Regenerate)
	admin.Get("/status", adminOnly, h.Admin.Status)

	return app
}
