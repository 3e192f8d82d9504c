package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/Abraxas-365/phonex/pkg/config"
	"github.com/Abraxas-365/phonex/pkg/errx"
	"github.com/Abraxas-365/phonex/pkg/logx"
)

func main() {
	cfg := config.Load()

	logx.Info("Starting Phonex Verification API...")

	container := NewContainer(cfg)
	defer container.Cleanup()

	app := fiber.New(fiber.Config{
		AppName:               "Phonex Verification API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		ReadTimeout:           15 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Get("/health", healthCheckHandler(container))

	container.OTPHandlers.RegisterRoutes(app)
	logx.Info("✓ Verification routes registered")

	app.Use(notFoundHandler)

	startServer(app, cfg.Server.Port)
}

// healthCheckHandler reports service and backend health.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "phonex-verification-api",
			"backend": container.Config.OTP.StoreBackend,
		}

		status := fiber.StatusOK
		if container.Redis != nil {
			if err := container.Redis.Ping(c.Context()).Err(); err != nil {
				health["status"] = "degraded"
				health["redis"] = "unhealthy"
				status = fiber.StatusServiceUnavailable
			} else {
				health["redis"] = "healthy"
			}
		}

		return c.Status(status).JSON(health)
	}
}

// notFoundHandler handles unmatched routes.
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.GetRespHeader("X-Request-ID"),
	})
}

// globalErrorHandler converts internal errors to standard HTTP
// responses. Provider internals never reach the caller; only the
// taxonomy-mapped errx outcome does.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.GetRespHeader("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":      e.Message,
			"code":       "FIBER_ERROR",
			"request_id": c.GetRespHeader("X-Request-ID"),
		})
	}

	var e *errx.Error
	if errx.As(err, &e) {
		response := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"request_id": c.GetRespHeader("X-Request-ID"),
		}
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}
		return c.Status(e.HTTPStatus).JSON(response)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "An unexpected error occurred",
		"code":       "INTERNAL_ERROR",
		"request_id": c.GetRespHeader("X-Request-ID"),
	})
}

// startServer runs the app and shuts it down gracefully on SIGINT or
// SIGTERM.
func startServer(app *fiber.App, port string) {
	go func() {
		logx.Infof("Listening on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logx.Errorf("Forced shutdown: %v", err)
	}

	logx.Info("Server stopped")
}
