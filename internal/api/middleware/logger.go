package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/audit"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/metrics"
)

// Logger logs every request and records it in m. Errors are rendered here
// so the logged status is the one sent to the client.
func Logger(logger *slog.Logger, m *metrics.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.GetRespHeader(fiber.HeaderXRequestID)
		c.SetUserContext(audit.WithRequest(c.UserContext(), c.IP(), requestID))

		// Process request
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// Calculate latency
		latency := time.Since(start)

		// Get status code
		status := c.Response().StatusCode()

		// Log level based on status
		logLevel := slog.LevelInfo
		if status >= 500 {
			logLevel = slog.LevelError
		} else if status >= 400 {
			logLevel = slog.LevelWarn
		}

		logger.Log(c.UserContext(), logLevel, "http request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.String("ip", c.IP()),
			slog.String("request_id", requestID),
			slog.String("user_agent", c.Get("User-Agent")),
		)

		m.ObserveHTTP(c.Method(), c.Route().Path, status, latency)

		return nil
	}
}
