package middleware

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/spendlens/internal/utils"
)

// RequestLogger logs one line per request with status and latency
func RequestLogger(logger *log.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// The error handler has not written the response yet
		status := c.Response().StatusCode()
		if err != nil {
			status = utils.AsAPIError(err).StatusCode
		}

		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("request", fields...)
		} else {
			logger.Info("request", fields...)
		}
		return err
	}
}
