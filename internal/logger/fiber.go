package logger

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// FiberMiddleware logs one line per request through slog. Server errors are
// logged at error level, client errors at warn.
func FiberMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		attrs := []any{
			"status", status,
			"method", c.Method(),
			"path", c.OriginalURL(),
			"ip", c.IP(),
			"latency_ms", float64(latency.Microseconds()) / 1000.0,
		}
		if err != nil {
			attrs = append(attrs, "err", err.Error())
		}

		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			slog.Error("http request", attrs...)
		case status >= fiber.StatusBadRequest:
			slog.Warn("http request", attrs...)
		default:
			slog.Info("http request", attrs...)
		}
		return err
	}
}
