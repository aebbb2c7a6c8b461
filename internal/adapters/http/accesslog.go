package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AccessLogMiddleware emits one structured slog line per request once the
// handler chain has finished. 4xx logs at warn, 5xx and handler errors at
// error.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()
		route := c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Int("size", len(c.Response().Body())),
			slog.String("ip", c.IP()),
			slog.String("request_id", c.Get(fiber.HeaderXRequestID, "-")),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		var level slog.Level
		switch {
		case err != nil || status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		default:
			level = slog.LevelInfo
		}
		slog.LogAttrs(c.Context(), level, method+" "+route, attrs...)

		return err
	}
}
