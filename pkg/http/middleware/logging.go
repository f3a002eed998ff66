package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"SetupScanner/pkg/logger"
)

// RequestLogging writes one entry per request. Failed requests log at warn with the cause;
// successful ones at debug so scrape and poll traffic stays quiet.
func RequestLogging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// render now so the logged status is the one the client sees
				c.Error(err)
			}

			res := c.Response()
			fields := []logger.Field{
				logger.String("method", c.Request().Method),
				logger.String("route", c.Path()),
				logger.String("uri", c.Request().RequestURI),
				logger.String("remote_ip", c.RealIP()),
				logger.Int("status", res.Status),
				logger.Int64("bytes_out", res.Size),
				logger.Duration("latency_ms", time.Since(start)),
			}
			switch {
			case err != nil:
				log.Warn("http request", append(fields, logger.Error(err))...)
			case res.Status >= 500:
				log.Warn("http request", fields...)
			default:
				log.Debug("http request", fields...)
			}
			return nil
		}
	}
}
