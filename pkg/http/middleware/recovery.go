package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"SetupScanner/pkg/logger"
)

// Recover turns a handler panic into a 500 in the API envelope and logs the stack.
func Recover(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.Error("http handler panic",
					logger.String("panic", fmt.Sprint(r)),
					logger.String("route", c.Path()),
					logger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, envelope(http.StatusInternalServerError))
			}()
			return next(c)
		}
	}
}

// envelope mirrors the API response shape for replies written below the router.
func envelope(status int) map[string]interface{} {
	return map[string]interface{}{
		"status":  status,
		"message": http.StatusText(status),
	}
}
