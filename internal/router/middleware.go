package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"carfix/internal/errors"
)

// requestLogger emits one record per request. Errors are rendered first so
// the logged status is the one the client received.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			latency := time.Since(start)

			fields := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", latency),
				slog.String("remote_ip", c.RealIP()),
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if req.URL.RawQuery != "" {
				fields = append(fields, slog.String("query", req.URL.RawQuery))
			}
			if err != nil {
				fields = append(fields, slog.String("error", err.Error()))
			}

			level := slog.LevelInfo
			if res.Status >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			if res.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(req.Context(), level, "HTTP Request", fields...)
			return nil
		}
	}
}

// errorHandler renders every error as {"error", "code"}. Errors that did not
// come through a handler's mapping are logged and answered with a generic 500.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errors.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}

		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			switch msg := he.Message.(type) {
			case errors.ErrorResponse:
				body = msg
			case string:
				body = errors.ErrorResponse{Error: msg, Code: "HTTP_ERROR"}
			default:
				body = errors.ErrorResponse{Error: http.StatusText(he.Code), Code: "HTTP_ERROR"}
			}
		} else {
			logger.ErrorContext(c.Request().Context(), "unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
				slog.String("method", c.Request().Method))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "write error response", slog.Any("error", err))
		}
	}
}
