package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sjperalta/sacco-api/pkg/logger"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs each HTTP request with slog and tags it with a
// request id, reusing the caller's id when one is sent
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		// Health checks are polled
		if path == "/api/v1/health" {
			return
		}
		if raw != "" {
			path = path + "?" + raw
		}

		statusCode := c.Writer.Status()
		attrs := []any{
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", statusCode),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Request.UserAgent()),
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			attrs = append(attrs, slog.String("error", errorMessage))
		}
		if staffID, exists := c.Get(ctxStaffID); exists {
			attrs = append(attrs, slog.Any("staff_id", staffID), slog.String("role", GetRole(c)))
		}

		msg := "HTTP request"
		switch {
		case statusCode >= 500:
			logger.Log.Error(msg, attrs...)
		case statusCode >= 400:
			logger.Log.Warn(msg, attrs...)
		default:
			logger.Log.Info(msg, attrs...)
		}
	}
}
