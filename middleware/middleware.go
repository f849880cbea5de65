package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventboard-api/services"
	"eventboard-api/utils"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns errors recorded with c.Error into a response when the
// handler did not write one itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		slog.Error("request_error", "path", c.Request.URL.Path, "error", err.Err)
		if c.Writer.Written() {
			return
		}
		utils.RespondError(c, err.Err)
	}
}

// ValidateJSON requires a JSON body on writes, except multipart uploads and
// bodyless requests.
func ValidateJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodDelete, http.MethodOptions, http.MethodHead:
			c.Next()
			return
		}
		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		contentType := c.GetHeader("Content-Type")
		if strings.HasPrefix(contentType, "multipart/form-data") {
			c.Next()
			return
		}
		if !strings.Contains(contentType, "application/json") {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse{
				Error:   "Invalid content type",
				Message: "Content-Type must be application/json; charset=utf-8",
				Code:    http.StatusBadRequest,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequestLogger writes one access log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		status := c.Writer.Status()
		attrs := []any{
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"user_agent", c.Request.UserAgent(),
		}
		if status >= http.StatusInternalServerError {
			slog.Error("http_request", attrs...)
			return
		}
		slog.Info("http_request", attrs...)
	}
}

// RequestMetrics records request durations by route template.
func RequestMetrics(metrics *services.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// SecurityHeaders middleware adds security headers
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; img-src 'self' data:")
		c.Next()
	}
}

// CORS lets browser clients read the session header.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Header("Access-Control-Expose-Headers", SessionHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
