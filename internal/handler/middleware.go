package handler

import (
	"strconv"
	"time"

	"rewardhub/internal/logger"
	"rewardhub/internal/metrics"
	"rewardhub/internal/workflow"
	"rewardhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserEmail = "X-User-Email"

	ctxRequestID = "request_id"
	ctxAdmin     = "admin"
)

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns a new one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware logs every request and records HTTP metrics.
func LoggerMiddleware() gin.HandlerFunc {
	log := logger.WithComponent("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// Route templates keep label cardinality bounded.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), latency.Seconds())

		if query != "" {
			path = path + "?" + query
		}
		log.Info("request",
			"status", status,
			"latency", latency,
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"request_id", c.GetString(ctxRequestID),
		)
	}
}

// RecoveryMiddleware turns a panic into a 500 envelope.
func RecoveryMiddleware() gin.HandlerFunc {
	log := logger.WithComponent("HTTP")
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic", "error", err, "path", c.Request.URL.Path)
				response.Abort(c, 500, response.CodeServerError, "internal server error")
			}
		}()
		c.Next()
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID, X-User-Email")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequireAdmin lets the request through only when X-User-Email names an
// admin. Authentication of that header is left to the gateway in front.
func RequireAdmin(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader(HeaderUserEmail)
		if email == "" {
			response.Abort(c, 401, response.CodeUnauthorized, "missing "+HeaderUserEmail)
			return
		}
		u, err := engine.User(email)
		if err != nil || !u.IsAdmin() {
			response.Abort(c, 403, response.CodeForbidden, "admin role required")
			return
		}
		c.Set(ctxAdmin, u.Email)
		c.Next()
	}
}
