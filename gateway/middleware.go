package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/example/eshop/pkg/auth"
	"github.com/example/eshop/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	claimsKey       = "claims"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("HTTP request", fields...)
	}
}

func metricsMiddleware(m *metrics.ServerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// authMiddleware requires a valid bearer token and stores its claims.
func authMiddleware(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			abort(c, http.StatusUnauthorized, "The user is not authorized")
			return
		}

		claims, err := a.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			abort(c, http.StatusUnauthorized, "The user is not authorized")
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := claimsFrom(c); claims == nil || !claims.IsAdmin {
			abort(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

// selfOrAdmin lets a user through only for their own resources, named by
// the given path parameter.
func selfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if claims == nil || (!claims.IsAdmin && claims.UserID != c.Param(param)) {
			abort(c, http.StatusForbidden, "Access denied")
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
