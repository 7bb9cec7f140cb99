package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Context keys for the seller identity resolved from the request.
const (
	SellerIDKey     = "seller_id"
	SellerHeaderKey = "X-Seller-ID"
)

// SellerMiddlewareConfig holds configuration for seller middleware
type SellerMiddlewareConfig struct {
	// SkipPaths are paths that don't require seller context (e.g., health check)
	SkipPaths []string
	// Required determines if seller context is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultSellerConfig returns default seller middleware configuration
func DefaultSellerConfig() SellerMiddlewareConfig {
	return SellerMiddlewareConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:  true,
		Logger:    nil,
	}
}

// SellerMiddleware extracts the seller ID from the X-Seller-ID header.
// Authentication happens upstream; this middleware only establishes which
// seller the request is scoped to.
func SellerMiddleware() gin.HandlerFunc {
	return SellerMiddlewareWithConfig(DefaultSellerConfig())
}

// SellerMiddlewareWithConfig returns seller middleware with custom configuration
func SellerMiddlewareWithConfig(cfg SellerMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		sellerID := c.GetHeader(SellerHeaderKey)

		if sellerID != "" {
			if _, err := uuid.Parse(sellerID); err != nil {
				respondSellerUnauthorized(c, "Invalid seller ID format")
				return
			}
		}

		if sellerID == "" && cfg.Required {
			respondSellerUnauthorized(c, "Seller identification required")
			return
		}

		if sellerID != "" {
			c.Set(SellerIDKey, sellerID)

			// Propagate into the request context so service-layer logs carry it.
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithSellerID(ctx, log, sellerID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("Seller identified",
					zap.String("seller_id", sellerID),
				)
			}
		}

		c.Next()
	}
}

// respondSellerUnauthorized sends an unauthorized response
func respondSellerUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetSellerID retrieves the seller ID from gin.Context
func GetSellerID(c *gin.Context) string {
	if sellerID, exists := c.Get(SellerIDKey); exists {
		if sid, ok := sellerID.(string); ok {
			return sid
		}
	}
	return ""
}

// GetSellerUUID retrieves the seller ID as UUID from gin.Context
func GetSellerUUID(c *gin.Context) (uuid.UUID, error) {
	sellerID := GetSellerID(c)
	if sellerID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(sellerID)
}

// MustGetSellerUUID retrieves the seller ID as UUID or panics if not found.
// Use this only in handlers behind a Required seller middleware.
func MustGetSellerUUID(c *gin.Context) uuid.UUID {
	sellerUUID, err := GetSellerUUID(c)
	if err != nil || sellerUUID == uuid.Nil {
		panic("valid seller_id not found in context")
	}
	return sellerUUID
}

// OptionalSellerMiddleware creates middleware that doesn't require a seller
func OptionalSellerMiddleware() gin.HandlerFunc {
	cfg := DefaultSellerConfig()
	cfg.Required = false
	return SellerMiddlewareWithConfig(cfg)
}
