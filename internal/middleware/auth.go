// Package middleware contains Gin middleware: API-key authentication,
// per-key rate limiting, and CORS for browser-based consumers.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// contextKeyAPIKey is where auth stores the caller's key for downstream
// middleware (the rate limiter buckets by it).
const contextKeyAPIKey = "api_key"

// APIKeyAuth validates the X-API-Key header against the configured keys.
func APIKeyAuth(validKeys []string) gin.HandlerFunc {
	keySet := make(map[string]struct{}, len(validKeys))
	for _, k := range validKeys {
		keySet[k] = struct{}{}
	}

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid API key",
			})
			return
		}

		c.Set(contextKeyAPIKey, key)
		c.Next()
	}
}
