// Package middleware contains gin middleware: auth, CORS and rate limiting.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKeyAPIKey is where the authenticated key is stored on the gin context.
const ContextKeyAPIKey = "api_key"

// APIKeyAuth validates the X-API-Key header or api_key query parameter.
// With no keys configured every request passes, which is the local
// single-user setup; the server logs a warning at startup in that case.
func APIKeyAuth(validKeys []string) gin.HandlerFunc {
	keySet := toSet(validKeys)

	return func(c *gin.Context) {
		if len(keySet) == 0 {
			c.Next()
			return
		}

		key := requestKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}
		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(ContextKeyAPIKey, key)
		c.Next()
	}
}

// AdminKeyAuth guards admin endpoints. Unlike APIKeyAuth it fails closed:
// with no admin keys configured, admin endpoints are unreachable.
func AdminKeyAuth(adminKeys []string) gin.HandlerFunc {
	keySet := toSet(adminKeys)

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing admin API key"})
			return
		}
		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin API key"})
			return
		}

		c.Set(ContextKeyAPIKey, key)
		c.Next()
	}
}

func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	return c.Query("api_key")
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}
