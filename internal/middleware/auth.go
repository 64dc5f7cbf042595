// Package middleware contains the Gin middleware chain: request IDs,
// CORS, API-key auth, and rate limiting.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth validates API keys from the X-API-Key header or the api_key
// query param (the query form exists for clients that cannot set headers).
func APIKeyAuth(validKeys []string) gin.HandlerFunc {
	keySet := make(map[string]struct{}, len(validKeys))
	for _, k := range validKeys {
		keySet[k] = struct{}{}
	}

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}

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

		// Stored for the rate limiter's per-key buckets.
		c.Set("api_key", key)
		c.Next()
	}
}

// AdminKeyAuth validates admin keys for the admin endpoint group. Invalid
// keys get 403 rather than 401 so probing with a regular key is
// distinguishable in logs.
func AdminKeyAuth(adminKeys []string) gin.HandlerFunc {
	keySet := make(map[string]struct{}, len(adminKeys))
	for _, k := range adminKeys {
		keySet[k] = struct{}{}
	}

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}

		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing admin API key",
			})
			return
		}

		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid admin API key",
			})
			return
		}

		c.Set("api_key", key)
		c.Next()
	}
}
