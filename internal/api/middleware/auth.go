package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	APIKeys []string
}

// authenticate validates the request's API key against the configured set.
// Keys are accepted either as "Authorization: APIKey <key>" or via the
// X-API-Key header.
func authenticate(c *gin.Context, validKeys map[string]bool) error {
	if len(validKeys) == 0 {
		return errors.New("no API keys configured")
	}

	key := c.GetHeader("X-API-Key")
	if key == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			return errors.New("missing credentials")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "apikey") {
			return errors.New("invalid Authorization header format")
		}
		key = parts[1]
	}

	if !validKeys[key] {
		return errors.New("invalid API key")
	}
	return nil
}

// APIKeyAuth returns a gin middleware that requires a valid API key
func APIKeyAuth(cfg AuthConfig) gin.HandlerFunc {
	validKeys := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			validKeys[key] = true
		}
	}

	return func(c *gin.Context) {
		if err := authenticate(c, validKeys); err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication failed",
				},
			})
			return
		}

		c.Next()
	}
}
