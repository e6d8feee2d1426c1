package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireAccessToken verifies an access token and injects identity into request context.
// It does not perform capability checks; those belong to internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		id := Identity{
			UserID:      claims.UserID,
			BuildingID:  claims.BuildingID,
			HouseholdID: claims.HouseholdID,
			Role:        claims.Role,
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))

		// Also store on gin context for handler convenience.
		c.Set("user_id", claims.UserID)
		c.Set("building_id", claims.BuildingID)
		c.Set("household_id", claims.HouseholdID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// BearerToken extracts the raw bearer credential from the request, if any.
// Shared with the scanner-trigger endpoint, which accepts either a JWT or a
// static automation token.
func BearerToken(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(raw, bearerPrefix), true
}
