package httpapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"intercom-platform/internal/auth"
	"intercom-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RequireScannerAuth protects the check-timeout trigger. It accepts either:
//   - the static automation token (cron, external schedulers), compared in
//     constant time, or
//   - a staff access token whose holder may trigger the ring scan for the
//     addressed building.
//
// An empty configured token disables the static path entirely.
func RequireScannerAuth(m *auth.Manager, scannerToken string, authz rbac.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := auth.BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		if scannerToken != "" && subtle.ConstantTimeCompare([]byte(raw), []byte(scannerToken)) == 1 {
			c.Next()
			return
		}

		claims, err := m.Verify(raw, auth.TokenTypeAccess, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			return
		}
		id := auth.Identity{
			UserID:      claims.UserID,
			BuildingID:  claims.BuildingID,
			HouseholdID: claims.HouseholdID,
			Role:        claims.Role,
		}
		if !authz.Authorize(id, rbac.ActionTriggerRingScan, rbac.Resource{BuildingID: c.Param("building_id")}) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
