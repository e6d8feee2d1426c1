package rbac

import (
	"net/http"

	"intercom-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireBuilding enforces the multi-tenant invariant: building_id must exist in context.
// This does not validate membership; that belongs to the Authorizer.
func RequireBuilding() gin.HandlerFunc {
	return func(c *gin.Context) {
		bid, err := auth.BuildingID(c.Request.Context())
		if err != nil || bid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "building_id required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// Rules:
// - super_admin bypasses all checks
// - building isolation is enforced via RequireBuilding (use it in the chain)
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		// super_admin bypasses all
		if IsSuperAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
