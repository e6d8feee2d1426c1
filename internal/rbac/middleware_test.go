package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"intercom-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func withIdentity(id auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x",
		withIdentity(auth.Identity{UserID: "u", BuildingID: "b", Role: RoleSuperAdmin}),
		RequireBuilding(), RequireAnyRole(RoleFrontDesk), func(c *gin.Context) {
			c.Status(200)
		})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireAnyRole_DeniesUnlistedRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x",
		withIdentity(auth.Identity{UserID: "u", BuildingID: "b", Role: RoleResident}),
		RequireBuilding(), RequireAnyRole(RoleFrontDesk, RoleManager), func(c *gin.Context) {
			c.Status(200)
		})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireBuilding_MissingBuildingUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x",
		withIdentity(auth.Identity{UserID: "u", Role: RoleFrontDesk}),
		RequireBuilding(), func(c *gin.Context) {
			c.Status(200)
		})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
