package main

import (
	"intercom-platform/internal/httpapi"
	"intercom-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW, scannerMW, healthz gin.HandlerFunc) {
	r.GET("/healthz", healthz)

	// Public, panel-facing surface. Door bell panels and guest phones hit
	// these without credentials; everything here is scoped to a single
	// door bell or building and leaks nothing tenant-internal.
	r.GET("/door-bell/:door_bell_id/call-status", h.GetCallStatus)
	r.GET("/door-bell/:door_bell_id/messages", h.ListCallMessages)
	r.POST("/door-bell/:door_bell_id/message", h.PostMessage)
	r.POST("/door-bell/:door_bell_id/press", h.PressDoorBell)
	r.GET("/building/:building_id/door-bell", h.ListDoorBells)

	// Timeout sweep trigger. Accepts the static scanner token (cron,
	// sidecar) or a staff JWT.
	r.POST("/building/:building_id/door-bell/check-timeout", scannerMW, h.CheckTimeout)

	// Token issuance and renewal.
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.RefreshToken)

	// Protected, household/staff surface. Every protected route operates on
	// building-scoped resources, so a building claim is mandatory.
	v1 := r.Group("/v1")
	v1.Use(authMW, rbac.RequireBuilding())
	{
		v1.POST("/door-bell/:door_bell_id/answer", h.AnswerCall)
		v1.POST("/door-bell/:door_bell_id/end", h.EndCall)
		v1.POST("/door-bell/:door_bell_id/message", h.PostHouseholdMessage)

		// Call history is staff-only; residents never see other
		// households' traffic.
		v1.GET("/building/:building_id/events",
			rbac.RequireAnyRole(rbac.RoleFrontDesk, rbac.RoleManager, rbac.RoleSuperAdmin),
			h.ListCallEvents)
	}
}
