package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"intercom-platform/internal/audit"
	"intercom-platform/internal/auth"
	"intercom-platform/internal/callsession"
	"intercom-platform/internal/directory"
	"intercom-platform/internal/rbac"
	"intercom-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Directory *directory.Service
	Calls     *callsession.Service
	Audit     *audit.Service
	Authz     rbac.Authorizer

	// PressDebounce suppresses repeated hardware presses. Injected as a
	// function to keep this package free of broker specifics; nil disables
	// debouncing (tests, local dev without redis).
	PressDebounce func(ctx context.Context, doorBellID string) (bool, error)

	// PressDebounceClear drops the debounce slot when a call reaches a
	// terminal state, so the next press rings without waiting the window out.
	PressDebounceClear func(ctx context.Context, doorBellID string) error
}

/* ===================== PUBLIC: GUEST/PANEL FACING ===================== */

// GetCallStatus reports the collapsed call state for a door bell.
// Guests poll this; anything not actively ringing or connected reads as
// ended.
func (h Handlers) GetCallStatus(c *gin.Context) {
	bell, ok := h.resolveDoorBell(c)
	if !ok {
		return
	}
	view, err := h.Calls.Status(c.Request.Context(), bell.ID)
	if err != nil {
		h.fail(c, err, "call-status", bell.ID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListCallMessages returns the connected session's transcript, or an empty
// list when nothing is connected. Never a "no session" error: a quiet door
// bell is not a fault.
func (h Handlers) ListCallMessages(c *gin.Context) {
	bell, ok := h.resolveDoorBell(c)
	if !ok {
		return
	}
	msgs, err := h.Calls.Messages(c.Request.Context(), bell.ID)
	if err != nil {
		h.fail(c, err, "list-messages", bell.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type postMessageRequest struct {
	Message string `json:"message"`
	From    string `json:"from"`
}

// PostMessage appends a transcript message on behalf of the caller at the
// panel. Origin must be asserted explicitly; there is no default for public
// callers.
func (h Handlers) PostMessage(c *gin.Context) {
	bell, ok := h.resolveDoorBell(c)
	if !ok {
		return
	}

	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.From == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from is required"})
		return
	}

	m, err := h.Calls.PostMessage(c.Request.Context(), bell.ID, req.Message, callsession.Origin(req.From))
	if err != nil {
		h.fail(c, err, "post-message", bell.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": m})
}

// PressDoorBell starts (or joins) a call session for a door bell. A press
// inside the debounce window, or while a session is already active, joins
// the existing call instead of creating a duplicate.
func (h Handlers) PressDoorBell(c *gin.Context) {
	doorBellID := c.Param("door_bell_id")
	bell, err := h.Directory.GetEnabled(c.Request.Context(), doorBellID)
	if err != nil {
		h.fail(c, err, "press", doorBellID)
		return
	}

	if h.PressDebounce != nil {
		acquired, err := h.PressDebounce(c.Request.Context(), bell.ID)
		if err != nil {
			// Broker trouble must not make the bell dead; log and ring anyway.
			logger.FromGin(c).Warn("press debounce unavailable", "door_bell_id", bell.ID, "err", err)
		} else if !acquired {
			view, err := h.Calls.Status(c.Request.Context(), bell.ID)
			if err != nil {
				h.fail(c, err, "press", bell.ID)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "created": false, "call": view})
			return
		}
	}

	sess, created, err := h.Calls.Press(c.Request.Context(), callsession.PressInput{
		DoorBellID:  bell.ID,
		BuildingID:  bell.BuildingID,
		HouseholdID: bell.HouseholdID,
	})
	if err != nil {
		h.fail(c, err, "press", bell.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"created": created,
		"call": callsession.StatusView{
			Status:        sess.Status.Collapse(),
			CallSessionID: sess.ID,
			StartedAt:     &sess.StartedAt,
			ConnectedAt:   sess.ConnectedAt,
		},
	})
}

// ListDoorBells is the building entry-panel directory.
func (h Handlers) ListDoorBells(c *gin.Context) {
	buildingID := c.Param("building_id")
	listings, err := h.Directory.ListEnabled(c.Request.Context(), buildingID)
	if err != nil {
		h.fail(c, err, "list-door-bells", buildingID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"door_bells": listings})
}

/* ===================== SCANNER TRIGGER ===================== */

// CheckTimeout sweeps the building's expired rings and routes them to the
// front desk. Safe to call repeatedly: each eligible session routes exactly
// once, later calls count zero.
func (h Handlers) CheckTimeout(c *gin.Context) {
	buildingID := c.Param("building_id")
	if err := h.Directory.RequireBuilding(c.Request.Context(), buildingID); err != nil {
		h.fail(c, err, "check-timeout", buildingID)
		return
	}

	n, err := h.Calls.RouteTimedOut(c.Request.Context(), buildingID)
	if err != nil {
		h.fail(c, err, "check-timeout", buildingID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"routed_count": n,
		"message":      routedMessage(n),
	})
}

func routedMessage(n int) string {
	switch n {
	case 0:
		return "no expired rings"
	case 1:
		return "routed 1 call to front desk"
	default:
		return fmt.Sprintf("routed %d calls to front desk", n)
	}
}

/* ===================== PROTECTED: HOUSEHOLD FACING ===================== */

// AnswerCall transitions a ringing session to connected on behalf of the
// authenticated resident (or staff covering the desk).
func (h Handlers) AnswerCall(c *gin.Context) {
	bell, id, ok := h.resolveAuthorized(c, rbac.ActionAnswerCall)
	if !ok {
		return
	}
	sess, err := h.Calls.Answer(c.Request.Context(), bell.ID, id.UserID)
	if err != nil {
		h.fail(c, err, "answer", bell.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call": sess})
}

// EndCall finishes a connected session.
func (h Handlers) EndCall(c *gin.Context) {
	bell, id, ok := h.resolveAuthorized(c, rbac.ActionEndCall)
	if !ok {
		return
	}
	sess, err := h.Calls.End(c.Request.Context(), bell.ID, id.UserID)
	if err != nil {
		h.fail(c, err, "end", bell.ID)
		return
	}
	if h.PressDebounceClear != nil {
		if err := h.PressDebounceClear(c.Request.Context(), bell.ID); err != nil {
			logger.FromGin(c).Warn("press debounce clear failed", "door_bell_id", bell.ID, "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call": sess})
}

// PostHouseholdMessage appends a transcript message for the authenticated
// household side. Unlike the public endpoint, origin defaults to household
// here because the caller is trusted.
func (h Handlers) PostHouseholdMessage(c *gin.Context) {
	bell, _, ok := h.resolveAuthorized(c, rbac.ActionPostAsHousehold)
	if !ok {
		return
	}

	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	from := callsession.OriginHousehold
	if req.From != "" {
		from = callsession.Origin(req.From)
	}

	m, err := h.Calls.PostMessage(c.Request.Context(), bell.ID, req.Message, from)
	if err != nil {
		h.fail(c, err, "post-message", bell.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": m})
}

/* ===================== AUTH ===================== */

type loginRequest struct {
	UserID      string `json:"user_id"`
	BuildingID  string `json:"building_id"`
	HouseholdID string `json:"household_id"`
	Role        string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: Credential validation lives with the external identity provider;
// this endpoint trusts its upstream and only mints tokens.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.BuildingID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, building_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), auth.Identity{
		UserID:      req.UserID,
		BuildingID:  req.BuildingID,
		HouseholdID: req.HouseholdID,
		Role:        req.Role,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken exchanges a refresh token for a fresh pair.
func (h Handlers) RefreshToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	pair, err := h.Auth.Refresh(time.Now(), req.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

/* ===================== PROTECTED: STAFF FACING ===================== */

// ListCallEvents is the front-desk view of a building's recent call
// history: answers, hang-ups, and timed-out rings routed to the desk.
func (h Handlers) ListCallEvents(c *gin.Context) {
	buildingID := c.Param("building_id")
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}
	if !rbac.IsSuperAdmin(id.Role) && id.BuildingID != buildingID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	events, err := h.Audit.Recent(c.Request.Context(), buildingID, 0)
	if err != nil {
		h.fail(c, err, "list-call-events", buildingID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

/* ===================== HELPERS ===================== */

func (h Handlers) resolveDoorBell(c *gin.Context) (directory.DoorBell, bool) {
	doorBellID := c.Param("door_bell_id")
	bell, err := h.Directory.Get(c.Request.Context(), doorBellID)
	if err != nil {
		h.fail(c, err, "resolve-door-bell", doorBellID)
		return directory.DoorBell{}, false
	}
	return bell, true
}

func (h Handlers) resolveAuthorized(c *gin.Context, action rbac.Action) (directory.DoorBell, auth.Identity, bool) {
	bell, ok := h.resolveDoorBell(c)
	if !ok {
		return directory.DoorBell{}, auth.Identity{}, false
	}
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return directory.DoorBell{}, auth.Identity{}, false
	}
	if !h.Authz.Authorize(id, action, rbac.Resource{
		BuildingID:  bell.BuildingID,
		HouseholdID: bell.HouseholdID,
		DoorBellID:  bell.ID,
	}) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return directory.DoorBell{}, auth.Identity{}, false
	}
	return bell, id, true
}

// fail maps service errors onto the HTTP taxonomy. Store failures are logged
// with operation context and surfaced as a generic 500; internals never leak
// to the panel.
func (h Handlers) fail(c *gin.Context, err error, op, subjectID string) {
	switch {
	case errors.Is(err, callsession.ErrInvalidArgument), errors.Is(err, directory.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, callsession.ErrNoActiveSession):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no active call session"})
	case errors.Is(err, directory.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		logger.FromGin(c).Error("store operation failed", "op", op, "subject_id", subjectID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
