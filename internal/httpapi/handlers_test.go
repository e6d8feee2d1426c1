package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"intercom-platform/internal/audit"
	"intercom-platform/internal/auth"
	"intercom-platform/internal/callsession"
	"intercom-platform/internal/config"
	"intercom-platform/internal/directory"
	"intercom-platform/internal/notify"
	"intercom-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

const testScannerToken = "scan-tok"

type testEnv struct {
	router *gin.Engine
	auth   *auth.Manager
	calls  *callsession.Service
	events *notify.MemoryDispatcher
}

// newTestEnv wires a full router over in-memory stores.
// Ring timeout is one millisecond so timeout tests age rings by sleeping.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	am, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}

	dirRepo := directory.NewMemoryRepo()
	dirRepo.Buildings = []string{"b1"}
	dirRepo.Households["h1"] = directory.HouseholdInfo{Name: "Khan", UnitNumber: "101"}
	dirRepo.Households["h2"] = directory.HouseholdInfo{Name: "Okafor", UnitNumber: "102"}
	dirRepo.DoorBells = []directory.DoorBell{
		{ID: "bell-1", BuildingID: "b1", HouseholdID: "h1", Label: "Front", Enabled: true},
		{ID: "bell-2", BuildingID: "b1", HouseholdID: "h2", Label: "Front", Enabled: true},
		{ID: "bell-off", BuildingID: "b1", HouseholdID: "h1", Label: "Back", Enabled: false},
	}

	events := notify.NewMemoryDispatcher()
	auditSvc := audit.NewService(audit.NewMemoryRepo())
	calls := callsession.NewService(callsession.NewMemoryRepo(), events,
		callsession.AuditRecorder{Audit: auditSvc}, time.Millisecond)

	h := Handlers{
		Auth:      am,
		Directory: directory.NewService(dirRepo),
		Calls:     calls,
		Audit:     auditSvc,
		Authz:     rbac.Policy{},
	}

	r := gin.New()
	r.GET("/door-bell/:door_bell_id/call-status", h.GetCallStatus)
	r.GET("/door-bell/:door_bell_id/messages", h.ListCallMessages)
	r.POST("/door-bell/:door_bell_id/message", h.PostMessage)
	r.POST("/door-bell/:door_bell_id/press", h.PressDoorBell)
	r.GET("/building/:building_id/door-bell", h.ListDoorBells)
	r.POST("/building/:building_id/door-bell/check-timeout",
		RequireScannerAuth(am, testScannerToken, rbac.Policy{}), h.CheckTimeout)

	r.POST("/v1/auth/refresh", h.RefreshToken)

	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(am), rbac.RequireBuilding())
	v1.POST("/door-bell/:door_bell_id/answer", h.AnswerCall)
	v1.POST("/door-bell/:door_bell_id/end", h.EndCall)
	v1.POST("/door-bell/:door_bell_id/message", h.PostHouseholdMessage)
	v1.GET("/building/:building_id/events",
		rbac.RequireAnyRole(rbac.RoleFrontDesk, rbac.RoleManager, rbac.RoleSuperAdmin),
		h.ListCallEvents)

	return &testEnv{router: r, auth: am, calls: calls, events: events}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("bad json response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, out
}

func (e *testEnv) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	pair, err := e.auth.IssuePair(time.Now(), id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return pair.AccessToken
}

func TestCallStatus_UnknownBell404(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodGet, "/door-bell/nope/call-status", "", "")
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestCallStatus_QuietBellReadsEnded(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodGet, "/door-bell/bell-1/call-status", "", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ended" {
		t.Fatalf("expected ended, got %v", body["status"])
	}
}

func TestGuestMessage_NoSessionIs400(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodPost, "/door-bell/bell-1/message",
		`{"message":"hello","from":"guest"}`, "")
	if code != 400 {
		t.Fatalf("expected 400, got %d (%v)", code, body)
	}
}

func TestGuestMessage_MissingOriginIs400(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodPost, "/door-bell/bell-1/message",
		`{"message":"hello"}`, "")
	if code != 400 {
		t.Fatalf("expected 400 for missing from, got %d", code)
	}
}

func TestPress_DisabledBell404(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodPost, "/door-bell/bell-off/press", "", "")
	if code != 404 {
		t.Fatalf("expected 404 for disabled bell, got %d", code)
	}
}

func TestFullCallFlow(t *testing.T) {
	env := newTestEnv(t)
	resident := env.token(t, auth.Identity{UserID: "u1", BuildingID: "b1", HouseholdID: "h1", Role: rbac.RoleResident})

	// press
	code, body := env.do(t, http.MethodPost, "/door-bell/bell-1/press", "", "")
	if code != 200 {
		t.Fatalf("press: expected 200, got %d (%v)", code, body)
	}
	if body["created"] != true {
		t.Fatalf("expected created=true, got %v", body)
	}

	// status ringing
	code, body = env.do(t, http.MethodGet, "/door-bell/bell-1/call-status", "", "")
	if code != 200 || body["status"] != "ringing" {
		t.Fatalf("expected ringing, got %d %v", code, body)
	}

	// resident answers
	code, body = env.do(t, http.MethodPost, "/v1/door-bell/bell-1/answer", "", resident)
	if code != 200 {
		t.Fatalf("answer: expected 200, got %d (%v)", code, body)
	}

	// guest posts
	code, body = env.do(t, http.MethodPost, "/door-bell/bell-1/message",
		`{"message":"On my way","from":"guest"}`, "")
	if code != 200 {
		t.Fatalf("post: expected 200, got %d (%v)", code, body)
	}
	msg := body["message"].(map[string]any)
	if msg["from"] != "guest" || msg["text"] != "On my way" {
		t.Fatalf("unexpected message: %v", msg)
	}

	// household replies without asserting origin
	code, body = env.do(t, http.MethodPost, "/v1/door-bell/bell-1/message",
		`{"message":"Coming down"}`, resident)
	if code != 200 {
		t.Fatalf("household post: expected 200, got %d (%v)", code, body)
	}
	msg = body["message"].(map[string]any)
	if msg["from"] != "household" {
		t.Fatalf("expected household default origin, got %v", msg)
	}

	// transcript in posting order
	code, body = env.do(t, http.MethodGet, "/door-bell/bell-1/messages", "", "")
	if code != 200 {
		t.Fatalf("messages: expected 200, got %d", code)
	}
	msgs := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].(map[string]any)["text"] != "On my way" {
		t.Fatalf("transcript out of order: %v", msgs)
	}

	// end
	code, _ = env.do(t, http.MethodPost, "/v1/door-bell/bell-1/end", "", resident)
	if code != 200 {
		t.Fatalf("end: expected 200, got %d", code)
	}

	// transcript quiet again, status ended
	code, body = env.do(t, http.MethodGet, "/door-bell/bell-1/messages", "", "")
	if code != 200 || len(body["messages"].([]any)) != 0 {
		t.Fatalf("expected empty transcript, got %d %v", code, body)
	}
	code, body = env.do(t, http.MethodGet, "/door-bell/bell-1/call-status", "", "")
	if code != 200 || body["status"] != "ended" {
		t.Fatalf("expected ended, got %d %v", code, body)
	}
}

func TestAnswer_WrongHouseholdForbidden(t *testing.T) {
	env := newTestEnv(t)
	otherResident := env.token(t, auth.Identity{UserID: "u2", BuildingID: "b1", HouseholdID: "h2", Role: rbac.RoleResident})

	if code, _ := env.do(t, http.MethodPost, "/door-bell/bell-1/press", "", ""); code != 200 {
		t.Fatalf("press failed: %d", code)
	}
	code, _ := env.do(t, http.MethodPost, "/v1/door-bell/bell-1/answer", "", otherResident)
	if code != 403 {
		t.Fatalf("expected 403 for other household, got %d", code)
	}
}

func TestCheckTimeout_AuthAndIdempotency(t *testing.T) {
	env := newTestEnv(t)

	// no credential
	code, _ := env.do(t, http.MethodPost, "/building/b1/door-bell/check-timeout", "", "")
	if code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}

	// resident JWT is not allowed to trigger the scan
	resident := env.token(t, auth.Identity{UserID: "u1", BuildingID: "b1", HouseholdID: "h1", Role: rbac.RoleResident})
	code, _ = env.do(t, http.MethodPost, "/building/b1/door-bell/check-timeout", "", resident)
	if code != 403 {
		t.Fatalf("expected 403 for resident, got %d", code)
	}

	// ring and let it expire (test ring timeout is 1ms)
	if code, _ := env.do(t, http.MethodPost, "/door-bell/bell-1/press", "", ""); code != 200 {
		t.Fatalf("press failed: %d", code)
	}
	time.Sleep(5 * time.Millisecond)

	code, body := env.do(t, http.MethodPost, "/building/b1/door-bell/check-timeout", "", testScannerToken)
	if code != 200 {
		t.Fatalf("expected 200, got %d (%v)", code, body)
	}
	if body["routed_count"] != float64(1) {
		t.Fatalf("expected 1 routed, got %v", body["routed_count"])
	}

	// the routed bell reads ended publicly
	code, body = env.do(t, http.MethodGet, "/door-bell/bell-1/call-status", "", "")
	if code != 200 || body["status"] != "ended" {
		t.Fatalf("expected ended, got %d %v", code, body)
	}

	// a second sweep finds nothing
	code, body = env.do(t, http.MethodPost, "/building/b1/door-bell/check-timeout", "", testScannerToken)
	if code != 200 || body["routed_count"] != float64(0) {
		t.Fatalf("expected idempotent sweep, got %d %v", code, body)
	}

	// staff JWT works too
	desk := env.token(t, auth.Identity{UserID: "staff", BuildingID: "b1", Role: rbac.RoleFrontDesk})
	code, _ = env.do(t, http.MethodPost, "/building/b1/door-bell/check-timeout", "", desk)
	if code != 200 {
		t.Fatalf("expected 200 for front desk, got %d", code)
	}
}

func TestCheckTimeout_UnknownBuilding404(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodPost, "/building/b-missing/door-bell/check-timeout", "", testScannerToken)
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestListDoorBells_SkipsDisabled(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/building/b1/door-bell", "", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	bells := body["door_bells"].([]any)
	if len(bells) != 2 {
		t.Fatalf("expected 2 enabled bells, got %d", len(bells))
	}
	first := bells[0].(map[string]any)
	if first["household_name"] != "Khan" || first["unit_number"] != "101" {
		t.Fatalf("unexpected listing: %v", first)
	}

	code, _ = env.do(t, http.MethodGet, "/building/b-missing/door-bell", "", "")
	if code != 404 {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestRefreshToken_MintsUsablePair(t *testing.T) {
	env := newTestEnv(t)
	pair, err := env.auth.IssuePair(time.Now(),
		auth.Identity{UserID: "u1", BuildingID: "b1", HouseholdID: "h1", Role: rbac.RoleResident})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	code, body := env.do(t, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+pair.RefreshToken+`"}`, "")
	if code != 200 {
		t.Fatalf("refresh: expected 200, got %d (%v)", code, body)
	}
	access, _ := body["access_token"].(string)
	if access == "" || body["refresh_token"] == "" {
		t.Fatalf("expected a new pair, got %v", body)
	}

	// The refreshed access token works on the protected surface.
	if code, _ := env.do(t, http.MethodPost, "/door-bell/bell-1/press", "", ""); code != 200 {
		t.Fatalf("press failed: %d", code)
	}
	code, _ = env.do(t, http.MethodPost, "/v1/door-bell/bell-1/answer", "", access)
	if code != 200 {
		t.Fatalf("answer with refreshed token: expected 200, got %d", code)
	}
}

func TestRefreshToken_RejectsAccessTokenAndEmptyBody(t *testing.T) {
	env := newTestEnv(t)
	access := env.token(t, auth.Identity{UserID: "u1", BuildingID: "b1", Role: rbac.RoleResident})

	code, _ := env.do(t, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token":"`+access+`"}`, "")
	if code != 401 {
		t.Fatalf("expected 401 for access token, got %d", code)
	}
	code, _ = env.do(t, http.MethodPost, "/v1/auth/refresh", `{}`, "")
	if code != 400 {
		t.Fatalf("expected 400 for missing token, got %d", code)
	}
}

func TestCallEvents_StaffOnlyHistory(t *testing.T) {
	env := newTestEnv(t)

	// Produce a routed event: ring, let it expire, sweep.
	if code, _ := env.do(t, http.MethodPost, "/door-bell/bell-1/press", "", ""); code != 200 {
		t.Fatalf("press failed: %d", code)
	}
	time.Sleep(5 * time.Millisecond)
	if code, _ := env.do(t, http.MethodPost, "/building/b1/door-bell/check-timeout", "", testScannerToken); code != 200 {
		t.Fatalf("sweep failed: %d", code)
	}

	resident := env.token(t, auth.Identity{UserID: "u1", BuildingID: "b1", HouseholdID: "h1", Role: rbac.RoleResident})
	code, _ := env.do(t, http.MethodGet, "/v1/building/b1/events", "", resident)
	if code != 403 {
		t.Fatalf("expected 403 for resident, got %d", code)
	}

	desk := env.token(t, auth.Identity{UserID: "staff", BuildingID: "b1", Role: rbac.RoleFrontDesk})
	code, body := env.do(t, http.MethodGet, "/v1/building/b1/events", "", desk)
	if code != 200 {
		t.Fatalf("expected 200 for front desk, got %d (%v)", code, body)
	}
	evs := body["events"].([]any)
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].(map[string]any)["type"] != "call_routed" {
		t.Fatalf("expected call_routed, got %v", evs[0])
	}

	// Staff can only read their own building's history.
	otherDesk := env.token(t, auth.Identity{UserID: "staff2", BuildingID: "b2", Role: rbac.RoleFrontDesk})
	code, _ = env.do(t, http.MethodGet, "/v1/building/b1/events", "", otherDesk)
	if code != 403 {
		t.Fatalf("expected 403 across buildings, got %d", code)
	}

	admin := env.token(t, auth.Identity{UserID: "root", BuildingID: "hq", Role: rbac.RoleSuperAdmin})
	code, _ = env.do(t, http.MethodGet, "/v1/building/b1/events", "", admin)
	if code != 200 {
		t.Fatalf("expected 200 for super admin, got %d", code)
	}
}

func TestPressDebounce_JoinsActiveCall(t *testing.T) {
	env := newTestEnv(t)

	// First press rings, second press while ringing joins the same session.
	code, body := env.do(t, http.MethodPost, "/door-bell/bell-1/press", "", "")
	if code != 200 || body["created"] != true {
		t.Fatalf("first press: %d %v", code, body)
	}
	first := body["call"].(map[string]any)["call_session_id"]

	code, body = env.do(t, http.MethodPost, "/door-bell/bell-1/press", "", "")
	if code != 200 || body["created"] != false {
		t.Fatalf("second press: %d %v", code, body)
	}
	second := body["call"].(map[string]any)["call_session_id"]
	if first != second {
		t.Fatalf("expected same session, got %v vs %v", first, second)
	}
}
