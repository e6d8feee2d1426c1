package auth

import (
	"testing"
	"time"

	"intercom-platform/internal/config"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, Identity{UserID: "user-1", BuildingID: "b-1", HouseholdID: "h-1", Role: "resident"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.BuildingID != "b-1" || claims.Role != "resident" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.HouseholdID != "h-1" {
		t.Fatalf("expected household claim, got %+v", claims)
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	issued := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(issued, Identity{UserID: "user-1", BuildingID: "b-1", HouseholdID: "h-1", Role: "resident"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// The access token is long dead by refresh time; the refresh token is not.
	later := issued.Add(12 * time.Hour)
	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, later); err == nil {
		t.Fatalf("expected stale access token to be rejected")
	}

	next, err := m.Refresh(later, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := m.Verify(next.AccessToken, TokenTypeAccess, later.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify refreshed access: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "resident" || claims.HouseholdID != "h-1" {
		t.Fatalf("identity not preserved across refresh: %+v", claims)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, Identity{UserID: "u", BuildingID: "b", Role: "r"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Refresh(now, pair.AccessToken); err == nil {
		t.Fatalf("expected access token to be rejected as refresh credential")
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), Identity{UserID: "u", BuildingID: "b", Role: "r"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expected token_type mismatch")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	now := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(now, Identity{UserID: "u", BuildingID: "b", Role: "r"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// Well past TTL plus clock-skew leeway.
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now.Add(10*time.Minute)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsMissingBuilding(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), Identity{UserID: "u", Role: "r"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expected building_id missing error")
	}
}
