package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Multi-tenant invariant: BuildingID must be present on every token.
// HouseholdID is set for residents only; staff tokens carry an empty value.
// Capability decisions belong to internal/rbac, not to claim parsing.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string    `json:"user_id"`
	BuildingID  string    `json:"building_id"`
	HouseholdID string    `json:"household_id,omitempty"`
	Role        string    `json:"role"`
	TokenType   TokenType `json:"token_type"`
}
