package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxBuildingID
	ctxHouseholdID
	ctxRole
)

// Identity is the authenticated caller as seen by handlers and rbac.
type Identity struct {
	UserID      string
	BuildingID  string
	HouseholdID string
	Role        string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, id.UserID)
	ctx = context.WithValue(ctx, ctxBuildingID, id.BuildingID)
	ctx = context.WithValue(ctx, ctxHouseholdID, id.HouseholdID)
	ctx = context.WithValue(ctx, ctxRole, id.Role)
	return ctx
}

// IdentityFrom returns the full identity, or an error when no authenticated
// user is attached to the context.
func IdentityFrom(ctx context.Context) (Identity, error) {
	uid, err := UserID(ctx)
	if err != nil {
		return Identity{}, err
	}
	bid, err := BuildingID(ctx)
	if err != nil {
		return Identity{}, err
	}
	role, err := Role(ctx)
	if err != nil {
		return Identity{}, err
	}
	hid, _ := ctx.Value(ctxHouseholdID).(string)
	return Identity{UserID: uid, BuildingID: bid, HouseholdID: hid, Role: role}, nil
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func BuildingID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxBuildingID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("building_id not in context")
}

// HouseholdID returns the caller's household; empty for staff tokens.
func HouseholdID(ctx context.Context) string {
	s, _ := ctx.Value(ctxHouseholdID).(string)
	return s
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}
