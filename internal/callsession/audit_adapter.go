package callsession

import (
	"context"

	"intercom-platform/internal/audit"
)

// AuditRecorder adapts the audit service to the Recorder seam so the call
// service stays free of audit event shapes.
type AuditRecorder struct {
	Audit *audit.Service
}

func (a AuditRecorder) RecordAnswered(ctx context.Context, s Session, actorUserID string) error {
	return a.Audit.LogCallAnswered(ctx, s.BuildingID, s.DoorBellID, s.ID, s.HouseholdID, actorUserID)
}

func (a AuditRecorder) RecordEnded(ctx context.Context, s Session, actorUserID string) error {
	return a.Audit.LogCallEnded(ctx, s.BuildingID, s.DoorBellID, s.ID, s.HouseholdID, actorUserID)
}

func (a AuditRecorder) RecordRouted(ctx context.Context, s Session) error {
	return a.Audit.LogCallRouted(ctx, s.BuildingID, s.DoorBellID, s.ID, s.HouseholdID)
}
