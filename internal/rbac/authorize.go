package rbac

import "intercom-platform/internal/auth"

// Action is a capability the caller wants to exercise.
type Action string

const (
	ActionAnswerCall      Action = "call.answer"
	ActionEndCall         Action = "call.end"
	ActionPostAsHousehold Action = "call.message.household"
	ActionTriggerRingScan Action = "call.scan"
)

// Resource identifies what the action targets. Zero fields mean "not scoped".
type Resource struct {
	BuildingID  string
	HouseholdID string
	DoorBellID  string
}

// Authorizer is the single capability-check seam for the service.
// Handlers and middleware must go through it instead of inlining role
// comparisons, so the access policy stays testable away from transport.
type Authorizer interface {
	Authorize(subject auth.Identity, action Action, res Resource) bool
}

// Policy is the default role/tenancy based Authorizer.
//
// Rules:
//   - super_admin may do anything.
//   - building scoping: staff act only within their own building.
//   - household scoping: residents act only on calls for their own household.
//   - the ring scan may be triggered by any staff role.
type Policy struct{}

func (Policy) Authorize(subject auth.Identity, action Action, res Resource) bool {
	if IsSuperAdmin(subject.Role) {
		return true
	}
	if res.BuildingID != "" && subject.BuildingID != res.BuildingID {
		return false
	}

	switch action {
	case ActionAnswerCall, ActionEndCall, ActionPostAsHousehold:
		if IsStaff(subject.Role) {
			return true
		}
		if subject.Role != RoleResident {
			return false
		}
		return res.HouseholdID != "" && subject.HouseholdID == res.HouseholdID
	case ActionTriggerRingScan:
		return IsStaff(subject.Role)
	default:
		return false
	}
}
