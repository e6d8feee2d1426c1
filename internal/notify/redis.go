package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intercom-platform/internal/callsession"

	"github.com/redis/go-redis/v9"
)

// RedisDispatcher broadcasts call lifecycle events over Redis pub/sub.
//
// Channels are shared across all API processes, so push-style delivery keeps
// working when request handling is horizontally scaled; nothing here relies
// on an in-process connection registry. Consumers subscribe to:
//
//	building:{building_id}:front-desk  (escalations for desk staff)
//	household:{household_id}:calls     (every event for the household's apps)
type RedisDispatcher struct {
	rdb *redis.Client

	// publishTimeout bounds each publish so a slow broker cannot stall a
	// state transition; the dispatch is fire-and-forget either way.
	publishTimeout time.Duration
}

func NewRedisDispatcher(rdb *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{rdb: rdb, publishTimeout: 2 * time.Second}
}

// Event is the wire shape published to subscribers.
type Event struct {
	Event         string     `json:"event"`
	CallSessionID string     `json:"call_session_id"`
	DoorBellID    string     `json:"door_bell_id"`
	BuildingID    string     `json:"building_id"`
	HouseholdID   string     `json:"household_id"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	ConnectedAt   *time.Time `json:"connected_at,omitempty"`
}

const (
	EventRinging  = "call.ringing"
	EventAnswered = "call.answered"
	EventEnded    = "call.ended"
	EventRouted   = "call.routed"
)

func FrontDeskChannel(buildingID string) string {
	return fmt.Sprintf("building:%s:front-desk", buildingID)
}

func HouseholdChannel(householdID string) string {
	return fmt.Sprintf("household:%s:calls", householdID)
}

func (d *RedisDispatcher) CallRinging(ctx context.Context, s callsession.Session) error {
	return d.publish(ctx, EventRinging, s, HouseholdChannel(s.HouseholdID))
}

func (d *RedisDispatcher) CallAnswered(ctx context.Context, s callsession.Session) error {
	return d.publish(ctx, EventAnswered, s, HouseholdChannel(s.HouseholdID))
}

func (d *RedisDispatcher) CallEnded(ctx context.Context, s callsession.Session) error {
	return d.publish(ctx, EventEnded, s, HouseholdChannel(s.HouseholdID))
}

// CallRouted alerts the front desk in addition to the household: a routed
// call means nobody answered and desk staff should pick it up.
func (d *RedisDispatcher) CallRouted(ctx context.Context, s callsession.Session) error {
	return d.publish(ctx, EventRouted, s,
		FrontDeskChannel(s.BuildingID),
		HouseholdChannel(s.HouseholdID),
	)
}

func (d *RedisDispatcher) publish(ctx context.Context, event string, s callsession.Session, channels ...string) error {
	if d.rdb == nil {
		return fmt.Errorf("notify: redis client is nil")
	}

	payload, err := json.Marshal(Event{
		Event:         event,
		CallSessionID: s.ID,
		DoorBellID:    s.DoorBellID,
		BuildingID:    s.BuildingID,
		HouseholdID:   s.HouseholdID,
		Status:        string(s.Status),
		StartedAt:     s.StartedAt,
		ConnectedAt:   s.ConnectedAt,
	})
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()

	var firstErr error
	for _, ch := range channels {
		if err := d.rdb.Publish(pubCtx, ch, payload).Err(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("notify: publish to %s: %w", ch, err)
		}
	}
	return firstErr
}
