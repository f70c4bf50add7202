package redisactivity

import (
	"strings"
	"time"

	"github.com/bytebard/go-auth"
)

const (
	// MetadataKeyActorType holds auth.ActorRef.Type
	MetadataKeyActorType = "actor_type"
	// MetadataKeyFromStatus holds the status before a transition
	MetadataKeyFromStatus = "from_status"
	// MetadataKeyToStatus holds the status after a transition
	MetadataKeyToStatus = "to_status"
)

const systemActor = "system"

// Record is the payload published for every activity event. It is flat so
// consumers do not need the auth types to decode it.
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	UserID     string         `json:"user_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewRecord flattens an auth.ActivityEvent. The actor falls back to the
// affected user and then to "system".
func NewRecord(event auth.ActivityEvent, now func() time.Time) Record {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		if now == nil {
			now = time.Now
		}
		occurredAt = now().UTC()
	}

	return Record{
		ActorID: firstNonEmpty(
			strings.TrimSpace(event.Actor.ID),
			strings.TrimSpace(event.UserID),
			systemActor,
		),
		Verb:       string(event.EventType),
		UserID:     strings.TrimSpace(event.UserID),
		Metadata:   recordMetadata(event),
		OccurredAt: occurredAt,
	}
}

func recordMetadata(event auth.ActivityEvent) map[string]any {
	var metadata map[string]any
	set := func(key string, value any, overwrite bool) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; exists && !overwrite {
			return
		}
		metadata[key] = value
	}

	for key, value := range event.Metadata {
		set(key, value, true)
	}
	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		set(MetadataKeyActorType, actorType, false)
	}
	if event.FromStatus != "" {
		set(MetadataKeyFromStatus, string(event.FromStatus), true)
	}
	if event.ToStatus != "" {
		set(MetadataKeyToStatus, string(event.ToStatus), true)
	}
	return metadata
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
