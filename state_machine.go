package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidTransition = "INVALID_USER_STATE_TRANSITION"

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid user state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionOption customizes a single transition.
type TransitionOption func(*TransitionMetadata)

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(meta *TransitionMetadata) {
		meta.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(meta *TransitionMetadata) {
		if len(metadata) == 0 {
			return
		}
		if meta.Metadata == nil {
			meta.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			meta.Metadata[k] = v
		}
	}
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*StatusMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *StatusMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *StatusMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *StatusMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// StatusMachine guards principal status changes. The only move allowed
// is INACTIVE to ACTIVE, which happens on a successful password change.
// Transition updates the principal in memory; persisting it is left to
// the caller so the change lands in the same save as the rest of the
// update.
type StatusMachine struct {
	transitions  map[PrincipalStatus]map[PrincipalStatus]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

// NewStatusMachine returns the default status machine
func NewStatusMachine(opts ...StateMachineOption) *StatusMachine {
	sm := &StatusMachine{
		transitions: map[PrincipalStatus]map[PrincipalStatus]struct{}{
			StatusInactive: {
				StatusActive: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

// Transition moves principal to target and records the change. Moving
// to the current status is a no-op and records nothing.
func (sm *StatusMachine) Transition(ctx context.Context, actor ActorRef, principal *Principal, target PrincipalStatus, opts ...TransitionOption) (bool, error) {
	from, changed, err := sm.Apply(principal, target)
	if err != nil || !changed {
		return false, err
	}
	sm.Announce(ctx, actor, principal, from, opts...)
	return true, nil
}

// Apply validates and performs the status change in memory only. Callers
// that persist the principal themselves call Announce once the save has
// succeeded.
func (sm *StatusMachine) Apply(principal *Principal, target PrincipalStatus) (from PrincipalStatus, changed bool, err error) {
	if principal == nil {
		return "", false, withMetadata(ErrInvalidTransition, map[string]any{
			"target": target,
			"reason": "principal is nil",
		})
	}

	from = principal.Status
	if from == target {
		return from, false, nil
	}

	if !sm.CanTransition(from, target) {
		return from, false, withMetadata(ErrInvalidTransition, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	principal.Status = target
	return from, true, nil
}

// Announce publishes a user.status.changed event for a change already
// applied to principal.
func (sm *StatusMachine) Announce(ctx context.Context, actor ActorRef, principal *Principal, from PrincipalStatus, opts ...TransitionOption) {
	meta := TransitionMetadata{}
	for _, opt := range opts {
		if opt != nil {
			opt(&meta)
		}
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventUserStatusChanged,
		Actor:      actor,
		UserID:     principal.Identifier(),
		FromStatus: from,
		ToStatus:   principal.Status,
		Metadata:   transitionMetadata(meta),
	})
}

// CanTransition reports whether from -> to is an allowed edge
func (sm *StatusMachine) CanTransition(from, to PrincipalStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *StatusMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}

func transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}

// IsInvalidTransition reports whether err is (or wraps) ErrInvalidTransition
func IsInvalidTransition(err error) bool { return hasTextCode(err, textCodeInvalidTransition) }
