package intervention

import (
	"fmt"
	"time"
)

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusResolved, StatusCancelled},
}

// IsAllowed reports whether from -> to is an edge of the lifecycle table.
func IsAllowed(from Status, to Status) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Transition is the patch produced by PlanTransition.
type Transition struct {
	ID         string
	From       Status
	To         Status
	ResolvedAt *time.Time
	UpdatedAt  time.Time
	Noop       bool
}

// PlanTransition computes the status patch for current -> target.
//
// Terminal statuses never change. In non-strict mode any other target is
// accepted, including jumps outside the lifecycle table. resolved_at is only
// written when target is exactly resolved and is never cleared.
func PlanTransition(current Intervention, target Status, now time.Time, strict bool) (Transition, error) {
	if current.ID == "" {
		return Transition{}, ErrIDRequired
	}
	if _, err := ParseStatus(string(target)); err != nil {
		return Transition{}, err
	}

	plan := Transition{
		ID:         current.ID,
		From:       current.Status,
		To:         target,
		ResolvedAt: current.ResolvedAt,
		UpdatedAt:  now,
	}

	if current.Status == target {
		plan.Noop = true
		plan.UpdatedAt = current.UpdatedAt
		return plan, nil
	}
	if current.Status.IsTerminal() {
		return Transition{}, fmt.Errorf("%w: %s", ErrTerminalStatus, current.Status)
	}
	if strict && !IsAllowed(current.Status, target) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, target)
	}

	if target == StatusResolved && plan.ResolvedAt == nil {
		resolvedAt := now
		plan.ResolvedAt = &resolvedAt
	}
	return plan, nil
}

// Apply returns iv with the transition written onto it.
func (t Transition) Apply(iv Intervention) Intervention {
	if t.Noop {
		return iv
	}
	iv.Status = t.To
	iv.UpdatedAt = t.UpdatedAt
	if t.ResolvedAt != nil {
		resolvedAt := *t.ResolvedAt
		iv.ResolvedAt = &resolvedAt
	}
	return iv
}
