package intervention

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusCancelled}

// Statuses returns the enumerated status values in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, status := range allStatuses {
		if string(status) == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

func (s Status) Valid() bool {
	for _, status := range allStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var allPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	for _, priority := range allPriorities {
		if p == priority {
			return true
		}
	}
	return false
}

func ParsePriority(raw string) (Priority, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, priority := range allPriorities {
		if string(priority) == normalized {
			return priority, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
}

const (
	DefaultStatus   = StatusPending
	DefaultPriority = PriorityMedium
)
