package intervention

import (
	"strings"
	"time"
)

// Intervention is a recorded maintenance incident. Machine and technician are
// weak references: either may become nil when the referenced row is deleted.
type Intervention struct {
	ID                 string
	MachineID          *string
	TechnicianID       *string
	ProblemDescription string
	AudioURL           string
	AISolution         string
	Status             Status
	Priority           Priority
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResolvedAt         *time.Time
}

// Draft is the unsaved form prepared by one intake session.
type Draft struct {
	MachineID          string
	TechnicianID       string
	ProblemDescription string
	AISolution         string
	AudioURL           string
}

// MissingFields lists the required draft fields that are blank, in form order.
func (d Draft) MissingFields() []string {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(d.MachineID) == "" {
		missing = append(missing, "machine")
	}
	if strings.TrimSpace(d.TechnicianID) == "" {
		missing = append(missing, "technician")
	}
	if strings.TrimSpace(d.ProblemDescription) == "" {
		missing = append(missing, "problem_description")
	}
	return missing
}

// NewFromDraft builds the record committed by intake: pending, medium priority,
// no resolution timestamp.
func NewFromDraft(id string, draft Draft, now time.Time) Intervention {
	return Intervention{
		ID:                 id,
		MachineID:          OptionalRef(draft.MachineID),
		TechnicianID:       OptionalRef(draft.TechnicianID),
		ProblemDescription: strings.TrimSpace(draft.ProblemDescription),
		AudioURL:           strings.TrimSpace(draft.AudioURL),
		AISolution:         strings.TrimSpace(draft.AISolution),
		Status:             DefaultStatus,
		Priority:           DefaultPriority,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// OptionalRef turns a blank catalog id into a nil reference.
func OptionalRef(id string) *string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (iv Intervention) IsResolved() bool {
	return iv.Status == StatusResolved
}
