package intervention

import (
	"strings"
	"time"
)

// DetailsPatch is a field edit on an existing intervention. Nil fields are left
// unchanged. Status is never part of a details edit.
type DetailsPatch struct {
	Priority           *Priority
	ProblemDescription *string
	AISolution         *string
}

func (p DetailsPatch) Empty() bool {
	return p.Priority == nil && p.ProblemDescription == nil && p.AISolution == nil
}

// Normalize trims text fields and validates the priority.
func (p DetailsPatch) Normalize() (DetailsPatch, error) {
	out := DetailsPatch{}
	if p.Priority != nil {
		priority, err := ParsePriority(string(*p.Priority))
		if err != nil {
			return DetailsPatch{}, err
		}
		out.Priority = &priority
	}
	if p.ProblemDescription != nil {
		text := strings.TrimSpace(*p.ProblemDescription)
		out.ProblemDescription = &text
	}
	if p.AISolution != nil {
		text := strings.TrimSpace(*p.AISolution)
		out.AISolution = &text
	}
	return out, nil
}

func (p DetailsPatch) Apply(iv Intervention, now time.Time) Intervention {
	if p.Empty() {
		return iv
	}
	if p.Priority != nil {
		iv.Priority = *p.Priority
	}
	if p.ProblemDescription != nil {
		iv.ProblemDescription = *p.ProblemDescription
	}
	if p.AISolution != nil {
		iv.AISolution = *p.AISolution
	}
	iv.UpdatedAt = now
	return iv
}
