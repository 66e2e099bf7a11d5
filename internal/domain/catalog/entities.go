package catalog

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNameRequired = errors.New("name is required")
	ErrInactive     = errors.New("entity is not active")
)

type Machine struct {
	ID             string
	Name           string
	Model          string
	Manufacturer   string
	SerialNumber   string
	Location       string
	Specifications Specs
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Technician struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Specialty string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Part struct {
	ID          string
	Name        string
	PartNumber  string
	Description string
	Quantity    int
	MinQuantity int
	Location    string
	MachineID   *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LowStock reports whether the part is at or below its reorder threshold.
func (p Part) LowStock() bool {
	return p.Quantity <= p.MinQuantity
}

// DisplayName is the label offered by intake pickers.
func (m Machine) DisplayName() string {
	name := strings.TrimSpace(m.Name)
	if model := strings.TrimSpace(m.Model); model != "" && !strings.Contains(name, model) {
		return name + " (" + model + ")"
	}
	return name
}
