package model

import "time"

// Intervention references machine and technician with ON DELETE SET NULL so
// removing catalog rows never removes maintenance history.
type Intervention struct {
	ID                 string      `gorm:"column:id;type:varchar(36);primaryKey"`
	MachineID          *string     `gorm:"column:machine_id;type:varchar(36);index"`
	Machine            *Machine    `gorm:"foreignKey:MachineID;references:ID;constraint:OnDelete:SET NULL"`
	TechnicianID       *string     `gorm:"column:technician_id;type:varchar(36);index"`
	Technician         *Technician `gorm:"foreignKey:TechnicianID;references:ID;constraint:OnDelete:SET NULL"`
	ProblemDescription *string     `gorm:"column:problem_description;type:text"`
	AudioURL           *string     `gorm:"column:audio_url;type:text"`
	AISolution         *string     `gorm:"column:ai_solution;type:text"`
	Status             string      `gorm:"column:status;type:varchar(16);not null;default:pending;index"`
	Priority           string      `gorm:"column:priority;type:varchar(16);not null;default:medium"`
	CreatedAt          time.Time   `gorm:"column:created_at;not null;index"`
	UpdatedAt          time.Time   `gorm:"column:updated_at;not null"`
	ResolvedAt         *time.Time  `gorm:"column:resolved_at"`
}

func (Intervention) TableName() string {
	return "interventions"
}
