package model

import "time"

type Technician struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Email     string    `gorm:"column:email;type:text;not null"`
	Phone     string    `gorm:"column:phone;type:text;not null"`
	Specialty string    `gorm:"column:specialty;type:text;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Technician) TableName() string {
	return "technicians"
}
