package model

import "time"

type Machine struct {
	ID             string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Name           string    `gorm:"column:name;type:text;not null"`
	Model          string    `gorm:"column:model;type:text;not null"`
	Manufacturer   string    `gorm:"column:manufacturer;type:text;not null"`
	SerialNumber   string    `gorm:"column:serial_number;type:text;not null"`
	Location       string    `gorm:"column:location;type:text;not null"`
	Specifications string    `gorm:"column:specifications;type:text;not null"`
	IsActive       bool      `gorm:"column:is_active;not null;index"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (Machine) TableName() string {
	return "machines"
}
