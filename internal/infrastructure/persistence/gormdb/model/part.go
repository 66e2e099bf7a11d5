package model

import "time"

type Part struct {
	ID          string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null"`
	PartNumber  string    `gorm:"column:part_number;type:text;not null;index"`
	Description string    `gorm:"column:description;type:text;not null"`
	Quantity    int       `gorm:"column:quantity;not null"`
	MinQuantity int       `gorm:"column:min_quantity;not null"`
	Location    string    `gorm:"column:location;type:text;not null"`
	MachineID   *string   `gorm:"column:machine_id;type:varchar(36);index"`
	Machine     *Machine  `gorm:"foreignKey:MachineID;references:ID;constraint:OnDelete:SET NULL"`
	IsActive    bool      `gorm:"column:is_active;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (Part) TableName() string {
	return "parts"
}
