package models

import "time"

const MaterialTable = "lab_materials"

// Material is one loanable inventory item. Available counts units
// currently loanable; 0 <= Available <= Quantity, checked on every
// upsert.
type Material struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Category    string `gorm:"size:120;index" json:"category"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Quantity    int    `gorm:"not null;default:0" json:"quantity"`
	Available   int    `gorm:"not null;default:0" json:"available"`
	Location    string `gorm:"size:200" json:"location,omitempty"`
	ImageURL    string `gorm:"size:500" json:"imageUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Material) TableName() string { return MaterialTable }
