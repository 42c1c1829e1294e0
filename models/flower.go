package models

import "time"

type Flower struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Name    string  `gorm:"size:100;not null" json:"name"`
	Price   float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	InStock int     `gorm:"not null;default:0" json:"in_stock"`
	// No default tag here: gorm skips zero-valued fields that carry one, so
	// inserting false would silently store the column default instead.
	IsAvailable bool      `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
