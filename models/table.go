package models

import "time"

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
)

// Location choices for a table. Kept as a closed set so staff screens can
// filter on them.
var TableLocations = []string{"Window", "Corner", "Centre", "Private"}

type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TableNumber int       `gorm:"uniqueIndex;not null" json:"table_number"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	Location    string    `gorm:"type:varchar(20);not null;default:'Centre'" json:"location"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`
	Status      string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ValidTableLocation(loc string) bool {
	for _, l := range TableLocations {
		if l == loc {
			return true
		}
	}
	return false
}
