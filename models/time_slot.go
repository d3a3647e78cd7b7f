package models

import "time"

// TimeSlot is a recurring time of day (no date component). The same slot row
// serves every calendar date; capacity is tracked per (slot, date) by the
// availability service.
type TimeSlot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Time        string    `gorm:"type:varchar(5);not null;uniqueIndex" json:"time"` // "HH:MM", 24-hour
	MaxCapacity *int      `json:"max_capacity,omitempty"`                           // nil -> configured default
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ParseSlotTime validates the "HH:MM" form used by Time.
func ParseSlotTime(value string) (time.Time, error) {
	return time.Parse("15:04", value)
}
