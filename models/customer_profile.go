package models

import "time"

type CustomerProfile struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	DietaryRequirements *string   `gorm:"type:text" json:"dietary_requirements,omitempty"`
	SpecialRequests     *string   `gorm:"type:text" json:"special_requests,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
