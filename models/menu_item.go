package models

import "time"

type MenuItem struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CategoryID  uint         `gorm:"not null" json:"category_id"`
	Category    MenuCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"category"`
	Name        string       `gorm:"type:varchar(200);not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Price       float64      `gorm:"type:decimal(5,2);not null" json:"price"`
	// No default tag: GORM would skip a zero-valued bool on insert and the
	// column default would overwrite an explicit false.
	IsAvailable bool         `gorm:"not null" json:"is_available"`
	ImageUrl    *string      `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	DietaryTags []DietaryTag `gorm:"many2many:menu_item_dietary_tags" json:"dietary_tags"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
