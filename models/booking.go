package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"
)

// Booking statuses. Pending, Confirmed and Seated count against slot
// capacity; Completed, Cancelled and No-Show are terminal.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusSeated    = "Seated"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
	StatusNoShow    = "No-Show"
)

// ActiveStatuses are the statuses that hold seats.
var ActiveStatuses = []string{StatusPending, StatusConfirmed, StatusSeated}

// DateLayout is the wire and storage form of BookingDate.
const DateLayout = "2006-01-02"

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Booking struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index:idx_user_date_slot" json:"user_id"`
	User            *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	TableID         *uint      `gorm:"index" json:"table_id,omitempty"`
	Table           *Table     `gorm:"foreignKey:TableID;constraint:OnDelete:SET NULL" json:"table,omitempty"`
	TimeSlotID      uint       `gorm:"not null;index:idx_user_date_slot" json:"time_slot_id"`
	TimeSlot        *TimeSlot  `gorm:"foreignKey:TimeSlotID;constraint:OnDelete:RESTRICT" json:"time_slot,omitempty"`
	BookingDate     string     `gorm:"type:varchar(10);not null;index:idx_user_date_slot" json:"booking_date"`
	NumberOfGuests  int        `gorm:"not null" json:"number_of_guests"`
	Status          string     `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	ReferenceNumber string     `gorm:"type:varchar(8);uniqueIndex" json:"reference_number"`
	SpecialRequests string     `gorm:"type:text" json:"special_requests"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

func (b *Booking) String() string {
	return fmt.Sprintf("%s on %s", b.ReferenceNumber, b.BookingDate)
}

// IsTerminal reports whether the booking can no longer change status.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsActive reports whether the booking counts against slot capacity.
func (b *Booking) IsActive() bool {
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusSeated:
		return true
	}
	return false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusSeated,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// BeforeCreate assigns a unique 8-character reference number unless one was
// set by the caller. Collisions are retried; with 36^8 combinations they are
// effectively never hit twice.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ReferenceNumber != "" {
		return nil
	}
	for {
		ref, err := randomReference(8)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&Booking{}).Where("reference_number = ?", ref).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			b.ReferenceNumber = ref
			return nil
		}
	}
}

func randomReference(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referenceAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
