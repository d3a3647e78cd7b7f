package services

import (
	"github.com/robertopires/portuguese-kitchen/models"
	"gorm.io/gorm"
)

// DefaultSlotCapacity is used when a time slot has no max_capacity of its
// own. Matches the dining room's full cover count.
const DefaultSlotCapacity = 40

// SlotAvailability is the read model returned to the booking calendar.
type SlotAvailability struct {
	ID                uint   `json:"id"`
	Time              string `json:"time"`
	AvailableCapacity int    `json:"available_capacity"`
	IsAvailable       bool   `json:"is_available"`
}

// AvailableCapacity reports how many additional guests the slot can take on
// the given date. Only active bookings (Pending, Confirmed, Seated) hold
// seats. An inactive slot has zero availability regardless of the capacity
// arithmetic. Pure read, no side effects.
func (s *BookingService) AvailableCapacity(slot *models.TimeSlot, date string) (int, error) {
	return availableCapacityTx(s.DB, slot, date, 0, s.DefaultCapacity)
}

// SlotAvailabilityForDate lists every active slot with its remaining
// capacity, ordered by time of day.
func (s *BookingService) SlotAvailabilityForDate(date string) ([]SlotAvailability, error) {
	var slots []models.TimeSlot
	if err := s.DB.Where("is_active = ?", true).Order("time asc").Find(&slots).Error; err != nil {
		return nil, err
	}

	out := make([]SlotAvailability, 0, len(slots))
	for i := range slots {
		remaining, err := availableCapacityTx(s.DB, &slots[i], date, 0, s.DefaultCapacity)
		if err != nil {
			return nil, err
		}
		out = append(out, SlotAvailability{
			ID:                slots[i].ID,
			Time:              slots[i].Time,
			AvailableCapacity: remaining,
			IsAvailable:       remaining > 0,
		})
	}
	return out, nil
}

// availableCapacityTx is the shared capacity computation. excludeBookingID
// removes a booking's own prior guests from the sum when it is being edited.
// When called with a transaction handle the caller is expected to have
// locked the slot's booking rows already.
func availableCapacityTx(tx *gorm.DB, slot *models.TimeSlot, date string, excludeBookingID uint, defaultCapacity int) (int, error) {
	if !slot.IsActive {
		return 0, nil
	}

	booked, err := activeGuestTotal(tx, slot.ID, date, excludeBookingID)
	if err != nil {
		return 0, err
	}

	capacity := defaultCapacity
	if slot.MaxCapacity != nil {
		capacity = *slot.MaxCapacity
	}

	remaining := capacity - booked
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func activeGuestTotal(tx *gorm.DB, slotID uint, date string, excludeBookingID uint) (int, error) {
	query := tx.Model(&models.Booking{}).
		Where("time_slot_id = ? AND booking_date = ? AND status IN ?", slotID, date, models.ActiveStatuses)
	if excludeBookingID != 0 {
		query = query.Where("id <> ?", excludeBookingID)
	}

	var total *int
	if err := query.Select("SUM(number_of_guests)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
