package services

import (
	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
)

// statusTransitions is the booking lifecycle: strict forward progression
// Pending -> Confirmed -> Seated -> Completed, with Cancelled and No-Show
// reachable from any non-terminal state. Terminal states have no exits.
var statusTransitions = map[string][]string{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled, models.StatusNoShow},
	models.StatusConfirmed: {models.StatusSeated, models.StatusCancelled, models.StatusNoShow},
	models.StatusSeated:    {models.StatusCompleted, models.StatusCancelled, models.StatusNoShow},
}

// CanTransition reports whether a booking may move from one status to
// another. Reverse moves and exits from terminal states are never allowed.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves a booking to the requested status. Staff only for
// anything other than cancellation (customers cancel through Cancel, which
// applies ownership and lock-window rules first). The transition and its
// table side effect commit atomically; on failure the booking is unchanged.
func (s *BookingService) Transition(reference, requested string, actor *models.User) (*models.Booking, error) {
	if !actor.IsStaff() {
		return nil, &AuthorizationError{Reason: "staff access required"}
	}
	if !models.ValidStatus(requested) {
		return nil, &ValidationError{Field: "status", Reason: "unknown booking status"}
	}

	var booking *models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.lockedBooking(tx, reference)
		if err != nil {
			return err
		}
		if err := s.transitionTx(tx, b, requested, actor); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// transitionTx applies the status change plus its table-occupancy side
// effect inside the caller's transaction. Seating a booking marks its table
// occupied; leaving Seated releases the table again, but only if this
// booking was the one holding it.
func (s *BookingService) transitionTx(tx *gorm.DB, booking *models.Booking, requested string, actor *models.User) error {
	from := booking.Status
	if !CanTransition(from, requested) {
		return &StateTransitionError{From: from, To: requested}
	}

	booking.Status = requested
	if requested == models.StatusCancelled {
		now := s.Now()
		booking.CancelledAt = &now
	}

	if booking.TableID != nil {
		if requested == models.StatusSeated {
			if err := tx.Model(&models.Table{}).Where("id = ?", *booking.TableID).
				Update("status", models.TableOccupied).Error; err != nil {
				return err
			}
		} else if from == models.StatusSeated {
			// Only release if no other seated booking still holds the table.
			var othersSeated int64
			if err := tx.Model(&models.Booking{}).
				Where("table_id = ? AND status = ? AND id <> ?",
					*booking.TableID, models.StatusSeated, booking.ID).
				Count(&othersSeated).Error; err != nil {
				return err
			}
			if othersSeated == 0 {
				if err := tx.Model(&models.Table{}).
					Where("id = ? AND status = ?", *booking.TableID, models.TableOccupied).
					Update("status", models.TableAvailable).Error; err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Save(booking).Error; err != nil {
		return err
	}

	utils.InfoLogger.Printf("Booking %s: %s -> %s by user=%d (%s)",
		booking.ReferenceNumber, from, requested, actor.ID, actor.Role)
	return nil
}
