package services

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Guest count bounds per booking.
const (
	MinGuests = 1
	MaxGuests = 8
)

// BookingService owns booking validation, the capacity check and the status
// lifecycle. Every write path runs inside a single database transaction with
// the slot's booking rows locked, so two racing requests cannot both pass
// the capacity check.
type BookingService struct {
	DB              *gorm.DB
	DefaultCapacity int
	// LockWindow is how close to the slot time a booking may still be
	// edited or cancelled by its owner.
	LockWindow time.Duration
	Now        func() time.Time
}

func NewBookingService(db *gorm.DB) *BookingService {
	svc := &BookingService{
		DB:              db,
		DefaultCapacity: DefaultSlotCapacity,
		LockWindow:      2 * time.Hour,
		Now:             time.Now,
	}
	if v, err := strconv.Atoi(os.Getenv("DEFAULT_SLOT_CAPACITY")); err == nil && v > 0 {
		svc.DefaultCapacity = v
	}
	if v, err := strconv.Atoi(os.Getenv("BOOKING_LOCK_HOURS")); err == nil && v >= 0 {
		svc.LockWindow = time.Duration(v) * time.Hour
	}
	return svc
}

// BookingRequest is the inbound booking intent for creates and edits.
type BookingRequest struct {
	UserID          uint
	Date            string
	TimeSlotID      uint
	NumberOfGuests  int
	TableID         *uint
	SpecialRequests string
}

// Create validates the request and persists a new Pending booking. The
// capacity check and the insert share one transaction; a lost race is
// retried once before surfacing ErrConcurrencyConflict.
func (s *BookingService) Create(req BookingRequest) (*models.Booking, error) {
	var booking *models.Booking
	err := s.withRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			b, err := s.createTx(tx, req)
			if err != nil {
				return err
			}
			booking = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Booking %s created: user=%d date=%s slot=%d guests=%d",
		booking.ReferenceNumber, booking.UserID, booking.BookingDate, booking.TimeSlotID, booking.NumberOfGuests)
	return booking, nil
}

func (s *BookingService) createTx(tx *gorm.DB, req BookingRequest) (*models.Booking, error) {
	if err := s.validateDate(req.Date); err != nil {
		return nil, err
	}
	if err := validateGuests(req.NumberOfGuests); err != nil {
		return nil, err
	}

	slot, err := s.activeSlot(tx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}

	if err := lockSlotBookings(tx, slot.ID, req.Date); err != nil {
		return nil, err
	}

	remaining, err := availableCapacityTx(tx, slot, req.Date, 0, s.DefaultCapacity)
	if err != nil {
		return nil, err
	}
	if remaining < req.NumberOfGuests {
		return nil, &CapacityError{Remaining: remaining}
	}

	if err := s.checkDuplicate(tx, req.UserID, req.Date, slot.ID, 0); err != nil {
		return nil, err
	}

	if req.TableID != nil {
		if _, err := s.checkTable(tx, *req.TableID, req.NumberOfGuests); err != nil {
			return nil, err
		}
	}

	booking := &models.Booking{
		UserID:          req.UserID,
		TableID:         req.TableID,
		TimeSlotID:      slot.ID,
		BookingDate:     req.Date,
		NumberOfGuests:  req.NumberOfGuests,
		Status:          models.StatusPending,
		SpecialRequests: req.SpecialRequests,
	}
	if err := tx.Create(booking).Error; err != nil {
		return nil, err
	}
	booking.TimeSlot = slot
	return booking, nil
}

// Update applies date/slot/guest edits to an existing booking, re-running
// the full rule chain. The booking's own prior guest count does not count
// against capacity.
func (s *BookingService) Update(reference string, actor *models.User, req BookingRequest) (*models.Booking, error) {
	var booking *models.Booking
	err := s.withRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			b, err := s.updateTx(tx, reference, actor, req)
			if err != nil {
				return err
			}
			booking = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Booking %s updated by user=%d: date=%s slot=%d guests=%d",
		booking.ReferenceNumber, actor.ID, booking.BookingDate, booking.TimeSlotID, booking.NumberOfGuests)
	return booking, nil
}

func (s *BookingService) updateTx(tx *gorm.DB, reference string, actor *models.User, req BookingRequest) (*models.Booking, error) {
	booking, err := s.lockedBooking(tx, reference)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(booking, actor); err != nil {
		return nil, err
	}

	if err := s.validateDate(req.Date); err != nil {
		return nil, err
	}
	if err := validateGuests(req.NumberOfGuests); err != nil {
		return nil, err
	}

	slot, err := s.activeSlot(tx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}

	if err := lockSlotBookings(tx, slot.ID, req.Date); err != nil {
		return nil, err
	}

	remaining, err := availableCapacityTx(tx, slot, req.Date, booking.ID, s.DefaultCapacity)
	if err != nil {
		return nil, err
	}
	if remaining < req.NumberOfGuests {
		return nil, &CapacityError{Remaining: remaining}
	}

	if err := s.checkDuplicate(tx, booking.UserID, req.Date, slot.ID, booking.ID); err != nil {
		return nil, err
	}

	booking.BookingDate = req.Date
	booking.TimeSlotID = slot.ID
	booking.NumberOfGuests = req.NumberOfGuests
	if req.SpecialRequests != "" {
		booking.SpecialRequests = req.SpecialRequests
	}
	if err := tx.Save(booking).Error; err != nil {
		return nil, err
	}
	booking.TimeSlot = slot
	return booking, nil
}

// Cancel moves the booking to Cancelled through the state machine. Owners
// may cancel their own bookings outside the lock window; staff may cancel
// any non-terminal booking at any time. Bookings are never hard-deleted.
func (s *BookingService) Cancel(reference string, actor *models.User) (*models.Booking, error) {
	var booking *models.Booking
	err := s.withRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			b, err := s.lockedBooking(tx, reference)
			if err != nil {
				return err
			}
			if err := s.checkEditable(b, actor); err != nil {
				return err
			}
			if err := s.transitionTx(tx, b, models.StatusCancelled, actor); err != nil {
				return err
			}
			booking = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// AssignTable sets or changes the table on a booking. Staff only.
func (s *BookingService) AssignTable(reference string, actor *models.User, tableID uint) (*models.Booking, error) {
	if !actor.IsStaff() {
		return nil, &AuthorizationError{Reason: "staff access required"}
	}

	var booking *models.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.lockedBooking(tx, reference)
		if err != nil {
			return err
		}
		if b.IsTerminal() {
			return &ValidationError{Field: "status", Reason: "booking is already " + strings.ToLower(b.Status)}
		}
		table, err := s.checkTable(tx, tableID, b.NumberOfGuests)
		if err != nil {
			return err
		}
		if table.Status == models.TableOccupied {
			return &ValidationError{Field: "table", Reason: "table is currently occupied"}
		}
		b.TableID = &tableID
		if err := tx.Save(b).Error; err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Booking %s assigned table %d by user=%d", booking.ReferenceNumber, tableID, actor.ID)
	return booking, nil
}

// FindByReference loads a booking with its slot and table preloaded.
func (s *BookingService) FindByReference(reference string) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.Preload("TimeSlot").Preload("Table").
		Where("reference_number = ?", reference).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListForUser splits a customer's bookings into upcoming (today onwards,
// cancellations hidden) and past.
func (s *BookingService) ListForUser(userID uint) (upcoming, past []models.Booking, err error) {
	today := s.Now().Format(models.DateLayout)

	err = s.DB.Preload("TimeSlot").Preload("Table").
		Where("user_id = ? AND booking_date >= ? AND status <> ?", userID, today, models.StatusCancelled).
		Order("booking_date asc").Find(&upcoming).Error
	if err != nil {
		return nil, nil, err
	}

	err = s.DB.Preload("TimeSlot").Preload("Table").
		Where("user_id = ? AND booking_date < ?", userID, today).
		Order("booking_date desc").Find(&past).Error
	if err != nil {
		return nil, nil, err
	}
	return upcoming, past, nil
}

// BookingFilter narrows the staff booking list.
type BookingFilter struct {
	Date       string
	Status     string
	TimeSlotID uint
}

func (s *BookingService) List(filter BookingFilter) ([]models.Booking, error) {
	query := s.DB.Preload("User").Preload("TimeSlot").Preload("Table").
		Order("booking_date desc")
	if filter.Date != "" {
		query = query.Where("booking_date = ?", filter.Date)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TimeSlotID != 0 {
		query = query.Where("time_slot_id = ?", filter.TimeSlotID)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// --- validation helpers -------------------------------------------------

func (s *BookingService) validateDate(date string) error {
	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return &ValidationError{Field: "booking_date", Reason: "invalid date, use YYYY-MM-DD"}
	}
	today, _ := time.Parse(models.DateLayout, s.Now().Format(models.DateLayout))
	if parsed.Before(today) {
		return &ValidationError{Field: "booking_date", Reason: "booking date cannot be in the past"}
	}
	return nil
}

func validateGuests(n int) error {
	if n < MinGuests || n > MaxGuests {
		return &ValidationError{Field: "number_of_guests", Reason: "number of guests must be between 1 and 8"}
	}
	return nil
}

func (s *BookingService) activeSlot(tx *gorm.DB, slotID uint) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := tx.First(&slot, slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "time_slot", Reason: "invalid time slot selected"}
		}
		return nil, err
	}
	if !slot.IsActive {
		return nil, &ValidationError{Field: "time_slot", Reason: "this time slot is not taking bookings"}
	}
	return &slot, nil
}

func (s *BookingService) checkDuplicate(tx *gorm.DB, userID uint, date string, slotID, excludeID uint) error {
	query := tx.Model(&models.Booking{}).
		Where("user_id = ? AND booking_date = ? AND time_slot_id = ? AND status IN ?",
			userID, date, slotID, models.ActiveStatuses)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &ValidationError{Field: "booking", Reason: "you already have a booking for this time slot on this date"}
	}
	return nil
}

func (s *BookingService) checkTable(tx *gorm.DB, tableID uint, guests int) (*models.Table, error) {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "table", Reason: "table not found"}
		}
		return nil, err
	}
	if !table.IsAvailable {
		return nil, &ValidationError{Field: "table", Reason: "table is not available for bookings"}
	}
	if table.Capacity < guests {
		return nil, &ValidationError{Field: "table", Reason: "table is too small for the party size"}
	}
	return &table, nil
}

// checkEditable enforces ownership, the lock window and terminal-status
// rules for customer edits and cancellations. Staff bypass ownership and
// the lock window but never terminal status.
func (s *BookingService) checkEditable(booking *models.Booking, actor *models.User) error {
	if booking.UserID != actor.ID && !actor.IsStaff() {
		return &AuthorizationError{Reason: "this booking belongs to another customer"}
	}
	if booking.IsTerminal() {
		return &ValidationError{Field: "status", Reason: "booking is already " + strings.ToLower(booking.Status)}
	}
	if !actor.IsStaff() {
		if locked, err := s.insideLockWindow(booking); err != nil {
			return err
		} else if locked {
			hours := int(s.LockWindow / time.Hour)
			return &ValidationError{Field: "booking", Reason: "bookings cannot be changed within " + strconv.Itoa(hours) + " hours of the reservation time"}
		}
	}
	return nil
}

func (s *BookingService) insideLockWindow(booking *models.Booking) (bool, error) {
	slot := booking.TimeSlot
	if slot == nil {
		slot = &models.TimeSlot{}
		if err := s.DB.First(slot, booking.TimeSlotID).Error; err != nil {
			return false, err
		}
		booking.TimeSlot = slot
	}
	slotTime, err := models.ParseSlotTime(slot.Time)
	if err != nil {
		return false, err
	}
	date, err := time.Parse(models.DateLayout, booking.BookingDate)
	if err != nil {
		return false, err
	}
	reservation := time.Date(date.Year(), date.Month(), date.Day(),
		slotTime.Hour(), slotTime.Minute(), 0, 0, time.Local)
	return s.Now().After(reservation.Add(-s.LockWindow)), nil
}

func (s *BookingService) lockedBooking(tx *gorm.DB, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := withUpdateLock(tx).
		Preload("TimeSlot").Preload("Table").
		Where("reference_number = ?", reference).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// lockSlotBookings takes row locks on the active bookings of a (slot, date)
// so the following capacity sum and insert are serialized against other
// writers of the same slot.
func lockSlotBookings(tx *gorm.DB, slotID uint, date string) error {
	var rows []models.Booking
	return withUpdateLock(tx).
		Where("time_slot_id = ? AND booking_date = ? AND status IN ?", slotID, date, models.ActiveStatuses).
		Find(&rows).Error
}

// withUpdateLock adds SELECT ... FOR UPDATE where the dialect has it.
// sqlite has no row locks; its single-writer transactions give the same
// guarantee.
func withUpdateLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// withRetry runs fn once more if the first attempt hit a conflict the
// database could not serialize (deadlock, duplicate reference, busy lock).
func (s *BookingService) withRetry(fn func() error) error {
	err := fn()
	if err == nil || !isRetryable(err) {
		return err
	}
	utils.InfoLogger.Printf("Booking write lost a race, retrying once: %v", err)
	if err = fn(); err == nil {
		return nil
	}
	if isRetryable(err) {
		return ErrConcurrencyConflict
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout") ||
		// sqlite reports "database is locked" (busy) or "database table is
		// locked" (shared cache).
		strings.Contains(msg, "is locked") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint")
}
