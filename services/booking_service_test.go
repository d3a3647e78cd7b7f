package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/utils"
)

// setupServiceDB builds an isolated in-memory database with the booking
// schema migrated. The DSN is keyed by test name so parallel tests never
// share state.
func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.CustomerProfile{},
		&models.Table{}, &models.TimeSlot{}, &models.Booking{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *BookingService {
	t.Helper()
	utils.InitLogger()
	return &BookingService{
		DB:              db,
		DefaultCapacity: DefaultSlotCapacity,
		LockWindow:      2 * time.Hour,
		// Fixed clock keeps date arithmetic stable regardless of when the
		// tests run.
		Now: func() time.Time {
			return time.Date(2025, 5, 20, 10, 0, 0, 0, time.Local)
		},
	}
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test Customer", Email: email, Password: "x", Role: models.RoleCustomer}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedStaff(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{Name: "Front of House", Email: "staff@pk.test", Password: "x", Role: models.RoleStaff}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed staff: %v", err)
	}
	return user
}

func seedSlot(t *testing.T, db *gorm.DB, timeOfDay string, maxCapacity *int) *models.TimeSlot {
	t.Helper()
	slot := &models.TimeSlot{Time: timeOfDay, MaxCapacity: maxCapacity, IsActive: true}
	if err := db.Create(slot).Error; err != nil {
		t.Fatalf("failed to seed slot: %v", err)
	}
	return slot
}

func intPtr(v int) *int { return &v }

func TestCreateBookingAtExactCapacity(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", intPtr(8))
	userA := seedCustomer(t, db, "a@pk.test")
	userB := seedCustomer(t, db, "b@pk.test")
	userC := seedCustomer(t, db, "c@pk.test")

	// Two confirmed bookings of 4 and 3 guests on 2025-06-01.
	db.Create(&models.Booking{UserID: userA.ID, TimeSlotID: slot.ID, BookingDate: "2025-06-01",
		NumberOfGuests: 4, Status: models.StatusConfirmed})
	db.Create(&models.Booking{UserID: userB.ID, TimeSlotID: slot.ID, BookingDate: "2025-06-01",
		NumberOfGuests: 3, Status: models.StatusConfirmed})

	// 4+3+2 = 9 > 8: rejected.
	_, err := svc.Create(BookingRequest{UserID: userC.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 2})
	var capErr *CapacityError
	assert.ErrorAs(t, err, &capErr)
	assert.Equal(t, 1, capErr.Remaining)

	// 4+3+1 = 8: exactly at capacity, accepted.
	booking, err := svc.Create(BookingRequest{UserID: userC.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 1})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Len(t, booking.ReferenceNumber, 8)
}

func TestCreateBookingPastDateRejected(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", nil)
	user := seedCustomer(t, db, "a@pk.test")

	_, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-05-19", TimeSlotID: slot.ID, NumberOfGuests: 2})
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Equal(t, "booking_date", valErr.Field)

	// Today is fine.
	_, err = svc.Create(BookingRequest{UserID: user.ID, Date: "2025-05-20", TimeSlotID: slot.ID, NumberOfGuests: 2})
	assert.NoError(t, err)
}

func TestCreateBookingGuestBounds(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", nil)
	user := seedCustomer(t, db, "a@pk.test")

	for _, guests := range []int{0, -1, 9, 20} {
		_, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: guests})
		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr, "guests=%d", guests)
		assert.Equal(t, "number_of_guests", valErr.Field)
	}
}

func TestCreateBookingInactiveSlotRejected(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", nil)
	db.Model(slot).Update("is_active", false)
	user := seedCustomer(t, db, "a@pk.test")

	_, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 2})
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Equal(t, "time_slot", valErr.Field)
}

func TestCreateBookingDuplicateRejected(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", nil)
	user := seedCustomer(t, db, "a@pk.test")

	_, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 2})
	assert.NoError(t, err)

	_, err = svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 2})
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestRebookAfterCancellationAllowed(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", nil)
	user := seedCustomer(t, db, "a@pk.test")

	booking, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 2})
	assert.NoError(t, err)

	_, err = svc.Cancel(booking.ReferenceNumber, user)
	assert.NoError(t, err)

	// Cancelled bookings no longer block the (user, date, slot) tuple.
	_, err = svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 2})
	assert.NoError(t, err)
}

func TestUpdateExcludesOwnGuests(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", intPtr(8))
	user := seedCustomer(t, db, "a@pk.test")
	other := seedCustomer(t, db, "b@pk.test")

	db.Create(&models.Booking{UserID: other.ID, TimeSlotID: slot.ID, BookingDate: "2025-06-01",
		NumberOfGuests: 4, Status: models.StatusConfirmed})

	booking, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 3})
	assert.NoError(t, err)

	// Growing from 3 to 4 fits because the booking's own 3 guests are
	// excluded from the sum: 4 (other) + 4 (new) = 8.
	updated, err := svc.Update(booking.ReferenceNumber, user, BookingRequest{
		Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 4,
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, updated.NumberOfGuests)

	// Growing to 5 would overshoot: 4 + 5 = 9 > 8.
	_, err = svc.Update(booking.ReferenceNumber, user, BookingRequest{
		Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 5,
	})
	var capErr *CapacityError
	assert.ErrorAs(t, err, &capErr)
}

func TestCancelOtherUsersBookingForbidden(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", nil)
	owner := seedCustomer(t, db, "owner@pk.test")
	intruder := seedCustomer(t, db, "intruder@pk.test")

	booking, err := svc.Create(BookingRequest{UserID: owner.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 2})
	assert.NoError(t, err)

	_, err = svc.Cancel(booking.ReferenceNumber, intruder)
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)

	// Status unchanged.
	var reloaded models.Booking
	db.First(&reloaded, booking.ID)
	assert.Equal(t, models.StatusPending, reloaded.Status)

	// Staff may cancel anyone's booking.
	staff := seedStaff(t, db)
	cancelled, err := svc.Cancel(booking.ReferenceNumber, staff)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
}

func TestLockWindowBlocksCustomerEdits(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "11:00", nil)
	user := seedCustomer(t, db, "a@pk.test")

	// Booking for today at 11:00; the clock reads 10:00 and the lock
	// window is 2 hours, so the booking is already locked.
	booking, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-05-20", TimeSlotID: slot.ID, NumberOfGuests: 2})
	assert.NoError(t, err)

	_, err = svc.Cancel(booking.ReferenceNumber, user)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)

	// Staff are not bound by the lock window.
	staff := seedStaff(t, db)
	_, err = svc.Cancel(booking.ReferenceNumber, staff)
	assert.NoError(t, err)
}

func TestCancellationRestoresCapacity(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", intPtr(8))
	user := seedCustomer(t, db, "a@pk.test")

	booking, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 5})
	assert.NoError(t, err)

	remaining, err := svc.AvailableCapacity(slot, "2025-06-01")
	assert.NoError(t, err)
	assert.Equal(t, 3, remaining)

	_, err = svc.Cancel(booking.ReferenceNumber, user)
	assert.NoError(t, err)

	remaining, err = svc.AvailableCapacity(slot, "2025-06-01")
	assert.NoError(t, err)
	assert.Equal(t, 8, remaining)
}

func TestAssignTableChecksFit(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", nil)
	user := seedCustomer(t, db, "a@pk.test")
	staff := seedStaff(t, db)

	small := &models.Table{TableNumber: 1, Capacity: 2, Location: "Window", IsAvailable: true, Status: models.TableAvailable}
	big := &models.Table{TableNumber: 2, Capacity: 6, Location: "Centre", IsAvailable: true, Status: models.TableAvailable}
	db.Create(small)
	db.Create(big)

	booking, err := svc.Create(BookingRequest{UserID: user.ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 4})
	assert.NoError(t, err)

	// Customers cannot assign tables.
	_, err = svc.AssignTable(booking.ReferenceNumber, user, big.ID)
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)

	// A two-seater cannot take a party of four.
	_, err = svc.AssignTable(booking.ReferenceNumber, staff, small.ID)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)

	assigned, err := svc.AssignTable(booking.ReferenceNumber, staff, big.ID)
	assert.NoError(t, err)
	assert.NotNil(t, assigned.TableID)
	assert.Equal(t, big.ID, *assigned.TableID)
}

func TestListForUserSplitsUpcomingAndPast(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", nil)
	user := seedCustomer(t, db, "a@pk.test")

	db.Create(&models.Booking{UserID: user.ID, TimeSlotID: slot.ID, BookingDate: "2025-05-01",
		NumberOfGuests: 2, Status: models.StatusCompleted, ReferenceNumber: "PAST0001"})
	db.Create(&models.Booking{UserID: user.ID, TimeSlotID: slot.ID, BookingDate: "2025-06-01",
		NumberOfGuests: 2, Status: models.StatusPending, ReferenceNumber: "UPCM0001"})
	db.Create(&models.Booking{UserID: user.ID, TimeSlotID: slot.ID, BookingDate: "2025-06-02",
		NumberOfGuests: 2, Status: models.StatusCancelled, ReferenceNumber: "CANC0001"})

	upcoming, past, err := svc.ListForUser(user.ID)
	assert.NoError(t, err)
	assert.Len(t, upcoming, 1)
	assert.Equal(t, "UPCM0001", upcoming[0].ReferenceNumber)
	assert.Len(t, past, 1)
	assert.Equal(t, "PAST0001", past[0].ReferenceNumber)
}

func TestWithRetryRecoversFromOneLostRace(t *testing.T) {
	svc := newTestService(t, nil)

	calls := 0
	err := svc.withRetry(func() error {
		calls++
		if calls == 1 {
			return errors.New("Error 1213: Deadlock found when trying to get lock")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetrySurfacesConcurrencyConflict(t *testing.T) {
	svc := newTestService(t, nil)

	calls := 0
	err := svc.withRetry(func() error {
		calls++
		return gorm.ErrDuplicatedKey
	})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 2, calls)
}

func TestWithRetryPassesThroughOtherErrors(t *testing.T) {
	svc := newTestService(t, nil)

	boom := errors.New("no such table: bookings")
	calls := 0
	err := svc.withRetry(func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		gorm.ErrDuplicatedKey,
		errors.New("Error 1213: Deadlock found when trying to get lock"),
		errors.New("Error 1205: Lock wait timeout exceeded"),
		errors.New("database is locked"),
		errors.New("database table is locked: bookings"),
		errors.New("UNIQUE constraint failed: bookings.reference_number"),
	}
	for _, err := range retryable {
		assert.True(t, isRetryable(err), "%v should be retryable", err)
	}

	assert.False(t, isRetryable(errors.New("no such table: bookings")))
	assert.False(t, isRetryable(gorm.ErrRecordNotFound))
}

// Racing create requests for one slot must never book past its capacity:
// each loser sees either a capacity rejection or a concurrency conflict.
func TestConcurrentCreatesNeverExceedCapacity(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestService(t, db)
	slot := seedSlot(t, db, "19:00", intPtr(8))

	const workers = 6
	users := make([]*models.User, workers)
	for i := range users {
		users[i] = seedCustomer(t, db, fmt.Sprintf("c%d@pk.test", i))
	}

	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Create(BookingRequest{
				UserID: users[i].ID, Date: "2025-06-01", TimeSlotID: slot.ID, NumberOfGuests: 3,
			})
		}(i)
	}
	wg.Wait()

	booked := 0
	for _, err := range results {
		if err == nil {
			booked++
			continue
		}
		var capErr *CapacityError
		ok := errors.As(err, &capErr) || errors.Is(err, ErrConcurrencyConflict)
		assert.True(t, ok, "unexpected error: %v", err)
	}
	// 3 guests each against capacity 8: at most two can win.
	assert.LessOrEqual(t, booked, 2)

	var total *int
	err := db.Model(&models.Booking{}).
		Where("time_slot_id = ? AND booking_date = ? AND status IN ?", slot.ID, "2025-06-01", models.ActiveStatuses).
		Select("SUM(number_of_guests)").Scan(&total).Error
	assert.NoError(t, err)
	if total != nil {
		assert.LessOrEqual(t, *total, 8)
	}
}
