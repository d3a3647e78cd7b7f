package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/services"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
)

type BookingController struct {
	DB      *gorm.DB
	Service *services.BookingService
}

func NewBookingController(db *gorm.DB) *BookingController {
	return &BookingController{DB: db, Service: services.NewBookingService(db)}
}

type bookingRequest struct {
	BookingDate     string `json:"booking_date" binding:"required"`
	TimeSlotID      uint   `json:"time_slot_id" binding:"required"`
	NumberOfGuests  int    `json:"number_of_guests" binding:"required"`
	TableID         *uint  `json:"table_id"`
	SpecialRequests string `json:"special_requests"`
}

// CreateBooking places a new reservation for the logged-in customer.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	actor := currentUser(c)

	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Service.Create(services.BookingRequest{
		UserID:          actor.ID,
		Date:            req.BookingDate,
		TimeSlotID:      req.TimeSlotID,
		NumberOfGuests:  req.NumberOfGuests,
		TableID:         req.TableID,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated,
		"Booking confirmed! Your reference number is "+booking.ReferenceNumber, booking)
}

// GetMyBookings returns the customer's upcoming and past bookings.
func (bc *BookingController) GetMyBookings(c *gin.Context) {
	actor := currentUser(c)

	upcoming, past, err := bc.Service.ListForUser(actor.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Your bookings", gin.H{
		"upcoming": upcoming,
		"past":     past,
	})
}

// GetBookingByReference shows one booking. Customers only see their own.
func (bc *BookingController) GetBookingByReference(c *gin.Context) {
	actor := currentUser(c)
	reference := c.Param("reference")

	booking, err := bc.Service.FindByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("booking not found"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if booking.UserID != actor.ID && !actor.IsStaff() {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking detail", booking)
}

// UpdateBooking edits date, slot or party size within the eligibility rules.
func (bc *BookingController) UpdateBooking(c *gin.Context) {
	actor := currentUser(c)
	reference := c.Param("reference")

	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Service.Update(reference, actor, services.BookingRequest{
		Date:            req.BookingDate,
		TimeSlotID:      req.TimeSlotID,
		NumberOfGuests:  req.NumberOfGuests,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking updated", booking)
}

// CancelBooking is a status change, never a delete.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	actor := currentUser(c)
	reference := c.Param("reference")

	booking, err := bc.Service.Cancel(reference, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled", booking)
}

// CheckAvailability answers the booking form's live capacity query.
func (bc *BookingController) CheckAvailability(c *gin.Context) {
	date := c.Query("booking_date")
	slotID, _ := strconv.Atoi(c.Query("timeslot_id"))
	guests, _ := strconv.Atoi(c.Query("number_of_guests"))

	if date == "" || slotID == 0 || guests == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("booking_date, timeslot_id and number_of_guests are required"))
		return
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid date format, use YYYY-MM-DD"))
		return
	}
	// Same local-date comparison the booking validator uses; YYYY-MM-DD
	// compares correctly as a string.
	if date < bc.Service.Now().Format(models.DateLayout) {
		utils.RespondJSON(c, http.StatusOK, "Cannot book tables for past dates", gin.H{
			"available": false,
		})
		return
	}

	var slot models.TimeSlot
	if err := bc.DB.First(&slot, slotID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("invalid time slot selected"))
		return
	}

	remaining, err := bc.Service.AvailableCapacity(&slot, date)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if remaining >= guests {
		utils.RespondJSON(c, http.StatusOK, "Table available", gin.H{
			"available":          true,
			"capacity_remaining": remaining,
		})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Not enough availability for this time slot", gin.H{
		"available":          false,
		"capacity_remaining": remaining,
	})
}

// GetTimeSlots lists active slots with remaining capacity for a date, for
// the booking calendar.
func (bc *BookingController) GetTimeSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("date parameter required"))
		return
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid date format, use YYYY-MM-DD"))
		return
	}

	slots, err := bc.Service.SlotAvailabilityForDate(date)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Time slots", gin.H{"timeslots": slots})
}

// GetAllBookings is the staff booking list with optional filters.
func (bc *BookingController) GetAllBookings(c *gin.Context) {
	slotID, _ := strconv.Atoi(c.Query("timeslot_id"))
	bookings, err := bc.Service.List(services.BookingFilter{
		Date:       c.Query("date"),
		Status:     c.Query("status"),
		TimeSlotID: uint(slotID),
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bookings", bookings)
}

// UpdateBookingStatus drives the staff lifecycle: confirm, seat, complete,
// no-show, cancel.
func (bc *BookingController) UpdateBookingStatus(c *gin.Context) {
	actor := currentUser(c)
	reference := c.Param("reference")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Service.Transition(reference, req.Status, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking status updated", booking)
}

// AssignBookingTable lets staff pick the physical table.
func (bc *BookingController) AssignBookingTable(c *gin.Context) {
	actor := currentUser(c)
	reference := c.Param("reference")

	var req struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Service.AssignTable(reference, actor, req.TableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table assigned", booking)
}
