package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
)

type TimeSlotController struct {
	DB *gorm.DB
}

func NewTimeSlotController(db *gorm.DB) *TimeSlotController {
	return &TimeSlotController{DB: db}
}

func (sc *TimeSlotController) CreateTimeSlot(c *gin.Context) {
	var req struct {
		Time        string `json:"time" binding:"required"`
		MaxCapacity *int   `json:"max_capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := models.ParseSlotTime(req.Time); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("time must be in HH:MM 24-hour format"))
		return
	}
	if req.MaxCapacity != nil && *req.MaxCapacity < 1 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("max_capacity must be at least 1"))
		return
	}

	slot := models.TimeSlot{
		Time:        req.Time,
		MaxCapacity: req.MaxCapacity,
		IsActive:    true,
	}
	if err := sc.DB.Create(&slot).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, http.StatusConflict, errors.New("a time slot at this time already exists"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Time slot created: %s", slot.Time)
	utils.RespondJSON(c, http.StatusCreated, "Time slot created", slot)
}

func (sc *TimeSlotController) GetAllTimeSlots(c *gin.Context) {
	query := sc.DB.Order("time asc")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var slots []models.TimeSlot
	if err := query.Find(&slots).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of time slots", slots)
}

func (sc *TimeSlotController) UpdateTimeSlot(c *gin.Context) {
	var req struct {
		Time        *string `json:"time"`
		MaxCapacity *int    `json:"max_capacity"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var slot models.TimeSlot
	if err := sc.DB.First(&slot, c.Param("slot_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.Time != nil {
		if _, err := models.ParseSlotTime(*req.Time); err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("time must be in HH:MM 24-hour format"))
			return
		}
		slot.Time = *req.Time
	}
	if req.MaxCapacity != nil {
		if *req.MaxCapacity < 1 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("max_capacity must be at least 1"))
			return
		}
		slot.MaxCapacity = req.MaxCapacity
	}
	if req.IsActive != nil {
		slot.IsActive = *req.IsActive
	}

	if err := sc.DB.Save(&slot).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Time slot %d updated (time=%s, active=%t)", slot.ID, slot.Time, slot.IsActive)
	utils.RespondJSON(c, http.StatusOK, "Time slot updated", slot)
}

// DeleteTimeSlot refuses to remove a slot that bookings still reference;
// deactivate it instead.
func (sc *TimeSlotController) DeleteTimeSlot(c *gin.Context) {
	var slot models.TimeSlot
	if err := sc.DB.First(&slot, c.Param("slot_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var count int64
	if err := sc.DB.Model(&models.Booking{}).Where("time_slot_id = ?", slot.ID).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusConflict,
			errors.New("time slot has bookings and cannot be deleted; deactivate it instead"))
		return
	}

	if err := sc.DB.Delete(&slot).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Time slot %d deleted", slot.ID)
	utils.RespondJSON(c, http.StatusOK, "Time slot deleted", gin.H{"id": slot.ID})
}
