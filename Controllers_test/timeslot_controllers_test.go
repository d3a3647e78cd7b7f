package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/robertopires/portuguese-kitchen/controllers"
	"github.com/robertopires/portuguese-kitchen/models"
)

func setupTimeSlotRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	slotCtrl := controllers.NewTimeSlotController(db)
	router.GET("/timeslots", slotCtrl.GetAllTimeSlots)
	router.POST("/timeslots", slotCtrl.CreateTimeSlot)
	router.PATCH("/timeslots/:slot_id", slotCtrl.UpdateTimeSlot)
	router.DELETE("/timeslots/:slot_id", slotCtrl.DeleteTimeSlot)
	return router
}

func TestCreateTimeSlot(t *testing.T) {
	db := setupTestDB(t)
	router := setupTimeSlotRouter(db)

	w := performJSON(t, router, "POST", "/timeslots", map[string]interface{}{
		"time":         "19:00",
		"max_capacity": 30,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Not a valid time of day.
	w = performJSON(t, router, "POST", "/timeslots", map[string]interface{}{
		"time": "25:99",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTimeSlotProtectedByBookings(t *testing.T) {
	db := setupTestDB(t)
	router := setupTimeSlotRouter(db)

	user := &models.User{Name: "Maria", Email: "maria@pk.test", Password: "x", Role: models.RoleCustomer}
	db.Create(user)
	slot := &models.TimeSlot{Time: "19:00", IsActive: true}
	db.Create(slot)
	db.Create(&models.Booking{UserID: user.ID, TimeSlotID: slot.ID, BookingDate: "2025-06-01",
		NumberOfGuests: 2, Status: models.StatusConfirmed, ReferenceNumber: "PROTECTS"})

	// Referenced slots cannot be deleted.
	w := performJSON(t, router, "DELETE", fmt.Sprintf("/timeslots/%d", slot.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	db.Model(&models.TimeSlot{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// Deactivating is the supported way to retire a slot.
	w = performJSON(t, router, "PATCH", fmt.Sprintf("/timeslots/%d", slot.ID), map[string]interface{}{
		"is_active": false,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// An unreferenced slot deletes fine.
	empty := &models.TimeSlot{Time: "21:00", IsActive: true}
	db.Create(empty)
	w = performJSON(t, router, "DELETE", fmt.Sprintf("/timeslots/%d", empty.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
