package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// CreateTable adds a table to the restaurant layout.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber int    `json:"table_number" binding:"required"`
		Capacity    int    `json:"capacity" binding:"required"`
		Location    string `json:"location"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Capacity < 1 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("capacity must be at least 1"))
		return
	}

	table := models.Table{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Location:    "Centre",
		IsAvailable: true,
		Status:      models.TableAvailable,
		Description: req.Description,
	}
	if req.Location != "" {
		if !models.ValidTableLocation(req.Location) {
			utils.RespondError(c, http.StatusBadRequest, errors.New("location must be Window, Corner, Centre or Private"))
			return
		}
		table.Location = req.Location
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, http.StatusConflict, errors.New("a table with this number already exists"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %d (capacity=%d, location=%s)", table.TableNumber, table.Capacity, table.Location)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

func (tc *TableController) GetAllTables(c *gin.Context) {
	query := tc.DB.Order("table_number asc")
	if loc := c.Query("location"); loc != "" {
		query = query.Where("location = ?", loc)
	}
	if c.Query("available") == "true" {
		query = query.Where("is_available = ? AND status = ?", true, models.TableAvailable)
	}

	var tables []models.Table
	if err := query.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTableByID(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTable edits capacity, location or the availability flag. Flipping
// is_available off is the soft-delete: the table stops taking bookings but
// keeps its history.
func (tc *TableController) UpdateTable(c *gin.Context) {
	var req struct {
		Capacity    *int    `json:"capacity"`
		Location    *string `json:"location"`
		IsAvailable *bool   `json:"is_available"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.Capacity != nil {
		if *req.Capacity < 1 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("capacity must be at least 1"))
			return
		}
		table.Capacity = *req.Capacity
	}
	if req.Location != nil {
		if !models.ValidTableLocation(*req.Location) {
			utils.RespondError(c, http.StatusBadRequest, errors.New("location must be Window, Corner, Centre or Private"))
			return
		}
		table.Location = *req.Location
	}
	if req.IsAvailable != nil {
		table.IsAvailable = *req.IsAvailable
	}
	if req.Description != nil {
		table.Description = *req.Description
	}

	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d updated", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable removes a table. Bookings that referenced it keep their
// history with the table reference nulled out.
func (tc *TableController) DeleteTable(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Booking{}).
			Where("table_id = ?", table.ID).
			Update("table_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&table).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d deleted", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}
