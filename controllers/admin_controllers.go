package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/services"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
)

type AdminController struct {
	DB      *gorm.DB
	Service *services.BookingService
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db, Service: services.NewBookingService(db)}
}

// GetDashboardStats returns the staff dashboard aggregates for one date
// (today by default).
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid date format, use YYYY-MM-DD"))
		return
	}

	stats, err := ac.Service.DashboardStatsForDate(date)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// ExportBookingsPDF renders the day's booking sheet as a PDF for front of
// house.
func (ac *AdminController) ExportBookingsPDF(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid date format, use YYYY-MM-DD"))
		return
	}

	bookings, err := ac.Service.List(services.BookingFilter{Date: date})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Portuguese Kitchen - Bookings for "+date)
	pdf.Ln(14)

	pdf.SetFont("Arial", "B", 10)
	headers := []string{"Ref", "Time", "Guests", "Table", "Status", "Name"}
	widths := []float64{25, 20, 18, 18, 28, 80}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, b := range bookings {
		slotTime := ""
		if b.TimeSlot != nil {
			slotTime = b.TimeSlot.Time
		}
		table := "-"
		if b.Table != nil {
			table = fmt.Sprintf("%d", b.Table.TableNumber)
		}
		name := ""
		if b.User != nil {
			name = b.User.Name
		}
		row := []string{
			b.ReferenceNumber,
			slotTime,
			fmt.Sprintf("%d", b.NumberOfGuests),
			table,
			b.Status,
			name,
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 8, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=bookings-%s.pdf", date))
	if err := pdf.Output(c.Writer); err != nil {
		utils.ErrorLogger.Printf("PDF export failed: %v", err)
	}
}
