package services

import (
	"github.com/robertopires/portuguese-kitchen/models"
)

// DashboardStats is the staff dashboard read model: simple aggregation over
// the bookings and tables, computed on demand.
type DashboardStats struct {
	Date             string           `json:"date"`
	BookingsByStatus map[string]int64 `json:"bookings_by_status"`
	GuestsExpected   int              `json:"guests_expected"`
	TablesAvailable  int64            `json:"tables_available"`
	TablesOccupied   int64            `json:"tables_occupied"`
	UpcomingBookings int64            `json:"upcoming_bookings"`
}

// DashboardStatsForDate aggregates bookings for one date plus current table
// occupancy and the forward-looking booking count.
func (s *BookingService) DashboardStatsForDate(date string) (*DashboardStats, error) {
	stats := &DashboardStats{
		Date:             date,
		BookingsByStatus: make(map[string]int64),
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	err := s.DB.Model(&models.Booking{}).
		Select("status, COUNT(*) as count").
		Where("booking_date = ?", date).
		Group("status").Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats.BookingsByStatus[c.Status] = c.Count
	}

	var guests *int
	err = s.DB.Model(&models.Booking{}).
		Where("booking_date = ? AND status IN ?", date, models.ActiveStatuses).
		Select("SUM(number_of_guests)").Scan(&guests).Error
	if err != nil {
		return nil, err
	}
	if guests != nil {
		stats.GuestsExpected = *guests
	}

	if err := s.DB.Model(&models.Table{}).
		Where("status = ? AND is_available = ?", models.TableAvailable, true).
		Count(&stats.TablesAvailable).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Table{}).
		Where("status = ?", models.TableOccupied).
		Count(&stats.TablesOccupied).Error; err != nil {
		return nil, err
	}

	err = s.DB.Model(&models.Booking{}).
		Where("booking_date >= ? AND status IN ?", date, models.ActiveStatuses).
		Count(&stats.UpcomingBookings).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
