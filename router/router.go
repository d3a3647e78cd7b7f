package router

import (
	"github.com/gin-gonic/gin"
	"github.com/robertopires/portuguese-kitchen/controllers"
	"github.com/robertopires/portuguese-kitchen/middlewares"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// Registered before any route so every handler sits behind it.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	userCtrl := controllers.NewUserController(db)
	bookingCtrl := controllers.NewBookingController(db)
	tableCtrl := controllers.NewTableController(db)
	slotCtrl := controllers.NewTimeSlotController(db)
	categoryCtrl := controllers.NewMenuCategoryController(db)
	menuCtrl := controllers.NewMenuController(db)
	tagCtrl := controllers.NewDietaryTagController(db)
	adminCtrl := controllers.NewAdminController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Menu browsing needs no account
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/menus", menuCtrl.GetAllMenuItems)
	r.GET("/menus/by-category", menuCtrl.GetMenuByCategory)
	r.GET("/menus/:item_id", menuCtrl.GetMenuItemByID)
	r.GET("/dietary-tags", tagCtrl.GetAllTags)

	// Booking calendar: slots and live availability
	r.GET("/timeslots", bookingCtrl.GetTimeSlots)
	r.GET("/bookings/check-availability", bookingCtrl.CheckAvailability)

	// ----------------------------------------------------------------
	//                      CUSTOMER ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("/logout", userCtrl.Logout)
		auth.GET("/profile", userCtrl.GetProfile)
		auth.PATCH("/profile", userCtrl.UpdateProfile)

		auth.POST("/bookings", bookingCtrl.CreateBooking)
		auth.GET("/bookings/my", bookingCtrl.GetMyBookings)
		auth.GET("/bookings/:reference", bookingCtrl.GetBookingByReference)
		auth.PATCH("/bookings/:reference", bookingCtrl.UpdateBooking)
		auth.POST("/bookings/:reference/cancel", bookingCtrl.CancelBooking)
	}

	// ----------------------------------------------------------------
	//                      STAFF / ADMIN ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/staff")
	staff.Use(middlewares.AuthMiddleware(), middlewares.RequireStaff())
	{
		staff.GET("/bookings", bookingCtrl.GetAllBookings)
		staff.PATCH("/bookings/:reference/status", bookingCtrl.UpdateBookingStatus)
		staff.PATCH("/bookings/:reference/table", bookingCtrl.AssignBookingTable)

		staff.GET("/tables", tableCtrl.GetAllTables)
		staff.GET("/tables/:table_id", tableCtrl.GetTableByID)

		staff.GET("/timeslots", slotCtrl.GetAllTimeSlots)

		staff.GET("/dashboard/stats", adminCtrl.GetDashboardStats)
		staff.GET("/reports/bookings.pdf", adminCtrl.ExportBookingsPDF)
	}

	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireAdmin())
	{
		admin.GET("/users", userCtrl.GetAllUsers)
		admin.POST("/users", userCtrl.CreateStaffUser)

		admin.POST("/tables", tableCtrl.CreateTable)
		admin.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
		admin.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

		admin.POST("/timeslots", slotCtrl.CreateTimeSlot)
		admin.PATCH("/timeslots/:slot_id", slotCtrl.UpdateTimeSlot)
		admin.DELETE("/timeslots/:slot_id", slotCtrl.DeleteTimeSlot)

		admin.POST("/categories", categoryCtrl.CreateCategory)
		admin.PATCH("/categories/:cat_id", categoryCtrl.UpdateCategory)
		admin.DELETE("/categories/:cat_id", categoryCtrl.DeleteCategory)

		admin.POST("/menus", menuCtrl.CreateMenuItem)
		admin.PATCH("/menus/:item_id", menuCtrl.UpdateMenuItem)
		admin.DELETE("/menus/:item_id", menuCtrl.DeleteMenuItem)

		admin.POST("/dietary-tags", tagCtrl.CreateTag)
		admin.DELETE("/dietary-tags/:tag_id", tagCtrl.DeleteTag)
	}

	return r
}
