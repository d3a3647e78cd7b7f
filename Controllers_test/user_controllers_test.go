package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/robertopires/portuguese-kitchen/controllers"
	"github.com/robertopires/portuguese-kitchen/models"
)

func setupUserRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	userCtrl := controllers.NewUserController(db)
	router.POST("/register", userCtrl.Register)
	router.POST("/login", userCtrl.Login)
	return router
}

func TestRegisterCreatesCustomerWithProfile(t *testing.T) {
	db := setupTestDB(t)
	router := setupUserRouter(db)

	payload := map[string]string{
		"name":     "Maria Santos",
		"email":    "maria@pk.test",
		"password": "s3cretpass",
	}
	w := performJSON(t, router, "POST", "/register", payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	assert.NoError(t, db.Preload("Profile").Where("email = ?", "maria@pk.test").First(&user).Error)
	// Registration never grants elevated roles.
	assert.Equal(t, models.RoleCustomer, user.Role)
	// The password is stored hashed.
	assert.NotEqual(t, "s3cretpass", user.Password)
	// A profile is attached automatically.
	assert.NotNil(t, user.Profile)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	router := setupUserRouter(db)

	payload := map[string]string{
		"name":     "Maria Santos",
		"email":    "maria@pk.test",
		"password": "s3cretpass",
	}
	w := performJSON(t, router, "POST", "/register", payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = performJSON(t, router, "POST", "/register", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	router := setupUserRouter(db)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.DefaultCost)
	db.Create(&models.User{Name: "Maria", Email: "maria@pk.test", Password: string(hashed), Role: models.RoleCustomer})

	w := performJSON(t, router, "POST", "/login", map[string]string{
		"email":    "maria@pk.test",
		"password": "s3cretpass",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	w = performJSON(t, router, "POST", "/login", map[string]string{
		"email":    "maria@pk.test",
		"password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	user := &models.User{Name: "Maria", Email: "maria@pk.test", Password: "x", Role: models.RoleCustomer}
	db.Create(user)

	gin.SetMode(gin.TestMode)
	router := gin.Default()
	userCtrl := controllers.NewUserController(db)
	auth := router.Group("/")
	auth.Use(authAs(user.ID, user.Role))
	auth.PATCH("/profile", userCtrl.UpdateProfile)

	w := performJSON(t, router, "PATCH", "/profile", map[string]string{
		"dietary_requirements": "no shellfish",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var profile models.CustomerProfile
	assert.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.NotNil(t, profile.DietaryRequirements)
	assert.Equal(t, "no shellfish", *profile.DietaryRequirements)
}
