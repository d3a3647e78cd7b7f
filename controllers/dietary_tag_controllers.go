package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
)

type DietaryTagController struct {
	DB *gorm.DB
}

func NewDietaryTagController(db *gorm.DB) *DietaryTagController {
	return &DietaryTagController{DB: db}
}

func (dc *DietaryTagController) GetAllTags(c *gin.Context) {
	var tags []models.DietaryTag
	if err := dc.DB.Order("name asc").Find(&tags).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dietary tags", tags)
}

func (dc *DietaryTagController) CreateTag(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Icon string `json:"icon"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tag := models.DietaryTag{Name: req.Name, Icon: req.Icon}
	if err := dc.DB.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, http.StatusConflict, errors.New("tag already exists"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Dietary tag created", tag)
}

func (dc *DietaryTagController) DeleteTag(c *gin.Context) {
	var tag models.DietaryTag
	if err := dc.DB.First(&tag, c.Param("tag_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if err := dc.DB.Delete(&tag).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dietary tag deleted", gin.H{"id": tag.ID})
}
