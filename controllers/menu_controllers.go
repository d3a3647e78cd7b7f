package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robertopires/portuguese-kitchen/models"
	"github.com/robertopires/portuguese-kitchen/utils"
	"gorm.io/gorm"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

type menuItemView struct {
	models.MenuItem
	DisplayPrice string `json:"display_price"`
}

func menuItemViews(items []models.MenuItem) []menuItemView {
	views := make([]menuItemView, 0, len(items))
	for _, item := range items {
		views = append(views, menuItemView{MenuItem: item, DisplayPrice: utils.FormatPrice(item.Price)})
	}
	return views
}

// GetAllMenuItems lists the menu for customers. Hidden items only appear
// with ?include_hidden=true (staff screens).
func (mc *MenuController) GetAllMenuItems(c *gin.Context) {
	query := mc.DB.Preload("Category").Preload("DietaryTags")
	if c.Query("include_hidden") != "true" {
		query = query.Where("is_available = ?", true)
	}
	if catID := c.Query("category_id"); catID != "" {
		query = query.Where("category_id = ?", catID)
	}

	var items []models.MenuItem
	if err := query.Order("name asc").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu items", menuItemViews(items))
}

// GetMenuByCategory groups the visible menu for the menu page.
func (mc *MenuController) GetMenuByCategory(c *gin.Context) {
	var categories []models.MenuCategory
	if err := mc.DB.Order("display_order asc, name asc").Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type categoryMenu struct {
		Category models.MenuCategory `json:"category"`
		Items    []menuItemView      `json:"items"`
	}
	menu := make([]categoryMenu, 0, len(categories))
	for _, category := range categories {
		var items []models.MenuItem
		err := mc.DB.Preload("DietaryTags").
			Where("category_id = ? AND is_available = ?", category.ID, true).
			Order("name asc").Find(&items).Error
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		menu = append(menu, categoryMenu{Category: category, Items: menuItemViews(items)})
	}
	utils.RespondJSON(c, http.StatusOK, "Menu by category", menu)
}

func (mc *MenuController) GetMenuItemByID(c *gin.Context) {
	var item models.MenuItem
	err := mc.DB.Preload("Category").Preload("DietaryTags").First(&item, c.Param("item_id")).Error
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item detail", menuItemView{MenuItem: item, DisplayPrice: utils.FormatPrice(item.Price)})
}

func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var req struct {
		CategoryID    uint    `json:"category_id" binding:"required"`
		Name          string  `json:"name" binding:"required"`
		Description   string  `json:"description"`
		Price         float64 `json:"price" binding:"required"`
		ImageUrl      *string `json:"image_url"`
		DietaryTagIDs []uint  `json:"dietary_tag_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Price <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("price must be positive"))
		return
	}

	var category models.MenuCategory
	if err := mc.DB.First(&category, req.CategoryID).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("category not found"))
		return
	}

	item := models.MenuItem{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsAvailable: true,
		ImageUrl:    req.ImageUrl,
	}
	if len(req.DietaryTagIDs) > 0 {
		if err := mc.DB.Find(&item.DietaryTags, req.DietaryTagIDs).Error; err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid dietary tags"))
			return
		}
	}

	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Menu item created: %s (%s)", item.Name, utils.FormatPrice(item.Price))
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	var req struct {
		CategoryID    *uint    `json:"category_id"`
		Name          *string  `json:"name"`
		Description   *string  `json:"description"`
		Price         *float64 `json:"price"`
		IsAvailable   *bool    `json:"is_available"`
		ImageUrl      *string  `json:"image_url"`
		DietaryTagIDs *[]uint  `json:"dietary_tag_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, c.Param("item_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.CategoryID != nil {
		var category models.MenuCategory
		if err := mc.DB.First(&category, *req.CategoryID).Error; err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("category not found"))
			return
		}
		item.CategoryID = *req.CategoryID
	}
	if req.Name != nil && *req.Name != "" {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("price must be positive"))
			return
		}
		item.Price = *req.Price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.ImageUrl != nil {
		item.ImageUrl = req.ImageUrl
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if req.DietaryTagIDs != nil {
		var tags []models.DietaryTag
		if len(*req.DietaryTagIDs) > 0 {
			if err := mc.DB.Find(&tags, *req.DietaryTagIDs).Error; err != nil {
				utils.RespondError(c, http.StatusBadRequest, errors.New("invalid dietary tags"))
				return
			}
		}
		if err := mc.DB.Model(&item).Association("DietaryTags").Replace(tags); err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := mc.DB.First(&item, c.Param("item_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := mc.DB.Select("DietaryTags").Delete(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"id": item.ID})
}
