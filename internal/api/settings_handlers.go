package api

import (
	"net/http"

	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService service.SettingsService
}

func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

type UpdateSettingsRequest struct {
	EmailEnabled bool   `json:"email_enabled"`
	EmailInstant bool   `json:"email_instant"`
	DailyDigest  bool   `json:"daily_digest"`
	MaxPerHour   int    `json:"max_per_hour"`
	MaxPerDay    int    `json:"max_per_day"`
	Language     string `json:"language"`
}

// @Summary Notification settings
// @Description Returns the caller's settings, creating defaults on first access
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.NotificationSettings
// @Router /notification-settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// @Summary Update notification settings
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param settings body UpdateSettingsRequest true "Settings"
// @Success 200 {object} models.NotificationSettings
// @Failure 400 {object} map[string]string "Invalid JSON"
// @Router /notification-settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	settings, err := h.settingsService.UpdateSettings(c.GetString("user_id"), &models.NotificationSettings{
		EmailEnabled: req.EmailEnabled,
		EmailInstant: req.EmailInstant,
		DailyDigest:  req.DailyDigest,
		MaxPerHour:   req.MaxPerHour,
		MaxPerDay:    req.MaxPerDay,
		Language:     req.Language,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}
