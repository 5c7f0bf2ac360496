package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aksjevakt/backend/internal/config"
	"github.com/aksjevakt/backend/internal/i18n"
	"github.com/aksjevakt/backend/internal/marketdata"
	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PriceAlertHandler struct {
	alertService service.AlertService
	monitor      *service.MonitorService
	quotes       marketdata.QuoteClient
	logService   service.LogService
	cfg          *config.Config
}

func NewPriceAlertHandler(
	alertService service.AlertService,
	monitor *service.MonitorService,
	quotes marketdata.QuoteClient,
	logService service.LogService,
	cfg *config.Config,
) *PriceAlertHandler {
	return &PriceAlertHandler{
		alertService: alertService,
		monitor:      monitor,
		quotes:       quotes,
		logService:   logService,
		cfg:          cfg,
	}
}

type CreateAlertRequest struct {
	Symbol         string  `json:"symbol" form:"symbol" binding:"required"`
	AlertType      string  `json:"alert_type" form:"alert_type" binding:"required"`
	TargetPrice    float64 `json:"target_price" form:"target_price"`
	EmailEnabled   *bool   `json:"email_enabled" form:"email_enabled"`
	BrowserEnabled *bool   `json:"browser_enabled" form:"browser_enabled"`
	Notes          string  `json:"notes" form:"notes"`
}

func (r *CreateAlertRequest) toAlert() *models.PriceAlert {
	alert := &models.PriceAlert{
		Symbol:         r.Symbol,
		Direction:      models.AlertDirection(strings.ToLower(r.AlertType)),
		TargetPrice:    r.TargetPrice,
		EmailEnabled:   true,
		BrowserEnabled: true,
		Notes:          r.Notes,
	}
	if r.EmailEnabled != nil {
		alert.EmailEnabled = *r.EmailEnabled
	}
	if r.BrowserEnabled != nil {
		alert.BrowserEnabled = *r.BrowserEnabled
	}
	return alert
}

// @Summary Create a price alert
// @Description Creates an alert that fires once when the symbol reaches the target price
// @Tags PriceAlerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param alert body CreateAlertRequest true "Alert data"
// @Success 201 {object} models.PriceAlert
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 429 {object} map[string]string "Active-alert limit reached"
// @Router /price-alerts/api/create [post]
func (h *PriceAlertHandler) CreateAlertJSON(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	h.createAlert(c, &req)
}

// @Summary Create a price alert (form)
// @Description Form-encoded variant of alert creation
// @Tags PriceAlerts
// @Accept x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.PriceAlert
// @Failure 400 {object} map[string]string "Validation error"
// @Router /price-alerts/create [post]
func (h *PriceAlertHandler) CreateAlertForm(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
		return
	}
	h.createAlert(c, &req)
}

func (h *PriceAlertHandler) createAlert(c *gin.Context, req *CreateAlertRequest) {
	userID := c.GetString("user_id")
	alert := req.toAlert()

	if err := h.alertService.CreateAlert(userID, alert); err != nil {
		h.writeAlertError(c, err)
		return
	}

	ownerID, _ := primitive.ObjectIDFromHex(userID)
	h.logService.LogAction(ownerID, "CreateAlert", "Price alert created", c.ClientIP(), map[string]interface{}{
		"alert_id":     alert.ID.Hex(),
		"symbol":       alert.Symbol,
		"direction":    alert.Direction,
		"target_price": alert.TargetPrice,
	})

	c.JSON(http.StatusCreated, gin.H{
		"status": i18n.Get(h.cfg.DefaultLanguage, "Alert created"),
		"alert":  alert,
	})
}

// @Summary Delete a price alert
// @Description Deletes an alert owned by the caller; foreign alerts look like missing ones
// @Tags PriceAlerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} map[string]string "Alert deleted"
// @Failure 404 {object} map[string]string "Alert not found"
// @Router /price-alerts/api/delete/{id} [delete]
func (h *PriceAlertHandler) DeleteAlert(c *gin.Context) {
	userID := c.GetString("user_id")
	alertID := c.Param("id")

	if err := h.alertService.DeleteAlert(userID, alertID); err != nil {
		h.writeAlertError(c, err)
		return
	}

	ownerID, _ := primitive.ObjectIDFromHex(userID)
	h.logService.LogAction(ownerID, "DeleteAlert", "Price alert deleted", c.ClientIP(), map[string]interface{}{
		"alert_id": alertID,
	})

	c.JSON(http.StatusOK, gin.H{"status": i18n.Get(h.cfg.DefaultLanguage, "Alert deleted")})
}

// @Summary List the caller's alerts
// @Description Active alerts first, newest first
// @Tags PriceAlerts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PriceAlert
// @Router /price-alerts/api/alerts [get]
func (h *PriceAlertHandler) ListAlerts(c *gin.Context) {
	alerts, err := h.alertService.GetAlertsByUserID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}
	if alerts == nil {
		alerts = []*models.PriceAlert{}
	}
	c.JSON(http.StatusOK, alerts)
}

// @Summary Monitor status
// @Description Health of the background price monitor
// @Tags PriceAlerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.MonitorStatus
// @Router /price-alerts/api/status [get]
func (h *PriceAlertHandler) MonitorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Status())
}

// @Summary Current quote
// @Description On-demand quote lookup, independent of the monitor's cycle
// @Tags PriceAlerts
// @Produce json
// @Security BearerAuth
// @Param symbol path string true "Ticker symbol"
// @Success 200 {object} models.Quote
// @Failure 404 {object} map[string]string "No quote for symbol"
// @Router /price-alerts/api/quote/{symbol} [get]
func (h *PriceAlertHandler) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	quote, err := h.quotes.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrQuoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": i18n.Get(h.cfg.DefaultLanguage, "No quote available for %s", symbol)})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Quote source unavailable"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *PriceAlertHandler) writeAlertError(c *gin.Context, err error) {
	lang := h.cfg.DefaultLanguage

	var limitErr *service.AlertLimitError
	switch {
	case errors.Is(err, models.ErrEmptySymbol):
		c.JSON(http.StatusBadRequest, gin.H{"error": i18n.Get(lang, "Symbol is required")})
	case errors.Is(err, models.ErrInvalidDirection):
		c.JSON(http.StatusBadRequest, gin.H{"error": i18n.Get(lang, "Direction must be above or below")})
	case errors.Is(err, models.ErrInvalidTargetPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": i18n.Get(lang, "Target price must be positive")})
	case errors.As(err, &limitErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": i18n.Get(lang, "Free accounts are limited to %d active price alerts. Upgrade for unlimited alerts.", limitErr.Limit),
		})
	case errors.Is(err, service.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": i18n.Get(lang, "Alert not found")})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process alert"})
	}
}
