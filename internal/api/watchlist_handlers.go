package api

import (
	"errors"
	"net/http"

	"github.com/aksjevakt/backend/internal/models"
	"github.com/aksjevakt/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type WatchlistHandler struct {
	watchlistService service.WatchlistService
}

func NewWatchlistHandler(watchlistService service.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlistService: watchlistService}
}

type AddSymbolRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// @Summary Get the caller's watchlist
// @Tags Watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Watchlist
// @Router /watchlist [get]
func (h *WatchlistHandler) GetWatchlist(c *gin.Context) {
	watchlist, err := h.watchlistService.GetWatchlist(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load watchlist"})
		return
	}
	c.JSON(http.StatusOK, watchlist)
}

// @Summary Add a symbol to the watchlist
// @Tags Watchlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param symbol body AddSymbolRequest true "Ticker symbol"
// @Success 200 {object} map[string]string "Symbol added"
// @Failure 400 {object} map[string]string "Invalid symbol"
// @Router /watchlist [post]
func (h *WatchlistHandler) AddSymbol(c *gin.Context) {
	var req AddSymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := h.watchlistService.AddSymbol(c.GetString("user_id"), req.Symbol); err != nil {
		if errors.Is(err, models.ErrEmptySymbol) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Symbol added"})
}

// @Summary Remove a symbol from the watchlist
// @Tags Watchlist
// @Produce json
// @Security BearerAuth
// @Param symbol path string true "Ticker symbol"
// @Success 200 {object} map[string]string "Symbol removed"
// @Router /watchlist/{symbol} [delete]
func (h *WatchlistHandler) RemoveSymbol(c *gin.Context) {
	if err := h.watchlistService.RemoveSymbol(c.GetString("user_id"), c.Param("symbol")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Symbol removed"})
}
