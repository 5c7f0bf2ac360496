package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/aksjevakt/backend/internal/config"
	"github.com/aksjevakt/backend/internal/middleware"
	"github.com/aksjevakt/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	userService service.UserService
	logService  service.LogService
	monitor     *service.MonitorService
	cfg         *config.Config
	rootCtx     context.Context
}

func NewAdminHandler(
	userService service.UserService,
	logService service.LogService,
	monitor *service.MonitorService,
	cfg *config.Config,
	rootCtx context.Context,
) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		logService:  logService,
		monitor:     monitor,
		cfg:         cfg,
		rootCtx:     rootCtx,
	}
}

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary Admin login
// @Tags Admin
// @Accept json
// @Produce json
// @Param credentials body AdminLoginRequest true "Admin credentials"
// @Success 200 {object} map[string]string "Token"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /admin/login [post]
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminPass)) == 1
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateJWT("admin", true, h.cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{} "Users and total"
// @Router /admin/users [get]
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	page := queryInt64(c, "page", 1)
	limit := queryInt64(c, "limit", 50)

	users, total, err := h.userService.GetAllUsers(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// @Summary List audit logs
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.LogEntry
// @Router /admin/logs [get]
func (h *AdminHandler) GetAllLogs(c *gin.Context) {
	page := int(queryInt64(c, "page", 1))
	limit := int(queryInt64(c, "limit", 100))

	logs, err := h.logService.GetAllLogs(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// @Summary Audit logs for a user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "User ID"
// @Success 200 {array} models.LogEntry
// @Router /admin/logs/user/{user_id} [get]
func (h *AdminHandler) GetLogsByUser(c *gin.Context) {
	page := int(queryInt64(c, "page", 1))
	limit := int(queryInt64(c, "limit", 100))

	logs, err := h.logService.GetLogsByUserID(c.Param("user_id"), page, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// @Summary Start the price monitor
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.MonitorStatus
// @Failure 409 {object} map[string]string "Already running"
// @Router /admin/monitor/start [post]
func (h *AdminHandler) StartMonitor(c *gin.Context) {
	if err := h.monitor.Start(h.rootCtx); err != nil {
		if errors.Is(err, service.ErrMonitorRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "Monitor already running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start monitor"})
		return
	}
	c.JSON(http.StatusOK, h.monitor.Status())
}

// @Summary Stop the price monitor
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.MonitorStatus
// @Router /admin/monitor/stop [post]
func (h *AdminHandler) StopMonitor(c *gin.Context) {
	h.monitor.Stop()
	c.JSON(http.StatusOK, h.monitor.Status())
}

func queryInt64(c *gin.Context, key string, fallback int64) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
