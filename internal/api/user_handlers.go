package api

import (
	"errors"
	"net/http"

	"github.com/aksjevakt/backend/internal/config"
	"github.com/aksjevakt/backend/internal/middleware"
	"github.com/aksjevakt/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserHandler struct {
	userService service.UserService
	logService  service.LogService
	cfg         *config.Config
}

func NewUserHandler(userService service.UserService, logService service.LogService, cfg *config.Config) *UserHandler {
	return &UserHandler{userService: userService, logService: logService, cfg: cfg}
}

// @Summary Sign up a new user
// @Description Creates an account with a 14-day trial and returns a session token
// @Tags Users
// @Accept json
// @Produce json
// @Param user body SignupRequest true "Account details"
// @Success 201 {object} map[string]interface{} "User created"
// @Failure 400 {object} map[string]string "Invalid JSON"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /users/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	user, err := h.userService.Signup(req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := middleware.GenerateJWT(user.ID.Hex(), false, h.cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	h.logService.LogAction(user.ID, "Signup", "User account created", c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// @Summary Log in
// @Description Verifies credentials and returns a session token
// @Tags Users
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{} "Token and user"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	user, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	token, err := middleware.GenerateJWT(user.ID.Hex(), false, h.cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	h.logService.LogAction(user.ID, "Login", "User logged in", c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// @Summary Current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserAccount
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetUser(c.GetString("user_id"))
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"premium": h.userService.HasPremiumAccess(user),
	})
}
