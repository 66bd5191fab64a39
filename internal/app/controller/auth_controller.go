package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/service"
	apperrors "github.com/ikkim/configurator-backend/internal/errors"
	"github.com/ikkim/configurator-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateStaffRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Name     string          `json:"name" binding:"required"`
	Role     model.StaffRole `json:"role"`
}

// Login exchanges staff credentials for an access token
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email and password are required")
		return
	}

	result, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Warn("Login failed: invalid credentials", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		respondError(c, err, "login")
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"staff_id": result.Staff.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"staff":        result.Staff,
		"access_token": result.AccessToken,
		"expires_at":   result.ExpiresAt,
	})
}

// GetMe returns the signed-in staff user
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	staffID, exists := middleware.GetStaffID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	staff, err := ctrl.authService.GetStaffByID(staffID)
	if err != nil {
		respondError(c, err, "get staff")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"staff": staff,
	})
}

// CreateStaff adds a back-office account (admin only)
// POST /api/v1/admin/staff
func (ctrl *AuthController) CreateStaff(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	staff, err := ctrl.authService.CreateStaff(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		respondError(c, err, "create staff")
		return
	}

	adminID, _ := middleware.GetStaffID(c)
	log.Info("Staff account created", map[string]interface{}{
		"staff_id":   staff.ID,
		"created_by": adminID,
		"role":       staff.Role,
	})

	c.JSON(http.StatusCreated, gin.H{
		"staff": staff,
	})
}
