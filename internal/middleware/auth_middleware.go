package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/errors"
	"github.com/ikkim/configurator-backend/pkg/util"
)

// Context keys for staff information
const (
	StaffIDKey    = "staff_id"
	StaffEmailKey = "staff_email"
	StaffRoleKey  = "staff_role"
)

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// Authenticate requires a valid staff token in the Authorization header, or
// in the token query parameter for WebSocket upgrades.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Authorization header must be 'Bearer <token>'")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "Authorization header is required")
				c.Abort()
				return
			}
			log.Debug("Using token from query parameter", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Session expired, please sign in again")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid access token")
			}
			c.Abort()
			return
		}

		setStaff(c, claims)

		log.Debug("Staff authenticated", map[string]interface{}{
			"staff_id": claims.UserID,
			"role":     claims.Role,
		})

		c.Next()
	}
}

// OptionalAuthenticate sets staff info when a valid bearer token is present
// and otherwise lets the request through anonymously. Used where customers and
// staff share a route.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Debug("Invalid authorization header format - continuing as customer", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			c.Next()
			return
		}

		claims, err := util.ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			log.Debug("Token validation failed - continuing as customer", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		setStaff(c, claims)
		c.Next()
	}
}

// RequireRole checks that the authenticated staff user holds one of roles.
func (m *AuthMiddleware) RequireRole(roles ...model.StaffRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetStaffRole(c)
		if !exists {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Forbidden(c, "")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		staffID, _ := GetStaffID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"staff_id":       staffID,
			"staff_role":     role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.RespondWithError(c, http.StatusForbidden, errors.AuthzAdminOnly, "Your role does not allow this action")
		c.Abort()
	}
}

func setStaff(c *gin.Context, claims *util.Claims) {
	c.Set(StaffIDKey, claims.UserID)
	c.Set(StaffEmailKey, claims.Email)
	c.Set(StaffRoleKey, model.StaffRole(claims.Role))
}

// GetStaffID extracts the staff ID from context
func GetStaffID(c *gin.Context) (uint, bool) {
	id, exists := c.Get(StaffIDKey)
	if !exists {
		return 0, false
	}
	return id.(uint), true
}

func GetStaffEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(StaffEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}

func GetStaffRole(c *gin.Context) (model.StaffRole, bool) {
	role, exists := c.Get(StaffRoleKey)
	if !exists {
		return "", false
	}
	return role.(model.StaffRole), true
}
