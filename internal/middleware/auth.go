package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/services"
)

// TokenParser validates staff tokens
type TokenParser interface {
	ParseToken(token string) (*services.StaffClaims, error)
}

// Context keys set by Auth
const (
	ctxStaffID   = "staffID"
	ctxStaffName = "staffName"
	ctxStaffRole = "staffRole"
)

// Auth returns a middleware that validates staff JWTs
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := ""

		if authHeader == "" {
			// Download links carry the token as a query parameter
			tokenString = c.Query("token")
			if tokenString == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Authorization header is required",
				})
				return
			}
		} else {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid authorization header format",
				})
				return
			}
			tokenString = parts[1]
		}

		claims, err := parser.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.Set(ctxStaffID, claims.StaffID)
		c.Set(ctxStaffName, claims.Name)
		c.Set(ctxStaffRole, claims.Role)
		c.Next()
	}
}

// GetStaffID extracts the staff ID from the Gin context
func GetStaffID(c *gin.Context) uint {
	return c.GetUint(ctxStaffID)
}

// GetStaffName extracts the staff name from the Gin context
func GetStaffName(c *gin.Context) string {
	return c.GetString(ctxStaffName)
}

// GetRole extracts the staff role from the Gin context
func GetRole(c *gin.Context) string {
	return c.GetString(ctxStaffRole)
}

// IsAdmin checks if the current staff member is an admin
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == services.RoleAdmin
}

// Actor describes the caller for audit entries
func Actor(c *gin.Context) models.Actor {
	return models.Actor{
		ID:        GetStaffID(c),
		Role:      GetRole(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// RequireAdmin returns a middleware that requires the admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(services.RoleAdmin)
}

// RequireRole returns a middleware that requires one of the given roles
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "You do not have access to this resource",
		})
	}
}

// GatewayKey authenticates webhook calls from the WhatsApp gateway by
// their X-Api-Key header. With no key configured every call is refused.
func GatewayKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Api-Key")
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid gateway key",
			})
			return
		}
		c.Next()
	}
}
