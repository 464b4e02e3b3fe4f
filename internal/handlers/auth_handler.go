package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/middleware"
	"github.com/sjperalta/sacco-api/internal/services"
)

// AuthHandler serves the caller's identity. Staff tokens are minted with
// saccoctl; there is no password login.
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// @Summary Current Staff
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"staff_id": middleware.GetStaffID(c),
		"name":     middleware.GetStaffName(c),
		"role":     middleware.GetRole(c),
	})
}

// @Summary Refresh Token
// @Description Issue a fresh token for the authenticated staff member
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, expiresAt, err := h.authService.IssueToken(middleware.GetStaffID(c), middleware.GetStaffName(c), middleware.GetRole(c), 0)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}
