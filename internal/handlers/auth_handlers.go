package handlers

import (
	"net/http"
	"time"

	"gioservice_backend/internal/services"
	"gioservice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Login")
		return
	}

	authResp, err := h.authService.Login(req)
	if err != nil {
		respondServiceError(c, err, "Login: Error from authService.Login", "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// Session reports the state of the caller's session.
func (h *AuthHandler) Session(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}

	user, err := h.authService.GetUser(*userID)
	if err != nil {
		respondServiceError(c, err, "Session: Error from authService.GetUser for userID "+utils.Int64ToStr(*userID), "Failed to retrieve session.")
		return
	}

	resp := gin.H{"user": user, "state": utils.SessionAuthenticated}
	if exp, ok := c.Get("sessionExpiresAt"); ok {
		if expiresAt, ok := exp.(time.Time); ok {
			resp["expires_at"] = expiresAt
			resp["remaining_seconds"] = int64(time.Until(expiresAt).Seconds())
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh issues a new token for a session that is still valid.
func (h *AuthHandler) Refresh(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}

	authResp, err := h.authService.Refresh(*userID)
	if err != nil {
		respondServiceError(c, err, "Refresh: Error from authService.Refresh", "Failed to refresh session.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// Logout acknowledges the logout. Sessions are stateless; the client discards its token.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully. Please discard your token."})
}

// CreateUser registers a back-office user. Admin only.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateUser")
		return
	}

	user, err := h.authService.CreateUser(req)
	if err != nil {
		respondServiceError(c, err, "CreateUser: Error from authService.CreateUser", "Failed to create user.")
		return
	}
	c.JSON(http.StatusCreated, user)
}
