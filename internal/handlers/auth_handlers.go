package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/permissions"
	"restaurant_pos_backend/internal/services"

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

// RegisterUser handles user registration. Anonymous calls only succeed for
// the first account; later accounts need an owner or admin token.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req services.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}

	var actor *models.Actor
	if a, ok := middleware.ActorFromContext(c); ok {
		actor = &a
	}
	user, err := h.authService.RegisterUser(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "Failed to register user.")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResp, err := h.authService.LoginUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Invalid username or password.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile and permissions of the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), actor.UserID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve user profile.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"permissions": permissions.For(user.Role),
	})
}

// LogoutUser handles user logout.
// For stateless JWT, this is primarily a client-side action.
func (h *AuthHandler) LogoutUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully. Please discard your token."})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to fetch users.")
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateRole changes another user's role.
func (h *AuthHandler) UpdateRole(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.authService.UpdateRole(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to update role.")
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetActive enables or disables another user's account.
func (h *AuthHandler) SetActive(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req services.SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.authService.SetActive(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err, "Failed to update user.")
		return
	}
	c.JSON(http.StatusOK, user)
}
