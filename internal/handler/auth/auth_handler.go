package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/handler"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/response"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/middleware"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/auth"
)

// Handler serves the admin session endpoints.
type Handler struct {
	authService *auth.AuthService
}

func NewHandler(authService *auth.AuthService) *Handler {
	return &Handler{authService: authService}
}

// Login exchanges admin credentials for a JWT.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}
	req.IP = c.ClientIP()

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAdminNotFound), errors.Is(err, auth.ErrInvalidPassword):
			response.Unauthorized(c, "invalid username or password")
		case errors.Is(err, auth.ErrAdminDisabled):
			response.Forbidden(c, "account is disabled")
		default:
			response.InternalError(c, "login failed")
		}
		return
	}

	response.Success(c, result)
}

// Logout revokes the presented token for its remaining lifetime.
func (h *Handler) Logout(c *gin.Context) {
	token := middleware.GetToken(c)
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		response.InternalError(c, "logout failed")
		return
	}
	response.SuccessWithMessage(c, "logged out", nil)
}

// Me returns the authenticated admin's profile.
func (h *Handler) Me(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	info, err := h.authService.GetAdminInfo(c.Request.Context(), adminID)
	if err != nil {
		if errors.Is(err, auth.ErrAdminNotFound) {
			response.NotFound(c, "admin not found")
			return
		}
		response.InternalError(c, "failed to load admin info")
		return
	}

	response.Success(c, info)
}

// RegisterRoutes mounts the session routes. Login is mounted on the public
// group, Logout and Me on the authenticated group.
func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.POST("/login", h.Login)
	authed.POST("/logout", h.Logout)
	authed.GET("/me", h.Me)
}
