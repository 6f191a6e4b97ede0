package handlers

import (
	"github.com/gin-gonic/gin"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/domain/auth"
	"fueldesk/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, token)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	h.OK(c, dto.MeResponse{
		UserID:     user.UserID,
		NationalID: user.NationalID,
		Name:       user.Name,
		Roles:      user.Roles,
		UnitID:     user.UnitID,
	})
}
