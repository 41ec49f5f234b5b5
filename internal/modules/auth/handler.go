package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/goldierill/board/internal/middleware"
	"github.com/goldierill/board/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	grp := rg.Group("/auth")
	{
		grp.POST("/register", h.Register)
		grp.POST("/login", h.Login)
		grp.POST("/logout", h.Logout)
		grp.GET("/me", authMW, h.Me)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	session, err := h.service.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidUsername), errors.Is(err, errInvalidPassword):
			response.BadRequest(c, err.Error())
		case errors.Is(err, errUsernameTaken):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, session)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	session, err := h.service.Login(req, c.ClientIP())
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			response.Unauthorized(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, session)
}

// Logout is a no-op on the server; sessions are stateless JWTs and the
// client discards its token.
func (h *Handler) Logout(c *gin.Context) {
	response.OK(c, gin.H{"success": true})
}

func (h *Handler) Me(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	info, err := h.service.Me(userID)
	if err != nil {
		response.Unauthorized(c)
		return
	}
	response.OK(c, info)
}
