package upload

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, optionalAuth gin.HandlerFunc) {
	rg.POST("/upload", optionalAuth, h.Upload)
}

// RegisterFileRoutes mounts the access-checked download route outside
// the /api prefix.
func (h *Handler) RegisterFileRoutes(r gin.IRouter, optionalAuth gin.HandlerFunc) {
	r.GET("/uploads/:filename", optionalAuth, h.Download)
}

func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, errEmptyUpload.Error())
		return
	}

	stored, err := h.service.Save(c.Request.Context(), header)
	if err != nil {
		switch {
		case errors.Is(err, errFileTooLarge), errors.Is(err, errBadFileName):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, stored)
}

func (h *Handler) Download(c *gin.Context) {
	var viewerID *uint
	if id, ok := middleware.CurrentUserID(c); ok {
		viewerID = &id
	}

	path, err := h.service.Resolve(c.Param("filename"), viewerID, middleware.IsAdmin(c), c.Query("key"))
	if err != nil {
		switch {
		case errors.Is(err, errFileNotFound), errors.Is(err, errBadFileName):
			response.NotFound(c, "file not found")
		case errors.Is(err, errAccessDenied):
			response.Forbidden(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	c.File(path)
}
