package message

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goldierill/board/internal/middleware"
	"github.com/goldierill/board/internal/pkg/pagination"
	"github.com/goldierill/board/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, optionalAuth gin.HandlerFunc) {
	grp := rg.Group("/messages", optionalAuth)
	{
		grp.GET("", h.Feed)
		grp.GET("/:id", h.Get)
		grp.POST("", h.Create)
		grp.PUT("/:id", h.Update)
		grp.DELETE("/:id", h.Delete)
	}
}

func viewer(c *gin.Context) (*uint, bool) {
	if id, ok := middleware.CurrentUserID(c); ok {
		return &id, middleware.IsAdmin(c)
	}
	return nil, false
}

func (h *Handler) Feed(c *gin.Context) {
	viewerID, isAdmin := viewer(c)
	fq := FeedQuery{
		Feed:       c.DefaultQuery("feed", FeedLatest),
		Search:     c.Query("q"),
		PrivateKey: c.Query("key"),
		ViewerID:   viewerID,
		IsAdmin:    isAdmin,
	}
	pq := pagination.FromContext(c, 20)

	msgs, page, err := h.service.Feed(fq, pq)
	if err != nil {
		switch {
		case errors.Is(err, errPrivateKeyRequired):
			response.BadRequest(c, err.Error())
		case errors.Is(err, errNotOwner):
			response.Unauthorized(c)
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"messages": msgs, "pagination": page})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, "invalid message id")
		return
	}

	viewerID, isAdmin := viewer(c)
	msg, err := h.service.Get(id, viewerID, isAdmin, c.Query("key"))
	if err != nil {
		if errors.Is(err, errMessageNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, msg)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	viewerID, _ := viewer(c)
	msg, err := h.service.Create(req, viewerID)
	if err != nil {
		switch {
		case errors.Is(err, errEmptyContent),
			errors.Is(err, errPrivateKeyRequired),
			errors.Is(err, errFileMissing):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, msg)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, "invalid message id")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "content is required")
		return
	}

	viewerID, isAdmin := viewer(c)
	msg, err := h.service.Update(id, req, viewerID, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, errMessageNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, errNotOwner):
			response.Forbidden(c, err.Error())
		case errors.Is(err, errEmptyContent):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, msg)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, "invalid message id")
		return
	}

	viewerID, isAdmin := viewer(c)
	if err := h.service.Delete(id, viewerID, isAdmin); err != nil {
		switch {
		case errors.Is(err, errMessageNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, errNotOwner):
			response.Forbidden(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.NoContent(c)
}

func parseID(c *gin.Context) (uint, error) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(v), err
}
