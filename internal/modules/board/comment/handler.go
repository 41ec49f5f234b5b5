package comment

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goldierill/board/internal/middleware"
	"github.com/goldierill/board/internal/models"
	"github.com/goldierill/board/internal/pkg/pagination"
	"github.com/goldierill/board/internal/pkg/response"
)

// Notifier is told about every newly posted comment. The auto-responder
// implements it; a nil Notifier disables the hook.
type Notifier interface {
	CommentPosted(c models.CommentModel)
}

type Handler struct {
	service  *Service
	notifier Notifier
}

func NewHandler(service *Service, notifier Notifier) *Handler {
	return &Handler{service: service, notifier: notifier}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, optionalAuth gin.HandlerFunc) {
	grp := rg.Group("/comments", optionalAuth)
	{
		grp.GET("", h.List)
		grp.POST("", h.Create)
		grp.PUT("/:id", h.Update)
		grp.DELETE("/:id", h.Delete)
		grp.POST("/:id/vote", h.Vote)
	}
}

func viewer(c *gin.Context) (*uint, bool) {
	if id, ok := middleware.CurrentUserID(c); ok {
		return &id, middleware.IsAdmin(c)
	}
	return nil, false
}

// List returns one page of a message's comment tree. With flat=true the
// tree is linearized into display order instead of nested.
func (h *Handler) List(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Query("messageId"), 10, 64)
	if err != nil || messageID == 0 {
		response.BadRequest(c, errMissingMessageID.Error())
		return
	}

	sort := c.DefaultQuery("sort", SortTimeDesc)
	pq := pagination.FromContext(c, 50)

	tree, page, err := h.service.FetchTree(uint(messageID), sort, pq)
	if err != nil {
		if errors.Is(err, errInvalidSort) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	viewerID, isAdmin := viewer(c)
	comments := make([]CommentResponse, 0, len(tree))
	for i := range tree {
		comments = append(comments, h.service.ToResponse(&tree[i], viewerID, isAdmin))
	}

	if c.Query("flat") == "true" {
		comments = Flatten(comments)
	}

	response.OK(c, gin.H{
		"comments": comments,
		"info": gin.H{
			"messageId": messageID,
			"sort":      sort,
			"count":     page.Total,
		},
		"pagination": page,
	})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	viewerID, isAdmin := viewer(c)
	row, err := h.service.Create(req, viewerID, middleware.CurrentUsername(c))
	if err != nil {
		switch {
		case errors.Is(err, errMissingMessageID),
			errors.Is(err, errEmptyText),
			errors.Is(err, errParentNotFound),
			errors.Is(err, errParentMismatch):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}

	if h.notifier != nil {
		h.notifier.CommentPosted(*row)
	}
	response.Created(c, h.service.ToResponse(row, viewerID, isAdmin))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "text is required")
		return
	}

	viewerID, isAdmin := viewer(c)
	row, err := h.service.Update(id, req, viewerID, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, errCommentNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, errNotOwner):
			response.Forbidden(c, err.Error())
		case errors.Is(err, errNotEditable), errors.Is(err, errEmptyText):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, h.service.ToResponse(row, viewerID, isAdmin))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	viewerID, isAdmin := viewer(c)
	if err := h.service.Delete(id, viewerID, isAdmin); err != nil {
		switch {
		case errors.Is(err, errCommentNotFound):
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

func (h *Handler) Vote(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, errInvalidVote.Error())
		return
	}

	result, err := h.service.ApplyVote(id, middleware.VoterIdentity(c), req.Vote)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidVote):
			response.BadRequest(c, err.Error())
		case errors.Is(err, errCommentNotFound):
			response.NotFound(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"success": true, "score": result.Score, "vote": result.Vote})
}

func parseID(c *gin.Context) (uint, error) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(v), err
}
