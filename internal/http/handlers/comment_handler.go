// Comment HTTP handlers.
//
// This file exposes REST endpoints for comments:
//   - POST   /articles/:id/comments   (create, awards commenter exp)
//   - GET    /articles/:id/comments   (list, oldest first)
//   - PUT    /comments/:id            (author-only update)
//   - DELETE /comments/:id            (author-only delete)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/2eungwoo/moum-backend/internal/services"
)

// CommentRequest is the JSON payload for creating or editing a comment.
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateComment handles POST /articles/:id/comments (authenticated).
func (h *Handlers) CreateComment(c *gin.Context) {
	articleID, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a positive integer")
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	cm, err := h.commentSvc.Create(c.Request.Context(), articleID, memberID(c), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyContent):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case errors.Is(err, services.ErrArticleNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "comment create failed")
		}
		return
	}
	ok(c, http.StatusCreated, cm)
}

// ListComments handles GET /articles/:id/comments.
func (h *Handlers) ListComments(c *gin.Context) {
	articleID, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a positive integer")
		return
	}
	items, err := h.commentSvc.List(c.Request.Context(), articleID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "comment list failed")
		return
	}
	ok(c, http.StatusOK, items)
}

// UpdateComment handles PUT /comments/:id (authenticated, author-only).
func (h *Handlers) UpdateComment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "comment id must be a positive integer")
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	if err := h.commentSvc.Update(c.Request.Context(), id, memberID(c), req.Content); err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyContent):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case errors.Is(err, services.ErrCommentNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "comment update failed")
		}
		return
	}
	noContent(c)
}

// DeleteComment handles DELETE /comments/:id (authenticated, author-only).
func (h *Handlers) DeleteComment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "comment id must be a positive integer")
		return
	}
	if err := h.commentSvc.Delete(c.Request.Context(), id, memberID(c)); err != nil {
		if errors.Is(err, services.ErrCommentNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "comment delete failed")
		return
	}
	noContent(c)
}
