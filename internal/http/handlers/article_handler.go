// Article HTTP handlers.
//
// This file exposes REST endpoints for articles:
//   - POST   /articles            (create)
//   - GET    /articles            (list, paginated, ETag support)
//   - GET    /articles/:id        (read, counts the view)
//   - PUT    /articles/:id        (owner-only update)
//   - DELETE /articles/:id        (owner-only delete)
//   - POST   /articles/:id/like   (like, awards the author exp)
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
	"github.com/2eungwoo/moum-backend/internal/repo"
	"github.com/2eungwoo/moum-backend/internal/services"
)

// ListArticlesResponse wraps a page of articles and pagination metadata.
type ListArticlesResponse struct {
	Articles   []domain.Article `json:"articles"`
	Pagination Pagination       `json:"pagination"`
}

// CreateArticle handles POST /articles (authenticated).
func (h *Handlers) CreateArticle(c *gin.Context) {
	var req services.ArticleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.articleSvc.Create(c.Request.Context(), memberID(c), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyContent) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and content required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "article create failed")
		return
	}
	ok(c, http.StatusCreated, a)
}

// ListArticles handles GET /articles. Supports category/genre query
// filters and a weak ETag so unchanged listings answer 304.
func (h *Handlers) ListArticles(c *gin.Context) {
	ctx := c.Request.Context()
	category := c.Query("category")
	genre := c.Query("genre")
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.articleSvc.(*services.ArticleService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ArticlesStats(ctx, db, category, genre)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"articles:%s:%s:%d:%d"`, category, genre, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.articleSvc.ListPage(ctx, category, genre, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "article list failed")
		return
	}
	ok(c, http.StatusOK, ListArticlesResponse{
		Articles:   items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetArticle handles GET /articles/:id.
func (h *Handlers) GetArticle(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a positive integer")
		return
	}
	a, err := h.articleSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrArticleNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "article load failed")
		return
	}
	ok(c, http.StatusOK, a)
}

// UpdateArticle handles PUT /articles/:id (authenticated, owner-only).
func (h *Handlers) UpdateArticle(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a positive integer")
		return
	}
	var req services.ArticleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.articleSvc.Update(c.Request.Context(), id, memberID(c), req); err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyContent):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and content required")
		case errors.Is(err, services.ErrArticleNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "article update failed")
		}
		return
	}
	noContent(c)
}

// DeleteArticle handles DELETE /articles/:id (authenticated, owner-only).
func (h *Handlers) DeleteArticle(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a positive integer")
		return
	}
	if err := h.articleSvc.Delete(c.Request.Context(), id, memberID(c)); err != nil {
		if errors.Is(err, services.ErrArticleNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "article delete failed")
		return
	}
	noContent(c)
}

// LikeArticle handles POST /articles/:id/like (authenticated).
func (h *Handlers) LikeArticle(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a positive integer")
		return
	}
	if err := h.articleSvc.Like(c.Request.Context(), id, memberID(c)); err != nil {
		switch {
		case errors.Is(err, services.ErrArticleNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
		case errors.Is(err, services.ErrAlreadyLiked):
			fail(c, http.StatusConflict, ErrCodeConflict, "article already liked")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "like failed")
		}
		return
	}
	noContent(c)
}
