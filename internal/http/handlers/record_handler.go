// Activity record HTTP handlers.
//
// This file exposes REST endpoints for activity records and the
// recommendation feed:
//   - POST /records               (create a pending record)
//   - GET  /records               (own records)
//   - POST /records/:id/complete  (complete, awards exp)
//   - GET  /recommendations       (precomputed feed)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/2eungwoo/moum-backend/internal/services"
)

// CreateRecordRequest is the JSON payload for creating a record.
type CreateRecordRequest struct {
	Title      string `json:"title" binding:"required"`
	ExpAwarded int    `json:"exp_awarded" binding:"required,min=1"`
}

// CreateRecord handles POST /records (authenticated).
func (h *Handlers) CreateRecord(c *gin.Context) {
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and positive exp_awarded required")
		return
	}
	r, err := h.recordSvc.Create(c.Request.Context(), memberID(c), req.Title, req.ExpAwarded)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyContent), errors.Is(err, services.ErrInvalidExpDelta):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and positive exp_awarded required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "record create failed")
		}
		return
	}
	ok(c, http.StatusCreated, r)
}

// ListRecords handles GET /records (authenticated, own records).
func (h *Handlers) ListRecords(c *gin.Context) {
	items, err := h.recordSvc.List(c.Request.Context(), memberID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "record list failed")
		return
	}
	ok(c, http.StatusOK, items)
}

// CompleteRecord handles POST /records/:id/complete (authenticated).
// Success returns the award outcome, including whether the leaderboard
// cache kept up with the durable write.
func (h *Handlers) CompleteRecord(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "record id must be a positive integer")
		return
	}
	award, err := h.recordSvc.Complete(c.Request.Context(), id, memberID(c))
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found or already completed")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "completion failed")
		return
	}
	ok(c, http.StatusOK, award)
}

// Recommendations handles GET /recommendations (authenticated). An
// absent or unreachable precomputed list yields an empty feed.
func (h *Handlers) Recommendations(c *gin.Context) {
	items, err := h.recSvc.Feed(c.Request.Context(), memberID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "feed load failed")
		return
	}
	ok(c, http.StatusOK, items)
}
