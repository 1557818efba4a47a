// Leaderboard HTTP handlers.
//
// This file exposes the ranking read endpoints:
//   - GET /ranking/top/:n   (public top-N page, n clamped server-side)
//   - GET /ranking/me       (authenticated member's own position)
//
// Both reads degrade to equivalent durable queries when the cache is
// unavailable, so neither endpoint ever fails because of cache trouble.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/2eungwoo/moum-backend/internal/services"
	"github.com/2eungwoo/moum-backend/internal/utils"
)

// TopRankingsResponse wraps a leaderboard page.
type TopRankingsResponse struct {
	Rankings []services.RankingEntry `json:"rankings"`
}

// TopRankings handles GET /ranking/top/:n. Out-of-range n values are
// coerced rather than rejected, so any n yields a valid page.
func (h *Handlers) TopRankings(c *gin.Context) {
	n := utils.AtoiDefault(c.Param("n"), 0)

	entries, err := h.rankSvc.TopRankings(c.Request.Context(), n)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "leaderboard unavailable")
		return
	}
	ok(c, http.StatusOK, TopRankingsResponse{Rankings: entries})
}

// MyRanking handles GET /ranking/me (authenticated).
func (h *Handlers) MyRanking(c *gin.Context) {
	entry, err := h.rankSvc.RankOf(c.Request.Context(), memberID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "member not found")
		case errors.Is(err, services.ErrMemberNotRanked):
			fail(c, http.StatusNotFound, ErrCodeNotRanked, "member has no ranking yet")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "ranking unavailable")
		}
		return
	}
	ok(c, http.StatusOK, entry)
}
