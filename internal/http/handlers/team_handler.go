// Team HTTP handlers.
//
// This file exposes REST endpoints for teams:
//   - POST   /teams                          (create, caller becomes leader)
//   - GET    /teams/:id                      (read)
//   - GET    /teams/:id/members              (roster)
//   - POST   /teams/:id/members/:memberID    (leader invites)
//   - DELETE /teams/:id/members/:memberID    (leader removes / member leaves)
//   - DELETE /teams/:id                      (leader disbands)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/2eungwoo/moum-backend/internal/services"
)

// CreateTeamRequest is the JSON payload for creating a team.
type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateTeam handles POST /teams (authenticated).
func (h *Handlers) CreateTeam(c *gin.Context) {
	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "team name required")
		return
	}
	t, err := h.teamSvc.Create(c.Request.Context(), memberID(c), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrEmptyContent) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "team name required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "team create failed")
		return
	}
	ok(c, http.StatusCreated, t)
}

// GetTeam handles GET /teams/:id.
func (h *Handlers) GetTeam(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "team id must be a positive integer")
		return
	}
	t, err := h.teamSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTeamNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "team not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "team load failed")
		return
	}
	ok(c, http.StatusOK, t)
}

// TeamMembers handles GET /teams/:id/members.
func (h *Handlers) TeamMembers(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "team id must be a positive integer")
		return
	}
	members, err := h.teamSvc.Members(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTeamNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "team not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "roster load failed")
		return
	}
	ok(c, http.StatusOK, members)
}

// InviteTeamMember handles POST /teams/:id/members/:memberID
// (authenticated, leader-only).
func (h *Handlers) InviteTeamMember(c *gin.Context) {
	teamID, validTeam := pathID(c, "id")
	target, validMember := pathID(c, "memberID")
	if !validTeam || !validMember {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ids must be positive integers")
		return
	}
	if err := h.teamSvc.Invite(c.Request.Context(), teamID, memberID(c), target); err != nil {
		switch {
		case errors.Is(err, services.ErrTeamNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "team not found")
		case errors.Is(err, services.ErrNotTeamLeader):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the leader may invite")
		case errors.Is(err, services.ErrAlreadyTeamMember):
			fail(c, http.StatusConflict, ErrCodeConflict, "member already on the team")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "invite failed")
		}
		return
	}
	noContent(c)
}

// RemoveTeamMember handles DELETE /teams/:id/members/:memberID
// (authenticated). The leader may remove anyone but themselves; a
// member may remove only themselves.
func (h *Handlers) RemoveTeamMember(c *gin.Context) {
	teamID, validTeam := pathID(c, "id")
	target, validMember := pathID(c, "memberID")
	if !validTeam || !validMember {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ids must be positive integers")
		return
	}
	if err := h.teamSvc.Remove(c.Request.Context(), teamID, memberID(c), target); err != nil {
		switch {
		case errors.Is(err, services.ErrTeamNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "team not found")
		case errors.Is(err, services.ErrNotTeamLeader):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed to remove this member")
		case errors.Is(err, services.ErrNotTeamMember):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "member not on the team")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "removal failed")
		}
		return
	}
	noContent(c)
}

// DisbandTeam handles DELETE /teams/:id (authenticated, leader-only).
func (h *Handlers) DisbandTeam(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "team id must be a positive integer")
		return
	}
	if err := h.teamSvc.Disband(c.Request.Context(), id, memberID(c)); err != nil {
		switch {
		case errors.Is(err, services.ErrTeamNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "team not found")
		case errors.Is(err, services.ErrNotTeamLeader):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the leader may disband")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "disband failed")
		}
		return
	}
	noContent(c)
}
