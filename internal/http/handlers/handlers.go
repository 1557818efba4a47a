// Handler wiring and shared service contracts.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. Each resource's
// endpoints live in their own file; this file holds the service
// contracts, the Handlers aggregate, and small shared helpers.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/2eungwoo/moum-backend/internal/domain"
	"github.com/2eungwoo/moum-backend/internal/http/middleware"
	"github.com/2eungwoo/moum-backend/internal/services"
	"github.com/2eungwoo/moum-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService defines account operations consumed by HTTP handlers.
type AuthService interface {
	IssueVerifyCode(ctx context.Context, email string) (string, error)
	Signup(ctx context.Context, in services.SignupInput) (*domain.Member, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Deactivate(ctx context.Context, memberID int) error
	Profile(ctx context.Context, memberID int) (*domain.Member, error)
}

// RankingService defines leaderboard reads consumed by HTTP handlers.
type RankingService interface {
	TopRankings(ctx context.Context, topN int) ([]services.RankingEntry, error)
	RankOf(ctx context.Context, memberID int) (*services.RankingEntry, error)
}

// TeamService defines team lifecycle operations consumed by HTTP handlers.
type TeamService interface {
	Create(ctx context.Context, leaderID int, name, description string) (*domain.Team, error)
	Get(ctx context.Context, id int) (*domain.Team, error)
	Disband(ctx context.Context, teamID, callerID int) error
	Invite(ctx context.Context, teamID, callerID, memberID int) error
	Remove(ctx context.Context, teamID, callerID, memberID int) error
	Members(ctx context.Context, teamID int) ([]domain.Member, error)
}

// ArticleService defines article operations consumed by HTTP handlers.
type ArticleService interface {
	Create(ctx context.Context, memberID int, in services.ArticleInput) (*domain.Article, error)
	Get(ctx context.Context, id int) (*domain.Article, error)
	ListPage(ctx context.Context, category, genre string, page, pageSize int) ([]domain.Article, int64, error)
	Update(ctx context.Context, id, memberID int, in services.ArticleInput) error
	Delete(ctx context.Context, id, memberID int) error
	Like(ctx context.Context, articleID, memberID int) error
}

// CommentService defines comment operations consumed by HTTP handlers.
type CommentService interface {
	Create(ctx context.Context, articleID, memberID int, content string) (*domain.Comment, error)
	List(ctx context.Context, articleID int) ([]domain.Comment, error)
	Update(ctx context.Context, id, memberID int, content string) error
	Delete(ctx context.Context, id, memberID int) error
}

// RecordService defines activity record operations consumed by HTTP handlers.
type RecordService interface {
	Create(ctx context.Context, memberID int, title string, expAwarded int) (*domain.Record, error)
	List(ctx context.Context, memberID int) ([]domain.Record, error)
	Complete(ctx context.Context, recordID, memberID int) (*services.ExpAward, error)
}

// RecommendationService defines feed reads consumed by HTTP handlers.
type RecommendationService interface {
	Feed(ctx context.Context, memberID int) ([]domain.Article, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for every API resource. It
// depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	authSvc    AuthService
	rankSvc    RankingService
	teamSvc    TeamService
	articleSvc ArticleService
	commentSvc CommentService
	recordSvc  RecordService
	recSvc     RecommendationService
}

// New constructs a Handlers instance bound to the given services.
func New(
	authSvc AuthService,
	rankSvc RankingService,
	teamSvc TeamService,
	articleSvc ArticleService,
	commentSvc CommentService,
	recordSvc RecordService,
	recSvc RecommendationService,
) *Handlers {
	return &Handlers{
		authSvc:    authSvc,
		rankSvc:    rankSvc,
		teamSvc:    teamSvc,
		articleSvc: articleSvc,
		commentSvc: commentSvc,
		recordSvc:  recordSvc,
		recSvc:     recSvc,
	}
}

//
// Helpers
//

// memberID returns the authenticated member id set by the auth
// middleware, or 0 for anonymous requests.
func memberID(c *gin.Context) int {
	return middleware.MemberID(c)
}

// pathID parses a positive integer path parameter; a false second
// return means the caller should answer 400.
func pathID(c *gin.Context, name string) (int, bool) {
	return utils.ParseID(c.Param(name))
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to
// sane defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationFor derives the response metadata for one page.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
