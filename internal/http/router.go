// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/cache"
	"github.com/2eungwoo/moum-backend/internal/config"
	"github.com/2eungwoo/moum-backend/internal/domain"
	"github.com/2eungwoo/moum-backend/internal/http/handlers"
	"github.com/2eungwoo/moum-backend/internal/http/middleware"
	"github.com/2eungwoo/moum-backend/internal/repo"
	"github.com/2eungwoo/moum-backend/internal/services"
)

// memberRepoShim adapts the repository free functions to the
// services.MemberRepo and services.MemberRankRepo interfaces. This keeps
// services decoupled from the concrete repo package while reusing
// existing functions.
type memberRepoShim struct{}

// CreateMember proxies repo.CreateMember.
func (memberRepoShim) CreateMember(ctx context.Context, db *gorm.DB, m *domain.Member) error {
	return repo.CreateMember(ctx, db, m)
}

// GetMember proxies repo.GetMember.
func (memberRepoShim) GetMember(ctx context.Context, db *gorm.DB, id int) (*domain.Member, error) {
	return repo.GetMember(ctx, db, id)
}

// GetMemberByUsername proxies repo.GetMemberByUsername.
func (memberRepoShim) GetMemberByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Member, error) {
	return repo.GetMemberByUsername(ctx, db, username)
}

// ExistsMemberByUsername proxies repo.ExistsMemberByUsername.
func (memberRepoShim) ExistsMemberByUsername(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	return repo.ExistsMemberByUsername(ctx, db, username)
}

// ExistsMemberByEmail proxies repo.ExistsMemberByEmail.
func (memberRepoShim) ExistsMemberByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	return repo.ExistsMemberByEmail(ctx, db, email)
}

// SetMemberActive proxies repo.SetMemberActive.
func (memberRepoShim) SetMemberActive(ctx context.Context, db *gorm.DB, id int, active bool) error {
	return repo.SetMemberActive(ctx, db, id, active)
}

// AddMemberExp proxies repo.AddMemberExp (leaderboard support).
func (memberRepoShim) AddMemberExp(ctx context.Context, db *gorm.DB, id, delta int, now time.Time) (*domain.Member, error) {
	return repo.AddMemberExp(ctx, db, id, delta, now)
}

// TopMembersByExp proxies repo.TopMembersByExp (leaderboard support).
func (memberRepoShim) TopMembersByExp(ctx context.Context, db *gorm.DB, limit int) ([]domain.Member, error) {
	return repo.TopMembersByExp(ctx, db, limit)
}

// RankByExp proxies repo.RankByExp (leaderboard support).
func (memberRepoShim) RankByExp(ctx context.Context, db *gorm.DB, exp int) (int64, error) {
	return repo.RankByExp(ctx, db, exp)
}

// MembersByIDs proxies repo.MembersByIDs (leaderboard support).
func (memberRepoShim) MembersByIDs(ctx context.Context, db *gorm.DB, ids []int) ([]domain.Member, error) {
	return repo.MembersByIDs(ctx, db, ids)
}

// articleRepoShim adapts the repository free functions to the
// services.ArticleRepo and services.ArticleBatchRepo interfaces.
type articleRepoShim struct{}

// CreateArticle proxies repo.CreateArticle.
func (articleRepoShim) CreateArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error {
	return repo.CreateArticle(ctx, db, a)
}

// GetArticle proxies repo.GetArticle.
func (articleRepoShim) GetArticle(ctx context.Context, db *gorm.DB, id int) (*domain.Article, error) {
	return repo.GetArticle(ctx, db, id)
}

// IncrementArticleViews proxies repo.IncrementArticleViews.
func (articleRepoShim) IncrementArticleViews(ctx context.Context, db *gorm.DB, id int) error {
	return repo.IncrementArticleViews(ctx, db, id)
}

// CountArticles proxies repo.CountArticles (pagination support).
func (articleRepoShim) CountArticles(ctx context.Context, db *gorm.DB, category, genre string) (int64, error) {
	return repo.CountArticles(ctx, db, category, genre)
}

// ListArticlesPage proxies repo.ListArticlesPage (pagination support).
func (articleRepoShim) ListArticlesPage(ctx context.Context, db *gorm.DB, category, genre string, offset, limit int) ([]domain.Article, error) {
	return repo.ListArticlesPage(ctx, db, category, genre, offset, limit)
}

// UpdateArticle proxies repo.UpdateArticle.
func (articleRepoShim) UpdateArticle(ctx context.Context, db *gorm.DB, id, memberID int, fields map[string]any) error {
	return repo.UpdateArticle(ctx, db, id, memberID, fields)
}

// DeleteArticle proxies repo.DeleteArticle.
func (articleRepoShim) DeleteArticle(ctx context.Context, db *gorm.DB, id, memberID int) error {
	return repo.DeleteArticle(ctx, db, id, memberID)
}

// LikeArticle proxies repo.LikeArticle.
func (articleRepoShim) LikeArticle(ctx context.Context, db *gorm.DB, articleID, memberID int) error {
	return repo.LikeArticle(ctx, db, articleID, memberID)
}

// HasLiked proxies repo.HasLiked.
func (articleRepoShim) HasLiked(ctx context.Context, db *gorm.DB, articleID, memberID int) (bool, error) {
	return repo.HasLiked(ctx, db, articleID, memberID)
}

// ArticlesByIDs proxies repo.ArticlesByIDs (feed hydration support).
func (articleRepoShim) ArticlesByIDs(ctx context.Context, db *gorm.DB, ids []int) ([]domain.Article, error) {
	return repo.ArticlesByIDs(ctx, db, ids)
}

// commentRepoShim adapts the repository free functions to the
// services.CommentRepo interface.
type commentRepoShim struct{}

// CreateComment proxies repo.CreateComment.
func (commentRepoShim) CreateComment(ctx context.Context, db *gorm.DB, cm *domain.Comment) error {
	return repo.CreateComment(ctx, db, cm)
}

// GetArticle proxies repo.GetArticle (parent existence check).
func (commentRepoShim) GetArticle(ctx context.Context, db *gorm.DB, id int) (*domain.Article, error) {
	return repo.GetArticle(ctx, db, id)
}

// ListCommentsByArticle proxies repo.ListCommentsByArticle.
func (commentRepoShim) ListCommentsByArticle(ctx context.Context, db *gorm.DB, articleID int) ([]domain.Comment, error) {
	return repo.ListCommentsByArticle(ctx, db, articleID)
}

// UpdateComment proxies repo.UpdateComment.
func (commentRepoShim) UpdateComment(ctx context.Context, db *gorm.DB, id, memberID int, content string) error {
	return repo.UpdateComment(ctx, db, id, memberID, content)
}

// DeleteComment proxies repo.DeleteComment.
func (commentRepoShim) DeleteComment(ctx context.Context, db *gorm.DB, id, memberID int) error {
	return repo.DeleteComment(ctx, db, id, memberID)
}

// teamRepoShim adapts the repository free functions to the
// services.TeamRepo interface.
type teamRepoShim struct{}

// CreateTeam proxies repo.CreateTeam.
func (teamRepoShim) CreateTeam(ctx context.Context, db *gorm.DB, t *domain.Team) error {
	return repo.CreateTeam(ctx, db, t)
}

// GetTeam proxies repo.GetTeam.
func (teamRepoShim) GetTeam(ctx context.Context, db *gorm.DB, id int) (*domain.Team, error) {
	return repo.GetTeam(ctx, db, id)
}

// DeleteTeam proxies repo.DeleteTeam.
func (teamRepoShim) DeleteTeam(ctx context.Context, db *gorm.DB, id int) error {
	return repo.DeleteTeam(ctx, db, id)
}

// AddTeamMember proxies repo.AddTeamMember.
func (teamRepoShim) AddTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) error {
	return repo.AddTeamMember(ctx, db, teamID, memberID)
}

// RemoveTeamMember proxies repo.RemoveTeamMember.
func (teamRepoShim) RemoveTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) error {
	return repo.RemoveTeamMember(ctx, db, teamID, memberID)
}

// IsTeamMember proxies repo.IsTeamMember.
func (teamRepoShim) IsTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) (bool, error) {
	return repo.IsTeamMember(ctx, db, teamID, memberID)
}

// ListTeamMembers proxies repo.ListTeamMembers.
func (teamRepoShim) ListTeamMembers(ctx context.Context, db *gorm.DB, teamID int) ([]domain.Member, error) {
	return repo.ListTeamMembers(ctx, db, teamID)
}

// recordRepoShim adapts the repository free functions to the
// services.RecordRepo interface.
type recordRepoShim struct{}

// CreateRecord proxies repo.CreateRecord.
func (recordRepoShim) CreateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	return repo.CreateRecord(ctx, db, rec)
}

// GetRecord proxies repo.GetRecord.
func (recordRepoShim) GetRecord(ctx context.Context, db *gorm.DB, id int) (*domain.Record, error) {
	return repo.GetRecord(ctx, db, id)
}

// ListRecordsByMember proxies repo.ListRecordsByMember.
func (recordRepoShim) ListRecordsByMember(ctx context.Context, db *gorm.DB, memberID int) ([]domain.Record, error) {
	return repo.ListRecordsByMember(ctx, db, memberID)
}

// CompleteRecord proxies repo.CompleteRecord.
func (recordRepoShim) CompleteRecord(ctx context.Context, db *gorm.DB, id, memberID int, at time.Time) error {
	return repo.CompleteRecord(ctx, db, id, memberID, at)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Response compression
//  8. Rate limiter (per member/IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured request logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per member/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByMemberOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/cache
	rankStore := cache.NewRankingStore(rdb, cfg.Redis.RankingKey, cfg.Redis.OpTimeout)
	verifyStore := cache.NewVerifyStore(rdb, cfg.Redis.OpTimeout)
	recStore := cache.NewRecommendationStore(rdb, cfg.Redis.RecommendKeyPrefix, cfg.Redis.OpTimeout)

	rankSvc := services.NewRankingService(db, memberRepoShim{}, rankStore)
	memberSvc := services.NewMemberService(db, memberRepoShim{}, verifyStore,
		cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.VerifyCodeTTL)
	articleSvc := services.NewArticleService(db, articleRepoShim{}, rankSvc)
	articleSvc.TagLocale = language.English
	commentSvc := services.NewCommentService(db, commentRepoShim{}, rankSvc)
	teamSvc := services.NewTeamService(db, teamRepoShim{})
	recordSvc := services.NewRecordService(db, recordRepoShim{}, rankSvc)
	recSvc := services.NewRecommendationService(db, articleRepoShim{}, recStore)

	h := handlers.New(memberSvc, rankSvc, teamSvc, articleSvc, commentSvc, recordSvc, recSvc)

	auth := middleware.Auth(cfg.Auth.JWTSecret)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Accounts
		api.POST("/auth/verify-code", h.IssueVerifyCode)
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/signout", auth, h.Signout)
		api.GET("/members/me", auth, h.Me)

		// Leaderboard
		api.GET("/ranking/top/:n", h.TopRankings)
		api.GET("/ranking/me", auth, h.MyRanking)

		// Teams
		api.POST("/teams", auth, h.CreateTeam)
		api.GET("/teams/:id", h.GetTeam)
		api.GET("/teams/:id/members", h.TeamMembers)
		api.POST("/teams/:id/members/:memberID", auth, h.InviteTeamMember)
		api.DELETE("/teams/:id/members/:memberID", auth, h.RemoveTeamMember)
		api.DELETE("/teams/:id", auth, h.DisbandTeam)

		// Articles
		api.POST("/articles", auth, h.CreateArticle)
		api.GET("/articles", h.ListArticles)
		api.GET("/articles/:id", h.GetArticle)
		api.PUT("/articles/:id", auth, h.UpdateArticle)
		api.DELETE("/articles/:id", auth, h.DeleteArticle)
		api.POST("/articles/:id/like", auth, h.LikeArticle)

		// Comments
		api.POST("/articles/:id/comments", auth, h.CreateComment)
		api.GET("/articles/:id/comments", h.ListComments)
		api.PUT("/comments/:id", auth, h.UpdateComment)
		api.DELETE("/comments/:id", auth, h.DeleteComment)

		// Activity records
		api.POST("/records", auth, h.CreateRecord)
		api.GET("/records", auth, h.ListRecords)
		api.POST("/records/:id/complete", auth, h.CompleteRecord)

		// Recommendations
		api.GET("/recommendations", auth, h.Recommendations)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
