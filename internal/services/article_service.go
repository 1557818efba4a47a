// Package services – ArticleService
//
// This file implements community posts: create, read (with view
// counting), paginated listing with category/genre filters, owner-only
// update and delete, and likes. A like awards the article's author
// experience points through the ranking write path.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// ArticleRepo defines the repository contract required by ArticleService.
type ArticleRepo interface {
	// CreateArticle inserts a new article row.
	CreateArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error

	// GetArticle fetches an article by id.
	GetArticle(ctx context.Context, db *gorm.DB, id int) (*domain.Article, error)

	// IncrementArticleViews bumps the article's view counter.
	IncrementArticleViews(ctx context.Context, db *gorm.DB, id int) error

	// CountArticles returns the filtered total for pagination.
	CountArticles(ctx context.Context, db *gorm.DB, category, genre string) (int64, error)

	// ListArticlesPage returns a filtered page, newest first.
	ListArticlesPage(ctx context.Context, db *gorm.DB, category, genre string, offset, limit int) ([]domain.Article, error)

	// UpdateArticle applies field updates scoped to the owning member.
	UpdateArticle(ctx context.Context, db *gorm.DB, id, memberID int, fields map[string]any) error

	// DeleteArticle soft-deletes an article scoped to the owning member.
	DeleteArticle(ctx context.Context, db *gorm.DB, id, memberID int) error

	// LikeArticle records a like and bumps the like counter atomically.
	LikeArticle(ctx context.Context, db *gorm.DB, articleID, memberID int) error

	// HasLiked reports whether the member already liked the article.
	HasLiked(ctx context.Context, db *gorm.DB, articleID, memberID int) (bool, error)
}

// ExpAwarder is the slice of RankingService the community services use
// to grant experience points.
type ExpAwarder interface {
	AwardExp(ctx context.Context, memberID, delta int) (*ExpAward, error)
}

// ArticleInput carries the writable article fields.
type ArticleInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Genre    string `json:"genre"`
}

// ArticleService provides article-level operations. It enforces title
// rules and ownership constraints.
type ArticleService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the article repository used by this service.
	Repo ArticleRepo
	// Exp grants author exp on likes.
	Exp ExpAwarder

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// LikeExp is the exp granted to an article's author per like.
	LikeExp int
	// TagLocale drives genre/category case folding.
	TagLocale language.Tag
}

// NewArticleService constructs an ArticleService with sane defaults.
func NewArticleService(db *gorm.DB, r ArticleRepo, exp ExpAwarder) *ArticleService {
	return &ArticleService{
		DB:          db,
		Repo:        r,
		Exp:         exp,
		TitleMaxLen: 120,
		LikeExp:     5,
		TagLocale:   language.Und,
	}
}

// Create inserts a new article owned by memberID. Titles are
// normalized, clipped, and must not end up blank; content is required.
func (s *ArticleService) Create(ctx context.Context, memberID int, in ArticleInput) (*domain.Article, error) {
	title := s.clip(normalizeTitle(in.Title))
	if title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, ErrEmptyContent
	}
	a := &domain.Article{
		MemberID: memberID,
		Title:    title,
		Content:  in.Content,
		Category: s.canonTag(in.Category),
		Genre:    s.canonTag(in.Genre),
	}
	if err := s.Repo.CreateArticle(ctx, s.DB, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns the article and counts the view. The view bump is
// best-effort and never fails the read.
func (s *ArticleService) Get(ctx context.Context, id int) (*domain.Article, error) {
	a, err := s.Repo.GetArticle(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if err := s.Repo.IncrementArticleViews(ctx, s.DB, id); err == nil {
		a.ViewCount++
	}
	return a, nil
}

// ListPage returns a page of articles, optionally filtered by category
// and genre, with the filtered total for pagination.
func (s *ArticleService) ListPage(ctx context.Context, category, genre string, page, pageSize int) ([]domain.Article, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountArticles(ctx, s.DB, category, genre)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Article{}, 0, nil
	}

	items, err := s.Repo.ListArticlesPage(ctx, s.DB, category, genre, offset, pageSize)
	return items, total, err
}

// Update edits an article's writable fields, scoped to the owner. A
// missing row and a foreign owner are indistinguishable and both map
// to ErrArticleNotFound.
func (s *ArticleService) Update(ctx context.Context, id, memberID int, in ArticleInput) error {
	title := s.clip(normalizeTitle(in.Title))
	if title == "" || strings.TrimSpace(in.Content) == "" {
		return ErrEmptyContent
	}
	fields := map[string]any{
		"title":    title,
		"content":  in.Content,
		"category": s.canonTag(in.Category),
		"genre":    s.canonTag(in.Genre),
	}
	if err := s.Repo.UpdateArticle(ctx, s.DB, id, memberID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	return nil
}

// Delete removes an article, scoped to the owner.
func (s *ArticleService) Delete(ctx context.Context, id, memberID int) error {
	if err := s.Repo.DeleteArticle(ctx, s.DB, id, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	return nil
}

// Like records memberID's like on the article and grants the author
// LikeExp. A member likes a given article at most once; self-likes are
// allowed but award nothing extra beyond the normal grant.
func (s *ArticleService) Like(ctx context.Context, articleID, memberID int) error {
	a, err := s.Repo.GetArticle(ctx, s.DB, articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	liked, err := s.Repo.HasLiked(ctx, s.DB, articleID, memberID)
	if err != nil {
		return err
	}
	if liked {
		return ErrAlreadyLiked
	}
	if err := s.Repo.LikeArticle(ctx, s.DB, articleID, memberID); err != nil {
		return err
	}
	if s.Exp != nil && s.LikeExp > 0 {
		// Award failures do not unwind the recorded like.
		if _, err := s.Exp.AwardExp(ctx, a.MemberID, s.LikeExp); err != nil {
			log.Warn().Err(err).Int("member_id", a.MemberID).Int("article_id", articleID).
				Msg("like exp award failed")
		}
	}
	return nil
}

// canonTag lowercases a category or genre tag so filtering and the
// recommendation genre match are case-insensitive.
func (s *ArticleService) canonTag(tag string) string {
	return cases.Lower(s.TagLocale).String(strings.TrimSpace(tag))
}

// clip truncates a title to the configured maximum rune length.
func (s *ArticleService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
