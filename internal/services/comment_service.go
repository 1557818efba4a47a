// Package services – CommentService
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// CommentRepo defines the repository contract required by CommentService.
type CommentRepo interface {
	// CreateComment inserts a new comment row.
	CreateComment(ctx context.Context, db *gorm.DB, c *domain.Comment) error

	// GetArticle confirms the parent article exists before commenting.
	GetArticle(ctx context.Context, db *gorm.DB, id int) (*domain.Article, error)

	// ListCommentsByArticle returns an article's comments, oldest first.
	ListCommentsByArticle(ctx context.Context, db *gorm.DB, articleID int) ([]domain.Comment, error)

	// UpdateComment edits a comment scoped to its author.
	UpdateComment(ctx context.Context, db *gorm.DB, id, memberID int, content string) error

	// DeleteComment soft-deletes a comment scoped to its author.
	DeleteComment(ctx context.Context, db *gorm.DB, id, memberID int) error
}

// CommentService provides comment operations on articles. Posting a
// comment grants the commenter a small exp award.
type CommentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the comment repository used by this service.
	Repo CommentRepo
	// Exp grants commenter exp on create.
	Exp ExpAwarder

	// CommentExp is the exp granted per posted comment.
	CommentExp int
}

// NewCommentService constructs a CommentService with the default award.
func NewCommentService(db *gorm.DB, r CommentRepo, exp ExpAwarder) *CommentService {
	return &CommentService{DB: db, Repo: r, Exp: exp, CommentExp: 2}
}

// Create posts a comment on the article and grants the commenter
// CommentExp. The parent article must exist; blank content is rejected.
// Award failures do not unwind the stored comment.
func (s *CommentService) Create(ctx context.Context, articleID, memberID int, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if _, err := s.Repo.GetArticle(ctx, s.DB, articleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	c := &domain.Comment{
		ArticleID: articleID,
		MemberID:  memberID,
		Content:   content,
	}
	if err := s.Repo.CreateComment(ctx, s.DB, c); err != nil {
		return nil, err
	}
	if s.Exp != nil && s.CommentExp > 0 {
		if _, err := s.Exp.AwardExp(ctx, memberID, s.CommentExp); err != nil {
			log.Warn().Err(err).Int("member_id", memberID).Int("article_id", articleID).
				Msg("comment exp award failed")
		}
	}
	return c, nil
}

// List returns the article's comments, oldest first.
func (s *CommentService) List(ctx context.Context, articleID int) ([]domain.Comment, error) {
	return s.Repo.ListCommentsByArticle(ctx, s.DB, articleID)
}

// Update edits a comment's content, scoped to its author. A missing
// row and a foreign author both map to ErrCommentNotFound.
func (s *CommentService) Update(ctx context.Context, id, memberID int, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if err := s.Repo.UpdateComment(ctx, s.DB, id, memberID, content); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

// Delete removes a comment, scoped to its author.
func (s *CommentService) Delete(ctx context.Context, id, memberID int) error {
	if err := s.Repo.DeleteComment(ctx, s.DB, id, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}
