// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Comment
// model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// CreateComment inserts a new comment row.
func CreateComment(ctx context.Context, db *gorm.DB, c *domain.Comment) error {
	return db.WithContext(ctx).Create(c).Error
}

// GetComment fetches a comment by ID, or ErrNotFound if missing.
func GetComment(ctx context.Context, db *gorm.DB, id int) (*domain.Comment, error) {
	var c domain.Comment
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCommentsByArticle returns all comments on an article, oldest first.
func ListCommentsByArticle(ctx context.Context, db *gorm.DB, articleID int) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// UpdateComment rewrites the content of a comment owned by memberID.
// Returns ErrNotFound when missing or not owned by memberID.
func UpdateComment(ctx context.Context, db *gorm.DB, id, memberID int, content string) error {
	res := db.WithContext(ctx).Model(&domain.Comment{}).
		Where("id = ? AND member_id = ?", id, memberID).
		Update("content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteComment soft-deletes a comment owned by memberID. Returns
// ErrNotFound when missing or not owned by memberID.
func DeleteComment(ctx context.Context, db *gorm.DB, id, memberID int) error {
	res := db.WithContext(ctx).
		Where("id = ? AND member_id = ?", id, memberID).
		Delete(&domain.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
