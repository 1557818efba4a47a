// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Article
// and ArticleLike models.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// CreateArticle inserts a new article row.
func CreateArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error {
	return db.WithContext(ctx).Create(a).Error
}

// GetArticle fetches an article by ID, or ErrNotFound if missing.
func GetArticle(ctx context.Context, db *gorm.DB, id int) (*domain.Article, error) {
	var a domain.Article
	if err := db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// IncrementArticleViews bumps the view counter atomically in SQL.
func IncrementArticleViews(ctx context.Context, db *gorm.DB, id int) error {
	return db.WithContext(ctx).Model(&domain.Article{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// CountArticles returns the number of articles matching the optional
// category and genre filters (empty string skips the filter).
func CountArticles(ctx context.Context, db *gorm.DB, category, genre string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Article{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if genre != "" {
		q = q.Where("genre = ?", genre)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListArticlesPage returns a paginated slice of articles matching the
// optional filters, newest first. The caller computes offset and limit.
func ListArticlesPage(ctx context.Context, db *gorm.DB, category, genre string, offset, limit int) ([]domain.Article, error) {
	q := db.WithContext(ctx)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if genre != "" {
		q = q.Where("genre = ?", genre)
	}
	var out []domain.Article
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// UpdateArticle updates title, content, category, and genre of the
// article owned by memberID. Returns ErrNotFound when missing or not
// owned by memberID.
func UpdateArticle(ctx context.Context, db *gorm.DB, id, memberID int, fields map[string]any) error {
	res := db.WithContext(ctx).Model(&domain.Article{}).
		Where("id = ? AND member_id = ?", id, memberID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteArticle soft-deletes the article owned by memberID. Returns
// ErrNotFound when missing or not owned by memberID.
func DeleteArticle(ctx context.Context, db *gorm.DB, id, memberID int) error {
	res := db.WithContext(ctx).
		Where("id = ? AND member_id = ?", id, memberID).
		Delete(&domain.Article{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ArticlesByIDs returns the articles whose IDs appear in ids, in no
// particular order; the recommendation read path re-orders them.
func ArticlesByIDs(ctx context.Context, db *gorm.DB, ids []int) ([]domain.Article, error) {
	if len(ids) == 0 {
		return []domain.Article{}, nil
	}
	var out []domain.Article
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// AllArticles returns every live article. The recommendation job uses
// this as its candidate pool; volumes are bounded by the community's
// article count.
func AllArticles(ctx context.Context, db *gorm.DB) ([]domain.Article, error) {
	var out []domain.Article
	err := db.WithContext(ctx).Find(&out).Error
	return out, err
}

// LikeArticle inserts a like row and bumps the article's like counter
// in one transaction. The unique index rejects duplicate likes, which
// surfaces as a constraint error for the service layer to translate.
func LikeArticle(ctx context.Context, db *gorm.DB, articleID, memberID int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &domain.ArticleLike{ArticleID: articleID, MemberID: memberID}
		if err := tx.Create(like).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Article{}).
			Where("id = ?", articleID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
}

// HasLiked reports whether memberID already liked articleID.
func HasLiked(ctx context.Context, db *gorm.DB, articleID, memberID int) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.ArticleLike{}).
		Where("article_id = ? AND member_id = ?", articleID, memberID).
		Count(&n).Error
	return n > 0, err
}
