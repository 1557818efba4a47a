// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// ArticlesStats returns aggregate metadata for the article listing: the
// total number of rows matching the optional category/genre filters and
// the maximum UpdatedAt timestamp among those rows.
//
// When no article matches, the returned count is 0 and maxUpdatedAt is nil.
func ArticlesStats(ctx context.Context, db *gorm.DB, category, genre string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Article{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if genre != "" {
		q = q.Where("genre = ?", genre)
	}

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
