// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Record
// model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// CreateRecord inserts a new activity record row.
func CreateRecord(ctx context.Context, db *gorm.DB, r *domain.Record) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetRecord fetches a record by ID, or ErrNotFound if missing.
func GetRecord(ctx context.Context, db *gorm.DB, id int) (*domain.Record, error) {
	var r domain.Record
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecordsByMember returns a member's records, newest first.
func ListRecordsByMember(ctx context.Context, db *gorm.DB, memberID int) ([]domain.Record, error) {
	var out []domain.Record
	err := db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CompleteRecord stamps completed_at on an uncompleted record owned by
// memberID. Returns ErrNotFound when the record is missing, not owned,
// or already completed (the write path must award exp at most once).
func CompleteRecord(ctx context.Context, db *gorm.DB, id, memberID int, at time.Time) error {
	res := db.WithContext(ctx).Model(&domain.Record{}).
		Where("id = ? AND member_id = ? AND completed_at IS NULL", id, memberID).
		Update("completed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
