// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Team and
// TeamMember models.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// CreateTeam inserts a new team row.
func CreateTeam(ctx context.Context, db *gorm.DB, t *domain.Team) error {
	return db.WithContext(ctx).Create(t).Error
}

// GetTeam fetches a team by ID, or ErrNotFound if missing.
func GetTeam(ctx context.Context, db *gorm.DB, id int) (*domain.Team, error) {
	var t domain.Team
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTeam soft-deletes a team. Membership rows cascade at the DB level.
func DeleteTeam(ctx context.Context, db *gorm.DB, id int) error {
	res := db.WithContext(ctx).Delete(&domain.Team{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddTeamMember inserts a membership row. Duplicate membership is
// rejected by the composite unique index.
func AddTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) error {
	return db.WithContext(ctx).Create(&domain.TeamMember{
		TeamID:   teamID,
		MemberID: memberID,
	}).Error
}

// RemoveTeamMember deletes a membership row. Returns ErrNotFound when
// the member was not on the team.
func RemoveTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) error {
	res := db.WithContext(ctx).
		Where("team_id = ? AND member_id = ?", teamID, memberID).
		Delete(&domain.TeamMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsTeamMember reports whether memberID belongs to teamID.
func IsTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.TeamMember{}).
		Where("team_id = ? AND member_id = ?", teamID, memberID).
		Count(&n).Error
	return n > 0, err
}

// ListTeamMembers returns the member rows belonging to a team.
func ListTeamMembers(ctx context.Context, db *gorm.DB, teamID int) ([]domain.Member, error) {
	var out []domain.Member
	err := db.WithContext(ctx).
		Joins("JOIN team_members tm ON tm.member_id = members.id").
		Where("tm.team_id = ?", teamID).
		Find(&out).Error
	return out, err
}
