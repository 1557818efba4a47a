// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Member
// model, including the durable-store side of the ranking contract.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a member is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Ranking queries:
//
//   - TopMembersByExp(ctx, db, n) -> []domain.Member, error
//     Fallback leaderboard read: members ordered by exp descending.
//
//   - RankByExp(ctx, db, exp) -> (int64, error)
//     Fallback personal rank: 1 + count(members with exp > given exp).
//
//   - MembersByIDs(ctx, db, ids) -> []domain.Member, error
//     Batched hydration lookup for cache-sourced leaderboard pages.
//
//   - MembersUpdatedSince(ctx, db, since, afterID, limit) -> []domain.Member, error
//     Keyset page scan for the reconciliation job, ordered by id
//     ascending for stable coverage under concurrent tail inserts.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateMember inserts a new member row. The caller is responsible for
// hashing the password and checking uniqueness beforehand (the unique
// indexes are the final arbiter).
func CreateMember(ctx context.Context, db *gorm.DB, m *domain.Member) error {
	return db.WithContext(ctx).Create(m).Error
}

// GetMember fetches a member by ID, or ErrNotFound if missing.
func GetMember(ctx context.Context, db *gorm.DB, id int) (*domain.Member, error) {
	var m domain.Member
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMemberByUsername fetches a member by unique username, or ErrNotFound.
func GetMemberByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Member, error) {
	var m domain.Member
	err := db.WithContext(ctx).Where("username = ?", username).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ExistsMemberByUsername reports whether a member with the username exists.
func ExistsMemberByUsername(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Member{}).
		Where("username = ?", username).
		Count(&n).Error
	return n > 0, err
}

// ExistsMemberByEmail reports whether a member with the email exists.
func ExistsMemberByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Member{}).
		Where("email = ?", email).
		Count(&n).Error
	return n > 0, err
}

// SetMemberActive flips the account's active flag (signout / reactivation).
// Returns ErrNotFound when no row was affected.
func SetMemberActive(ctx context.Context, db *gorm.DB, id int, active bool) error {
	res := db.WithContext(ctx).Model(&domain.Member{}).
		Where("id = ?", id).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddMemberExp applies an exp increment inside a transaction: it loads
// the member, adds delta (a null exp counts as zero), refreshes the
// derived tier, and stamps exp_updated_at with now. The updated member
// is returned. ErrNotFound propagates when the id does not resolve.
func AddMemberExp(ctx context.Context, db *gorm.DB, id, delta int, now time.Time) (*domain.Member, error) {
	var m domain.Member
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		total := m.ExpValue() + delta
		m.Exp = &total
		m.Tier = domain.TierFor(total)
		m.ExpUpdatedAt = &now
		return tx.Model(&m).Updates(map[string]any{
			"exp":            total,
			"tier":           m.Tier,
			"exp_updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// TopMembersByExp returns up to limit members ordered by exp descending.
// Members that have never been awarded exp (null) are excluded; this is
// the durable-store fallback for the leaderboard read path.
func TopMembersByExp(ctx context.Context, db *gorm.DB, limit int) ([]domain.Member, error) {
	var out []domain.Member
	err := db.WithContext(ctx).
		Where("exp IS NOT NULL").
		Order("exp desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RankByExp computes the 1-based rank a given exp total would hold:
// one plus the number of members with a strictly greater exp.
func RankByExp(ctx context.Context, db *gorm.DB, exp int) (int64, error) {
	var higher int64
	err := db.WithContext(ctx).Model(&domain.Member{}).
		Where("exp > ?", exp).
		Count(&higher).Error
	return higher + 1, err
}

// MembersByIDs returns the members whose IDs appear in ids, in no
// particular order. Callers re-order against their own sequence.
func MembersByIDs(ctx context.Context, db *gorm.DB, ids []int) ([]domain.Member, error) {
	if len(ids) == 0 {
		return []domain.Member{}, nil
	}
	var out []domain.Member
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// MembersUpdatedSince returns one keyset page of members for the
// reconciliation scan: rows with exp_updated_at strictly after since
// (a zero since selects every member that has exp) and id greater than
// afterID, ordered by id ascending, at most limit rows.
func MembersUpdatedSince(ctx context.Context, db *gorm.DB, since time.Time, afterID, limit int) ([]domain.Member, error) {
	q := db.WithContext(ctx).
		Where("exp IS NOT NULL").
		Where("id > ?", afterID)
	if !since.IsZero() {
		q = q.Where("exp_updated_at > ?", since)
	}
	var out []domain.Member
	err := q.Order("id asc").Limit(limit).Find(&out).Error
	return out, err
}

// MembersPage returns one keyset page over all members (id ascending),
// used by the recommendation job's full scan.
func MembersPage(ctx context.Context, db *gorm.DB, afterID, limit int) ([]domain.Member, error) {
	var out []domain.Member
	err := db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
