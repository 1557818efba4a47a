// Package domain defines the persistence models for members, teams,
// articles, comments, and activity records. These types are mapped with
// GORM and form the core data layer of the moum platform.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Member represents a platform account. Members accumulate experience
// points (Exp) through community activity; Exp drives the leaderboard
// and the derived Tier band.
//
// Fields:
//   - ID: integer primary key, referenced by the ranking cache as the
//     sorted-set member key.
//   - Username / Email: unique credentials chosen at signup.
//   - Password: bcrypt hash, never serialized to JSON.
//   - Exp: nullable until the first award; monotonically non-decreasing.
//   - ExpUpdatedAt: watermark consumed by the ranking reconciliation job.
//   - Tier: rank band derived from Exp (see TierFor).
//   - Active / BanStatus: account lifecycle flags.
type Member struct {
	ID              int            `json:"id"                gorm:"primaryKey"`
	Username        string         `json:"username"          gorm:"type:varchar(64);not null;uniqueIndex"`
	Nickname        string         `json:"nickname"          gorm:"type:varchar(64);not null"`
	Email           string         `json:"email"             gorm:"type:varchar(255);not null;uniqueIndex"`
	Password        string         `json:"-"                 gorm:"type:varchar(255);not null"`
	ProfileImageURL string         `json:"profile_image_url" gorm:"type:varchar(512)"`
	Genre           string         `json:"genre"             gorm:"type:varchar(64)"`
	Active          bool           `json:"active"            gorm:"not null;default:true"`
	BanStatus       bool           `json:"ban_status"        gorm:"not null;default:false"`
	Exp             *int           `json:"exp,omitempty"`
	ExpUpdatedAt    *time.Time     `json:"exp_updated_at,omitempty" gorm:"index"`
	Tier            string         `json:"tier"              gorm:"type:varchar(16);not null;default:'BRONZE'"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"                 gorm:"index"`
}

// TableName returns the database table name for Member.
func (Member) TableName() string { return "members" }

// ExpValue returns the member's experience points, treating a null Exp
// as zero.
func (m *Member) ExpValue() int {
	if m.Exp == nil {
		return 0
	}
	return *m.Exp
}

// Tier bands. A member's band is the highest threshold their Exp meets
// or exceeds.
const (
	TierBronze   = "BRONZE"
	TierSilver   = "SILVER"
	TierGold     = "GOLD"
	TierPlatinum = "PLATINUM"
	TierDiamond  = "DIAMOND"
)

// TierFor maps an experience total to its rank band.
func TierFor(exp int) string {
	switch {
	case exp >= 5000:
		return TierDiamond
	case exp >= 2000:
		return TierPlatinum
	case exp >= 800:
		return TierGold
	case exp >= 300:
		return TierSilver
	default:
		return TierBronze
	}
}

// Team is a group of members led by the member identified by LeaderID.
// Membership rows live in TeamMember.
type Team struct {
	ID          int            `json:"id"          gorm:"primaryKey"`
	LeaderID    int            `json:"leader_id"   gorm:"not null;index"`
	Name        string         `json:"name"        gorm:"type:varchar(64);not null;uniqueIndex"`
	Description string         `json:"description" gorm:"type:varchar(512)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Team.
func (Team) TableName() string { return "teams" }

// TeamMember links a member to a team. A member joins a given team at
// most once (enforced by the composite unique index).
type TeamMember struct {
	ID        int       `json:"id"        gorm:"primaryKey"`
	TeamID    int       `json:"team_id"   gorm:"not null;uniqueIndex:ux_team_member,priority:1"`
	MemberID  int       `json:"member_id" gorm:"not null;uniqueIndex:ux_team_member,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`

	// Team is the parent; membership rows are cascade-deleted with it.
	Team Team `json:"-" gorm:"foreignKey:TeamID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for TeamMember.
func (TeamMember) TableName() string { return "team_members" }

// Article is a community post. Genre doubles as the matching key for
// the recommendation job; ViewCount and LikeCount feed its popularity
// score.
type Article struct {
	ID        int            `json:"id"         gorm:"primaryKey"`
	MemberID  int            `json:"member_id"  gorm:"not null;index"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	Category  string         `json:"category"   gorm:"type:varchar(32);not null;index"`
	Genre     string         `json:"genre"      gorm:"type:varchar(64);index"`
	ViewCount int            `json:"view_count" gorm:"not null;default:0"`
	LikeCount int            `json:"like_count" gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Article.
func (Article) TableName() string { return "articles" }

// ArticleLike records that a member liked an article; one like per
// member per article.
type ArticleLike struct {
	ID        int       `json:"id"         gorm:"primaryKey"`
	ArticleID int       `json:"article_id" gorm:"not null;uniqueIndex:ux_article_like,priority:1"`
	MemberID  int       `json:"member_id"  gorm:"not null;uniqueIndex:ux_article_like,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`

	Article Article `json:"-" gorm:"foreignKey:ArticleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ArticleLike.
func (ArticleLike) TableName() string { return "article_likes" }

// Comment is a member's reply on an article.
type Comment struct {
	ID        int            `json:"id"         gorm:"primaryKey"`
	ArticleID int            `json:"article_id" gorm:"not null;index"`
	MemberID  int            `json:"member_id"  gorm:"not null;index"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Article Article `json:"-" gorm:"foreignKey:ArticleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Record is a member activity entry (practice session, performance,
// and so on). Completing a record awards its ExpAwarded through the
// ranking write path.
type Record struct {
	ID          int            `json:"id"           gorm:"primaryKey"`
	MemberID    int            `json:"member_id"    gorm:"not null;index"`
	Title       string         `json:"title"        gorm:"type:varchar(255);not null"`
	ExpAwarded  int            `json:"exp_awarded"  gorm:"not null;default:0"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Record.
func (Record) TableName() string { return "records" }
