// Package services – TeamService
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// TeamRepo defines the repository contract required by TeamService.
type TeamRepo interface {
	// CreateTeam inserts a new team row.
	CreateTeam(ctx context.Context, db *gorm.DB, t *domain.Team) error

	// GetTeam fetches a team by id.
	GetTeam(ctx context.Context, db *gorm.DB, id int) (*domain.Team, error)

	// DeleteTeam soft-deletes a team.
	DeleteTeam(ctx context.Context, db *gorm.DB, id int) error

	// AddTeamMember inserts a membership row.
	AddTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) error

	// RemoveTeamMember deletes a membership row.
	RemoveTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) error

	// IsTeamMember reports whether the member belongs to the team.
	IsTeamMember(ctx context.Context, db *gorm.DB, teamID, memberID int) (bool, error)

	// ListTeamMembers returns the team's member roster.
	ListTeamMembers(ctx context.Context, db *gorm.DB, teamID int) ([]domain.Member, error)
}

// TeamService provides team lifecycle and roster management. Leader
// privileges guard deletion, invitation, and removal; the leader is
// always on the roster and cannot leave without disbanding.
type TeamService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the team repository used by this service.
	Repo TeamRepo
}

// NewTeamService constructs a TeamService.
func NewTeamService(db *gorm.DB, r TeamRepo) *TeamService {
	return &TeamService{DB: db, Repo: r}
}

// Create makes a new team led by leaderID and enrolls the leader as
// its first member.
func (s *TeamService) Create(ctx context.Context, leaderID int, name, description string) (*domain.Team, error) {
	name = normalizeTitle(name)
	if name == "" {
		return nil, ErrEmptyContent
	}
	t := &domain.Team{
		LeaderID:    leaderID,
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.Repo.CreateTeam(ctx, s.DB, t); err != nil {
		return nil, err
	}
	if err := s.Repo.AddTeamMember(ctx, s.DB, t.ID, leaderID); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns the team by id.
func (s *TeamService) Get(ctx context.Context, id int) (*domain.Team, error) {
	t, err := s.Repo.GetTeam(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

// Disband deletes the team. Only the leader may disband; membership
// rows cascade with the team.
func (s *TeamService) Disband(ctx context.Context, teamID, callerID int) error {
	t, err := s.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if t.LeaderID != callerID {
		return ErrNotTeamLeader
	}
	return s.Repo.DeleteTeam(ctx, s.DB, teamID)
}

// Invite enrolls memberID into the team. Only the leader may invite,
// and a member joins a given team at most once.
func (s *TeamService) Invite(ctx context.Context, teamID, callerID, memberID int) error {
	t, err := s.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if t.LeaderID != callerID {
		return ErrNotTeamLeader
	}
	on, err := s.Repo.IsTeamMember(ctx, s.DB, teamID, memberID)
	if err != nil {
		return err
	}
	if on {
		return ErrAlreadyTeamMember
	}
	return s.Repo.AddTeamMember(ctx, s.DB, teamID, memberID)
}

// Remove takes memberID off the roster. The leader may remove anyone
// but themselves; a non-leader may only remove themselves (leave).
func (s *TeamService) Remove(ctx context.Context, teamID, callerID, memberID int) error {
	t, err := s.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if memberID == t.LeaderID {
		return ErrNotTeamLeader
	}
	if callerID != t.LeaderID && callerID != memberID {
		return ErrNotTeamLeader
	}
	on, err := s.Repo.IsTeamMember(ctx, s.DB, teamID, memberID)
	if err != nil {
		return err
	}
	if !on {
		return ErrNotTeamMember
	}
	return s.Repo.RemoveTeamMember(ctx, s.DB, teamID, memberID)
}

// Members returns the team's roster.
func (s *TeamService) Members(ctx context.Context, teamID int) ([]domain.Member, error) {
	if _, err := s.Get(ctx, teamID); err != nil {
		return nil, err
	}
	return s.Repo.ListTeamMembers(ctx, s.DB, teamID)
}
