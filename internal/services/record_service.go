// Package services – RecordService
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// RecordRepo defines the repository contract required by RecordService.
type RecordRepo interface {
	// CreateRecord inserts a new activity record.
	CreateRecord(ctx context.Context, db *gorm.DB, r *domain.Record) error

	// GetRecord fetches a record by id.
	GetRecord(ctx context.Context, db *gorm.DB, id int) (*domain.Record, error)

	// ListRecordsByMember returns a member's records, newest first.
	ListRecordsByMember(ctx context.Context, db *gorm.DB, memberID int) ([]domain.Record, error)

	// CompleteRecord stamps the completion time; it refuses rows that
	// are already completed or owned by someone else.
	CompleteRecord(ctx context.Context, db *gorm.DB, id, memberID int, at time.Time) error
}

// CompletionAwarder is the transactional slice of RankingService that
// record completion needs: the completion stamp and the durable exp
// increment must commit together, with the cache mirrored only after
// the transaction lands.
type CompletionAwarder interface {
	// AwardExpIn applies the durable exp increment on the given handle.
	AwardExpIn(ctx context.Context, db *gorm.DB, memberID, delta int) (*domain.Member, error)

	// MirrorExp best-effort mirrors the delta into the ranking cache and
	// reports whether the cache kept up.
	MirrorExp(ctx context.Context, memberID, delta int) bool
}

// RecordService manages member activity records. Completing a record
// is the score-awarding event: the record's ExpAwarded flows through
// the ranking write path exactly once.
type RecordService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the record repository used by this service.
	Repo RecordRepo
	// Exp applies the completion award.
	Exp CompletionAwarder
}

// NewRecordService constructs a RecordService.
func NewRecordService(db *gorm.DB, r RecordRepo, exp CompletionAwarder) *RecordService {
	return &RecordService{DB: db, Repo: r, Exp: exp}
}

// Create registers a pending record worth expAwarded on completion.
func (s *RecordService) Create(ctx context.Context, memberID int, title string, expAwarded int) (*domain.Record, error) {
	title = normalizeTitle(title)
	if title == "" {
		return nil, ErrEmptyContent
	}
	if expAwarded <= 0 {
		return nil, ErrInvalidExpDelta
	}
	r := &domain.Record{
		MemberID:   memberID,
		Title:      title,
		ExpAwarded: expAwarded,
	}
	if err := s.Repo.CreateRecord(ctx, s.DB, r); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns the member's records.
func (s *RecordService) List(ctx context.Context, memberID int) ([]domain.Record, error) {
	return s.Repo.ListRecordsByMember(ctx, s.DB, memberID)
}

// Complete stamps the record completed and awards its exp. The stamp
// and the durable exp increment share one transaction, so a failed
// award unwinds the stamp and leaves the record replayable. The stamp
// is guarded so a record pays out at most once; replays and foreign
// records map to ErrRecordNotFound. The award outcome reports whether
// the cache mirror kept up.
func (s *RecordService) Complete(ctx context.Context, recordID, memberID int) (*ExpAward, error) {
	r, err := s.Repo.GetRecord(ctx, s.DB, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var m *domain.Member
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.CompleteRecord(ctx, tx, recordID, memberID, time.Now().UTC()); err != nil {
			return err
		}
		m, err = s.Exp.AwardExpIn(ctx, tx, memberID, r.ExpAwarded)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &ExpAward{
		MemberID:    m.ID,
		Exp:         m.ExpValue(),
		Tier:        m.Tier,
		CacheSynced: s.Exp.MirrorExp(ctx, memberID, r.ExpAwarded),
	}, nil
}
