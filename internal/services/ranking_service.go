// Package services – RankingService
//
// This file implements the leaderboard read and write paths. Reads
// consult the Redis sorted set first and degrade to equivalent durable
// queries when the cache is empty or unreachable; cache trouble is
// never allowed to surface as a user-visible error on a read. The write
// path commits the durable exp increment first and mirrors the delta
// into the cache best-effort, reporting the degraded "durable only"
// state through an explicit result field instead of an exception.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/cache"
	"github.com/2eungwoo/moum-backend/internal/domain"
)

// rankingCacheWriteFailures counts swallowed cache-mirror failures on
// the exp write path. A non-zero rate means the leaderboard is running
// durable-only until the next reconciliation run.
var rankingCacheWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "ranking_cache_write_failures_total",
	Help: "Exp awards whose cache mirror failed and was deferred to reconciliation.",
})

// rankingFallbackReads counts leaderboard reads served from the durable
// store because the cache was empty or unreachable.
var rankingFallbackReads = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ranking_fallback_reads_total",
	Help: "Ranking reads answered by the durable store instead of the cache.",
}, []string{"op"})

func init() {
	prometheus.MustRegister(rankingCacheWriteFailures, rankingFallbackReads)
}

// MemberRankRepo defines the durable-store contract required by
// RankingService.
type MemberRankRepo interface {
	// GetMember fetches a member by id.
	GetMember(ctx context.Context, db *gorm.DB, id int) (*domain.Member, error)

	// AddMemberExp transactionally applies an exp increment and refreshes
	// the tier and watermark, returning the updated member.
	AddMemberExp(ctx context.Context, db *gorm.DB, id, delta int, now time.Time) (*domain.Member, error)

	// TopMembersByExp is the fallback leaderboard query (exp desc, limit).
	TopMembersByExp(ctx context.Context, db *gorm.DB, limit int) ([]domain.Member, error)

	// RankByExp is the fallback personal-rank query: 1 + count(exp > given).
	RankByExp(ctx context.Context, db *gorm.DB, exp int) (int64, error)

	// MembersByIDs hydrates display fields for cache-sourced pages in one
	// batched lookup.
	MembersByIDs(ctx context.Context, db *gorm.DB, ids []int) ([]domain.Member, error)
}

// RankingCache defines the fast-path contract required by RankingService.
// The concrete implementation is cache.RankingStore.
type RankingCache interface {
	// TopWithScores returns up to n pairs in descending score order.
	TopWithScores(ctx context.Context, n int) ([]cache.MemberScore, error)
	// Rank returns the 0-based descending rank, or cache.ErrNotRanked.
	Rank(ctx context.Context, memberID int) (int64, error)
	// IncrementScore adds delta to the member's cached score.
	IncrementScore(ctx context.Context, memberID, delta int) error
}

// RankingEntry is the ephemeral, response-only leaderboard row. It is
// recomputed per request and never persisted.
type RankingEntry struct {
	Rank            int64  `json:"rank"`
	MemberID        int    `json:"member_id"`
	Username        string `json:"username"`
	Exp             int    `json:"exp"`
	Tier            string `json:"tier"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// ExpAward reports the outcome of one exp award. CacheSynced is false
// when the durable write committed but the cache mirror failed; the
// cache then self-corrects at the next reconciliation run.
type ExpAward struct {
	MemberID    int    `json:"member_id"`
	Exp         int    `json:"exp"`
	Tier        string `json:"tier"`
	CacheSynced bool   `json:"cache_synced"`
}

// RankingService answers top-N and personal-rank queries and applies
// exp awards. It is safe for concurrent use.
type RankingService struct {
	// DB is the GORM handle used for durable reads and writes.
	DB *gorm.DB
	// Repo is the member repository used by this service.
	Repo MemberRankRepo
	// Cache is the ranking sorted-set fast path.
	Cache RankingCache

	// DefaultTopN substitutes for non-positive topN requests.
	DefaultTopN int
	// MaxTopN caps topN requests.
	MaxTopN int
}

// NewRankingService constructs a RankingService with the observed
// clamping defaults (10 / 100).
func NewRankingService(db *gorm.DB, repo MemberRankRepo, c RankingCache) *RankingService {
	return &RankingService{
		DB:          db,
		Repo:        repo,
		Cache:       c,
		DefaultTopN: 10,
		MaxTopN:     100,
	}
}

// clampTopN coerces out-of-range topN values instead of rejecting them:
// non-positive becomes the default, oversized becomes the ceiling.
func (s *RankingService) clampTopN(topN int) int {
	if topN <= 0 {
		return s.DefaultTopN
	}
	if topN > s.MaxTopN {
		return s.MaxTopN
	}
	return topN
}

// TopRankings returns up to topN leaderboard entries with 1-based ranks
// assigned in result order. The cache is consulted first; an error or
// empty result falls back to the durable store. The returned slice is
// never nil, and cache failures never propagate to the caller.
func (s *RankingService) TopRankings(ctx context.Context, topN int) ([]RankingEntry, error) {
	n := s.clampTopN(topN)

	pairs, err := s.Cache.TopWithScores(ctx, n)
	if err != nil || len(pairs) == 0 {
		if err != nil {
			log.Warn().Err(err).Msg("ranking cache read failed, falling back to durable store")
		}
		rankingFallbackReads.WithLabelValues("top").Inc()
		return s.topFromStore(ctx, n)
	}

	ids := make([]int, len(pairs))
	for i, p := range pairs {
		ids[i] = p.MemberID
	}
	members, err := s.Repo.MembersByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]domain.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	out := make([]RankingEntry, 0, len(pairs))
	rank := int64(1)
	for _, p := range pairs {
		m, ok := byID[p.MemberID]
		if !ok {
			// Cache/DB drift: entry with no member row is dropped silently.
			continue
		}
		out = append(out, RankingEntry{
			Rank:            rank,
			MemberID:        m.ID,
			Username:        m.Username,
			Exp:             m.ExpValue(),
			Tier:            m.Tier,
			ProfileImageURL: m.ProfileImageURL,
		})
		rank++
	}
	return out, nil
}

// topFromStore is the durable-store leaderboard: members by exp
// descending, ranks assigned in order.
func (s *RankingService) topFromStore(ctx context.Context, n int) ([]RankingEntry, error) {
	members, err := s.Repo.TopMembersByExp(ctx, s.DB, n)
	if err != nil {
		return nil, err
	}
	out := make([]RankingEntry, 0, len(members))
	for i, m := range members {
		out = append(out, RankingEntry{
			Rank:            int64(i + 1),
			MemberID:        m.ID,
			Username:        m.Username,
			Exp:             m.ExpValue(),
			Tier:            m.Tier,
			ProfileImageURL: m.ProfileImageURL,
		})
	}
	return out, nil
}

// RankOf returns the member's 1-based leaderboard position. The cache's
// 0-based reverse rank is converted by adding one; when the member is
// absent from the cache or the cache is unreachable, the durable count
// query supplies the rank. ErrMemberNotFound is returned for unknown
// members, ErrMemberNotRanked when no score exists in either source.
func (s *RankingService) RankOf(ctx context.Context, memberID int) (*RankingEntry, error) {
	m, err := s.Repo.GetMember(ctx, s.DB, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	rank, err := s.Cache.Rank(ctx, memberID)
	if err != nil {
		if !errors.Is(err, cache.ErrNotRanked) {
			log.Warn().Err(err).Int("member_id", memberID).
				Msg("ranking cache rank lookup failed, falling back to durable store")
		}
		rankingFallbackReads.WithLabelValues("rank").Inc()
		if m.Exp == nil {
			return nil, ErrMemberNotRanked
		}
		dbRank, err := s.Repo.RankByExp(ctx, s.DB, m.ExpValue())
		if err != nil {
			return nil, err
		}
		rank = dbRank - 1
	}

	return &RankingEntry{
		Rank:            rank + 1,
		MemberID:        m.ID,
		Username:        m.Username,
		Exp:             m.ExpValue(),
		Tier:            m.Tier,
		ProfileImageURL: m.ProfileImageURL,
	}, nil
}

// AwardExp applies a positive exp increment. The durable update must
// succeed (ErrMemberNotFound aborts the whole operation); the cache
// mirror is best-effort and its failure is recorded and swallowed; the
// committed durable write stays authoritative and the cache converges
// at the next reconciliation run.
func (s *RankingService) AwardExp(ctx context.Context, memberID, delta int) (*ExpAward, error) {
	m, err := s.AwardExpIn(ctx, s.DB, memberID, delta)
	if err != nil {
		return nil, err
	}
	return &ExpAward{
		MemberID:    m.ID,
		Exp:         m.ExpValue(),
		Tier:        m.Tier,
		CacheSynced: s.MirrorExp(ctx, memberID, delta),
	}, nil
}

// AwardExpIn applies the durable half of an award on the caller's
// handle, so callers that must couple the award with another write
// (record completion stamps) can run both inside one transaction. The
// cache mirror happens separately via MirrorExp, after the transaction
// commits.
func (s *RankingService) AwardExpIn(ctx context.Context, db *gorm.DB, memberID, delta int) (*domain.Member, error) {
	if delta <= 0 {
		return nil, ErrInvalidExpDelta
	}
	m, err := s.Repo.AddMemberExp(ctx, db, memberID, delta, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// MirrorExp increments the member's cached score, best-effort. A
// failure is counted and logged, never surfaced; the report says
// whether the cache kept up with the durable store.
func (s *RankingService) MirrorExp(ctx context.Context, memberID, delta int) bool {
	if err := s.Cache.IncrementScore(ctx, memberID, delta); err != nil {
		rankingCacheWriteFailures.Inc()
		log.Error().Err(err).Int("member_id", memberID).Int("delta", delta).
			Msg("ranking cache increment failed; durable store updated, cache syncs at next reconciliation")
		return false
	}
	return true
}
