// Package services – RecommendationService
//
// This file implements the read side of the recommendation feed. The
// scheduled job precomputes each member's article id list into Redis;
// this service hydrates that list into articles. Like the leaderboard
// read path, cache trouble degrades to an empty feed rather than an
// error.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// RecommendationCache is the slice of cache.RecommendationStore the
// read path needs.
type RecommendationCache interface {
	// List returns the member's precomputed article ids in feed order.
	List(ctx context.Context, memberID int) ([]int, error)
}

// ArticleBatchRepo hydrates article ids into rows.
type ArticleBatchRepo interface {
	ArticlesByIDs(ctx context.Context, db *gorm.DB, ids []int) ([]domain.Article, error)
}

// RecommendationService serves each member's precomputed feed.
type RecommendationService struct {
	// DB is the GORM handle used for hydration.
	DB *gorm.DB
	// Repo batch-loads articles.
	Repo ArticleBatchRepo
	// Cache holds the precomputed id lists.
	Cache RecommendationCache
}

// NewRecommendationService constructs a RecommendationService.
func NewRecommendationService(db *gorm.DB, r ArticleBatchRepo, c RecommendationCache) *RecommendationService {
	return &RecommendationService{DB: db, Repo: r, Cache: c}
}

// Feed returns the member's recommended articles in precomputed order.
// Ids whose articles have since been deleted are dropped silently. A
// cache failure or an absent list yields an empty feed, never an
// error; the next scheduled run repopulates it.
func (s *RecommendationService) Feed(ctx context.Context, memberID int) ([]domain.Article, error) {
	ids, err := s.Cache.List(ctx, memberID)
	if err != nil {
		log.Warn().Err(err).Int("member_id", memberID).
			Msg("recommendation cache read failed, serving empty feed")
		return []domain.Article{}, nil
	}
	if len(ids) == 0 {
		return []domain.Article{}, nil
	}

	rows, err := s.Repo.ArticlesByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]domain.Article, len(rows))
	for _, a := range rows {
		byID[a.ID] = a
	}
	out := make([]domain.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
