package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

type fakeRecommendCache struct {
	lists map[int][]int
	err   error
}

func (c *fakeRecommendCache) List(ctx context.Context, memberID int) ([]int, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.lists[memberID], nil
}

type fakeArticleBatchRepo struct {
	articles map[int]domain.Article
	err      error
}

func (r *fakeArticleBatchRepo) ArticlesByIDs(ctx context.Context, db *gorm.DB, ids []int) ([]domain.Article, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []domain.Article{}
	for _, id := range ids {
		if a, ok := r.articles[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestFeed_PreservesPrecomputedOrder(t *testing.T) {
	repo := &fakeArticleBatchRepo{articles: map[int]domain.Article{
		1: {ID: 1, Title: "a"},
		2: {ID: 2, Title: "b"},
		3: {ID: 3, Title: "c"},
	}}
	c := &fakeRecommendCache{lists: map[int][]int{7: {3, 1, 2}}}
	s := NewRecommendationService(nil, repo, c)

	got, err := s.Feed(context.Background(), 7)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(got) != 3 || got[0].ID != 3 || got[1].ID != 1 || got[2].ID != 2 {
		t.Fatalf("order lost: %+v", got)
	}
}

func TestFeed_DropsDeletedArticles(t *testing.T) {
	repo := &fakeArticleBatchRepo{articles: map[int]domain.Article{
		1: {ID: 1, Title: "a"},
	}}
	c := &fakeRecommendCache{lists: map[int][]int{7: {2, 1}}}
	s := NewRecommendationService(nil, repo, c)

	got, err := s.Feed(context.Background(), 7)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("stale id not dropped: %+v", got)
	}
}

func TestFeed_EmptyOnCacheFailureOrAbsence(t *testing.T) {
	repo := &fakeArticleBatchRepo{}
	s := NewRecommendationService(nil, repo, &fakeRecommendCache{err: errors.New("connection refused")})

	got, err := s.Feed(context.Background(), 7)
	if err != nil {
		t.Fatalf("cache failure surfaced: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty feed, got %+v", got)
	}

	s = NewRecommendationService(nil, repo, &fakeRecommendCache{lists: map[int][]int{}})
	got, err = s.Feed(context.Background(), 7)
	if err != nil || len(got) != 0 {
		t.Fatalf("absent list: %+v, %v", got, err)
	}
}

func TestFeed_HydrationErrorPropagates(t *testing.T) {
	repo := &fakeArticleBatchRepo{err: errors.New("db closed")}
	c := &fakeRecommendCache{lists: map[int][]int{7: {1}}}
	s := NewRecommendationService(nil, repo, c)

	if _, err := s.Feed(context.Background(), 7); err == nil {
		t.Fatalf("durable failure must propagate")
	}
}
