// Per-member recommendation lists.
//
// The recommendation job materializes each member's feed as a Redis
// list of article ids, replaced wholesale on every run. The read path
// returns ids in stored order; an absent list simply means "no feed
// yet" and is not an error.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RecommendationStore provides typed access to per-member
// recommendation lists. keyPrefix must contain one %d verb for the
// member id (e.g. "user:%d:recommendations").
type RecommendationStore struct {
	rdb       *redis.Client
	keyPrefix string
	timeout   time.Duration
}

// NewRecommendationStore constructs a RecommendationStore.
func NewRecommendationStore(rdb *redis.Client, keyPrefix string, timeout time.Duration) *RecommendationStore {
	return &RecommendationStore{rdb: rdb, keyPrefix: keyPrefix, timeout: timeout}
}

func (s *RecommendationStore) key(memberID int) string {
	return fmt.Sprintf(s.keyPrefix, memberID)
}

// Replace atomically swaps the member's feed for the given article ids:
// DEL followed by RPUSH inside one transactional pipeline, preserving
// order. An empty ids slice just clears the feed.
func (s *RecommendationStore) Replace(ctx context.Context, memberID int, articleIDs []int) error {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	key := s.key(memberID)
	_, err := s.rdb.TxPipelined(cctx, func(pipe redis.Pipeliner) error {
		pipe.Del(cctx, key)
		if len(articleIDs) > 0 {
			vals := make([]interface{}, len(articleIDs))
			for i, id := range articleIDs {
				vals[i] = strconv.Itoa(id)
			}
			pipe.RPush(cctx, key, vals...)
		}
		return nil
	})
	return err
}

// List returns the member's feed article ids in stored order. A missing
// key yields an empty slice, not an error.
func (s *RecommendationStore) List(ctx context.Context, memberID int) ([]int, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.rdb.LRange(cctx, s.key(memberID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.Atoi(r)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
