// Ranking sorted-set store.
//
// One global Redis sorted set maps member id (as the set member string)
// to that member's exp (as the score). The set is a derived view of the
// members table: it may lag behind the durable store between a write
// and the next reconciliation run, or be missing entirely, and is fully
// rebuildable at any time. Conflicts always resolve in favor of the
// durable store.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNotRanked is returned by Rank when the member has no entry in the
// ranking set. Callers treat it as a fallback trigger, not a failure.
var ErrNotRanked = errors.New("member not ranked in cache")

// MemberScore is one (member id, exp score) pair from the ranking set.
type MemberScore struct {
	MemberID int
	Score    float64
}

// RankingStore provides typed access to the ranking sorted set. The key
// and per-call timeout are injected (see config.RedisConfig).
type RankingStore struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
}

// NewRankingStore constructs a RankingStore over the given client.
func NewRankingStore(rdb *redis.Client, key string, timeout time.Duration) *RankingStore {
	return &RankingStore{rdb: rdb, key: key, timeout: timeout}
}

// Key returns the sorted-set key this store operates on.
func (s *RankingStore) Key() string { return s.key }

// TopWithScores returns up to n (member, score) pairs in descending
// score order. An empty slice with nil error means the set is empty;
// a non-nil error means the cache is unavailable.
func (s *RankingStore) TopWithScores(ctx context.Context, n int) ([]MemberScore, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	zs, err := s.rdb.ZRevRangeWithScores(cctx, s.key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]MemberScore, 0, len(zs))
	for _, z := range zs {
		raw, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			// Foreign entry under our key; skip rather than fail the page.
			continue
		}
		out = append(out, MemberScore{MemberID: id, Score: z.Score})
	}
	return out, nil
}

// Rank returns the 0-based descending rank of the member, ErrNotRanked
// when the member is absent from the set, or the transport error.
func (s *RankingStore) Rank(ctx context.Context, memberID int) (int64, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rank, err := s.rdb.ZRevRank(cctx, s.key, strconv.Itoa(memberID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotRanked
	}
	if err != nil {
		return 0, err
	}
	return rank, nil
}

// IncrementScore adds delta to the member's score (ZINCRBY). The
// operation is atomic at the engine level, so concurrent increments do
// not lose updates.
func (s *RankingStore) IncrementScore(ctx context.Context, memberID, delta int) error {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.rdb.ZIncrBy(cctx, s.key, float64(delta), strconv.Itoa(memberID)).Err()
}

// Add upserts the given pairs with one pipelined round trip. ZADD
// overwrites existing scores, which makes reconciliation idempotent:
// re-running a page, or the whole scan, converges on the same state.
func (s *RankingStore) Add(ctx context.Context, pairs []MemberScore) error {
	if len(pairs) == 0 {
		return nil
	}
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	zs := make([]*redis.Z, len(pairs))
	for i, p := range pairs {
		zs[i] = &redis.Z{Score: p.Score, Member: strconv.Itoa(p.MemberID)}
	}
	return s.rdb.ZAdd(cctx, s.key, zs...).Err()
}

// Trim evicts entries ranked beyond the top keep, deleting from the
// low-score end. A set already within bounds is untouched: the negative
// stop index -(keep+1) addresses nothing when the cardinality is at or
// below keep.
func (s *RankingStore) Trim(ctx context.Context, keep int64) error {
	if keep < 1 {
		return nil
	}
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.rdb.ZRemRangeByRank(cctx, s.key, 0, -(keep + 1)).Err()
}

// Card returns the current cardinality of the ranking set.
func (s *RankingStore) Card(ctx context.Context) (int64, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.rdb.ZCard(cctx, s.key).Result()
}
