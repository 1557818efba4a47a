// Recommendation precompute: scores every article per member and
// materializes each member's top picks into their cache list.
package jobs

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

const recommendLock = "job:recommendation"

// RecommendRepo is the durable-store slice the recommendation job scans.
type RecommendRepo interface {
	// MembersPage returns one keyset page over all members.
	MembersPage(ctx context.Context, db *gorm.DB, afterID, limit int) ([]domain.Member, error)
	// AllArticles returns the candidate pool.
	AllArticles(ctx context.Context, db *gorm.DB) ([]domain.Article, error)
}

// RecommendStore is the cache slice the job writes.
type RecommendStore interface {
	// Replace atomically swaps the member's precomputed list.
	Replace(ctx context.Context, memberID int, articleIDs []int) error
}

// RecommendationJob rebuilds every member's feed. Scoring favors a
// genre match heavily, then engagement, then freshness; a member's own
// articles are excluded.
type RecommendationJob struct {
	// DB is the GORM handle used for the scan.
	DB *gorm.DB
	// Repo pages members and loads the article pool.
	Repo RecommendRepo
	// Store receives the per-member lists.
	Store RecommendStore
	// Locker guards against concurrent rebuilds across instances.
	Locker Locker

	// PageSize bounds each member page.
	PageSize int
	// PerMember caps each precomputed list.
	PerMember int
	// FreshWindow is how recent an article must be for the freshness bonus.
	FreshWindow time.Duration
	// LockWait bounds how long a run waits for the lock.
	LockWait time.Duration
	// LockHold bounds how long the lock may be held.
	LockHold time.Duration
}

// Name implements Job.
func (j *RecommendationJob) Name() string { return "recommendation" }

// Run executes one feed rebuild. A member whose list fails to store is
// logged and skipped; the sweep continues so one bad key cannot starve
// everyone else's feed.
func (j *RecommendationJob) Run(ctx context.Context) error {
	lock, err := j.Locker.Acquire(ctx, recommendLock, j.LockWait, j.LockHold)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			log.Warn().Err(err).Str("job", j.Name()).Msg("lock release failed")
		}
	}()

	pool, err := j.Repo.AllArticles(ctx, j.DB)
	if err != nil {
		return err
	}
	if len(pool) == 0 {
		log.Debug().Str("job", j.Name()).Msg("no articles to recommend")
		return nil
	}

	now := time.Now().UTC()
	var (
		afterID int
		rebuilt int
		skipped int
	)
	for {
		page, err := j.Repo.MembersPage(ctx, j.DB, afterID, j.PageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			ids := j.pick(m, pool, now)
			if err := j.Store.Replace(ctx, m.ID, ids); err != nil {
				skipped++
				log.Warn().Err(err).Str("job", j.Name()).Int("member_id", m.ID).
					Msg("feed store failed, member skipped")
				continue
			}
			rebuilt++
		}
		afterID = page[len(page)-1].ID
		if len(page) < j.PageSize {
			break
		}
	}

	log.Info().Str("job", j.Name()).Int("rebuilt", rebuilt).Int("skipped", skipped).
		Msg("recommendation feeds rebuilt")
	return nil
}

// pick scores the pool for one member and returns the top PerMember
// article ids, best first. Ties break toward the newer article id.
func (j *RecommendationJob) pick(m domain.Member, pool []domain.Article, now time.Time) []int {
	type scored struct {
		id    int
		score int
	}
	candidates := make([]scored, 0, len(pool))
	for _, a := range pool {
		if a.MemberID == m.ID {
			continue
		}
		candidates = append(candidates, scored{id: a.ID, score: j.score(m, a, now)})
	}
	sort.Slice(candidates, func(x, y int) bool {
		if candidates[x].score != candidates[y].score {
			return candidates[x].score > candidates[y].score
		}
		return candidates[x].id > candidates[y].id
	})
	n := j.PerMember
	if n > len(candidates) {
		n = len(candidates)
	}
	ids := make([]int, 0, n)
	for _, c := range candidates[:n] {
		ids = append(ids, c.id)
	}
	return ids
}

// score rates one article for one member: a genre match outweighs any
// realistic engagement total, likes count triple, and recent articles
// get a flat freshness bonus.
func (j *RecommendationJob) score(m domain.Member, a domain.Article, now time.Time) int {
	s := a.LikeCount*3 + a.ViewCount
	if m.Genre != "" && a.Genre == m.Genre {
		s += 10000
	}
	if j.FreshWindow > 0 && now.Sub(a.CreatedAt) <= j.FreshWindow {
		s += 50
	}
	return s
}
