// Ranking reconciliation: replays durable exp state into the cache so
// that awards whose best-effort mirror failed eventually converge.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/cache"
	"github.com/2eungwoo/moum-backend/internal/domain"
)

const rankingSyncLock = "job:ranking-sync"

// SyncRepo is the durable-store slice the sync job scans.
type SyncRepo interface {
	// MembersUpdatedSince returns one keyset page of members whose exp
	// changed after the watermark.
	MembersUpdatedSince(ctx context.Context, db *gorm.DB, since time.Time, afterID, limit int) ([]domain.Member, error)
}

// SyncStore is the cache slice the sync job writes.
type SyncStore interface {
	// Add upserts score pairs; an existing member's score is overwritten
	// with the durable value, which makes replays idempotent.
	Add(ctx context.Context, pairs []cache.MemberScore) error
}

// RankingSyncJob sweeps members whose exp changed since the last
// successful run and upserts their durable scores into the sorted set.
// The watermark is kept in process; a fresh instance starts from zero
// and performs a full backfill, which the overwrite semantics make
// harmless.
type RankingSyncJob struct {
	// DB is the GORM handle used for the scan.
	DB *gorm.DB
	// Repo pages the changed members.
	Repo SyncRepo
	// Store receives the replayed scores.
	Store SyncStore
	// Locker guards against concurrent sweeps across instances.
	Locker Locker

	// PageSize bounds each keyset page.
	PageSize int
	// LockWait bounds how long a run waits for the lock.
	LockWait time.Duration
	// LockHold bounds how long the lock may be held.
	LockHold time.Duration

	mu        sync.Mutex
	watermark time.Time
}

// Name implements Job.
func (j *RankingSyncJob) Name() string { return "ranking-sync" }

// Watermark returns the exclusive lower bound of the next sweep.
func (j *RankingSyncJob) Watermark() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.watermark
}

// Run executes one reconciliation sweep. The watermark only advances
// after every page lands, so a mid-sweep failure replays the whole
// window next run instead of losing part of it. It advances to the
// sweep's start time, never to a timestamp seen during the scan: an
// award landing on an already-scanned member mid-sweep carries a
// timestamp after the start, so the next incremental run still picks
// it up.
func (j *RankingSyncJob) Run(ctx context.Context) error {
	lock, err := j.Locker.Acquire(ctx, rankingSyncLock, j.LockWait, j.LockHold)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			log.Warn().Err(err).Str("job", j.Name()).Msg("lock release failed")
		}
	}()

	since := j.Watermark()
	sweepStart := time.Now().UTC()
	var (
		afterID int
		synced  int
	)
	for {
		page, err := j.Repo.MembersUpdatedSince(ctx, j.DB, since, afterID, j.PageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		pairs := make([]cache.MemberScore, 0, len(page))
		for _, m := range page {
			pairs = append(pairs, cache.MemberScore{
				MemberID: m.ID,
				Score:    float64(m.ExpValue()),
			})
		}
		if err := j.Store.Add(ctx, pairs); err != nil {
			return err
		}

		synced += len(page)
		afterID = page[len(page)-1].ID
		if len(page) < j.PageSize {
			break
		}
	}

	j.mu.Lock()
	j.watermark = sweepStart
	j.mu.Unlock()

	log.Info().Str("job", j.Name()).Int("synced", synced).
		Time("watermark", sweepStart).Msg("ranking reconciliation swept")
	return nil
}
