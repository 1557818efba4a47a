// Leaderboard retention: keeps the sorted set bounded to the top
// scores so it never grows with the member base.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const rankingTrimLock = "job:ranking-trim"

// TrimStore is the cache slice the trim job operates on.
type TrimStore interface {
	// Trim removes every entry ranked below the top keep scores.
	Trim(ctx context.Context, keep int64) error
	// Card returns the current sorted-set size.
	Card(ctx context.Context) (int64, error)
}

// RankingTrimJob prunes the ranking sorted set down to Retention
// entries. Members trimmed out keep their durable exp and are
// re-admitted by the sync job whenever their score changes again.
type RankingTrimJob struct {
	// Store is the ranking sorted set.
	Store TrimStore
	// Locker guards against concurrent trims across instances.
	Locker Locker

	// Retention is the number of top entries kept.
	Retention int64
	// LockWait bounds how long a run waits for the lock.
	LockWait time.Duration
	// LockHold bounds how long the lock may be held.
	LockHold time.Duration
}

// Name implements Job.
func (j *RankingTrimJob) Name() string { return "ranking-trim" }

// Run executes one trim pass.
func (j *RankingTrimJob) Run(ctx context.Context) error {
	lock, err := j.Locker.Acquire(ctx, rankingTrimLock, j.LockWait, j.LockHold)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			log.Warn().Err(err).Str("job", j.Name()).Msg("lock release failed")
		}
	}()

	before, err := j.Store.Card(ctx)
	if err != nil {
		return err
	}
	if before <= j.Retention {
		log.Debug().Str("job", j.Name()).Int64("size", before).Msg("nothing to trim")
		return nil
	}
	if err := j.Store.Trim(ctx, j.Retention); err != nil {
		return err
	}
	log.Info().Str("job", j.Name()).
		Int64("removed", before-j.Retention).
		Int64("kept", j.Retention).Msg("ranking trimmed")
	return nil
}
