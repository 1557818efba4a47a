// Package jobs hosts the scheduled maintenance work: the ranking
// reconciliation sweep, the sorted-set trim, and the recommendation
// precompute. Each job takes a distributed lock before running so that
// only one instance executes per cadence, logs through zerolog, and
// reports run/skip/failure counters to Prometheus.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/2eungwoo/moum-backend/internal/cache"
)

var (
	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_runs_total",
		Help: "Completed scheduled job executions.",
	}, []string{"job"})
	jobSkips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_skips_total",
		Help: "Scheduled job executions skipped because the lock was held elsewhere.",
	}, []string{"job"})
	jobFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failures_total",
		Help: "Scheduled job executions that ended in error.",
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(jobRuns, jobSkips, jobFailures)
}

// Lock is a held mutual-exclusion handle. Releasing is idempotent in
// effect: a handle whose hold expired releases nothing.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker grants named locks. cache.ErrLockNotAcquired signals that
// another instance runs the job this cadence.
type Locker interface {
	Acquire(ctx context.Context, name string, wait, hold time.Duration) (Lock, error)
}

// CacheLocker adapts cache.Locker to the Locker interface.
type CacheLocker struct {
	L *cache.Locker
}

// Acquire proxies cache.Locker.Acquire.
func (c CacheLocker) Acquire(ctx context.Context, name string, wait, hold time.Duration) (Lock, error) {
	h, err := c.L.Acquire(ctx, name, wait, hold)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Job is one unit of scheduled work.
type Job interface {
	// Name identifies the job in logs, metrics, and its lock key.
	Name() string
	// Run executes one sweep.
	Run(ctx context.Context) error
}

// Scheduler drives registered jobs on cron cadences.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler builds a Scheduler whose jobs recover from panics and
// never overlap themselves.
func NewScheduler() *Scheduler {
	cl := cronLogger{}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
	}
}

// Register schedules the job on the given cron spec. The per-run
// context carries no deadline; jobs bound their own cache calls.
func (s *Scheduler) Register(spec string, j Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := j.Run(context.Background()); err != nil {
			if errors.Is(err, cache.ErrLockNotAcquired) {
				jobSkips.WithLabelValues(j.Name()).Inc()
				log.Info().Str("job", j.Name()).Msg("job skipped, lock held elsewhere")
				return
			}
			jobFailures.WithLabelValues(j.Name()).Inc()
			log.Error().Err(err).Str("job", j.Name()).Dur("took", time.Since(start)).Msg("job failed")
			return
		}
		jobRuns.WithLabelValues(j.Name()).Inc()
		log.Info().Str("job", j.Name()).Dur("took", time.Since(start)).Msg("job completed")
	})
	return err
}

// Start begins dispatching in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts dispatch and waits for in-flight jobs.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger routes the cron runner's own messages into zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	log.Debug().Fields(kvFields(kv)).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	log.Error().Err(err).Fields(kvFields(kv)).Msg("cron: " + msg)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[k] = kv[i+1]
	}
	return fields
}
