// Command server runs the moum community backend: the HTTP API, the
// Redis-backed leaderboard and feed caches, and the scheduled jobs that
// keep them in step with the durable store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/cache"
	"github.com/2eungwoo/moum-backend/internal/config"
	"github.com/2eungwoo/moum-backend/internal/domain"
	httpapi "github.com/2eungwoo/moum-backend/internal/http"
	"github.com/2eungwoo/moum-backend/internal/jobs"
	"github.com/2eungwoo/moum-backend/internal/observability"
	"github.com/2eungwoo/moum-backend/internal/repo"
	"github.com/2eungwoo/moum-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// memberScanShim adapts the repository free functions to the job
// interfaces, mirroring the shims the HTTP layer uses.
type memberScanShim struct{}

func (memberScanShim) MembersUpdatedSince(ctx context.Context, db *gorm.DB, since time.Time, afterID, limit int) ([]domain.Member, error) {
	return repo.MembersUpdatedSince(ctx, db, since, afterID, limit)
}

func (memberScanShim) MembersPage(ctx context.Context, db *gorm.DB, afterID, limit int) ([]domain.Member, error) {
	return repo.MembersPage(ctx, db, afterID, limit)
}

func (memberScanShim) AllArticles(ctx context.Context, db *gorm.DB) ([]domain.Article, error) {
	return repo.AllArticles(ctx, db)
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	rdb, err := cache.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis connect failed")
	}

	// Scheduled jobs share one distributed locker so only a single
	// instance runs each sweep per cadence.
	locker := jobs.CacheLocker{L: cache.NewLocker(rdb, cfg.Redis.OpTimeout)}
	rankStore := cache.NewRankingStore(rdb, cfg.Redis.RankingKey, cfg.Redis.OpTimeout)
	recStore := cache.NewRecommendationStore(rdb, cfg.Redis.RecommendKeyPrefix, cfg.Redis.OpTimeout)

	sched := jobs.NewScheduler()
	mustRegister(sched, cfg.Jobs.RankingSyncSpec, &jobs.RankingSyncJob{
		DB:       db,
		Repo:     memberScanShim{},
		Store:    rankStore,
		Locker:   locker,
		PageSize: cfg.Jobs.SyncPageSize,
		LockWait: cfg.Jobs.LockWaitTimeout,
		LockHold: cfg.Jobs.LockHoldTimeout,
	})
	mustRegister(sched, cfg.Jobs.RankingTrimSpec, &jobs.RankingTrimJob{
		Store:     rankStore,
		Locker:    locker,
		Retention: cfg.Jobs.TrimRetention,
		LockWait:  cfg.Jobs.LockWaitTimeout,
		LockHold:  cfg.Jobs.LockHoldTimeout,
	})
	mustRegister(sched, cfg.Jobs.RecommendSpec, &jobs.RecommendationJob{
		DB:          db,
		Repo:        memberScanShim{},
		Store:       recStore,
		Locker:      locker,
		PageSize:    cfg.Jobs.SyncPageSize,
		PerMember:   cfg.Jobs.RecommendPerMember,
		FreshWindow: 72 * time.Hour,
		LockWait:    cfg.Jobs.LockWaitTimeout,
		LockHold:    cfg.Jobs.LockHoldTimeout,
	})
	sched.Start()

	r := gin.New()
	httpapi.RegisterRoutes(r, db, rdb, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	<-sched.Stop().Done()
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}

// mustRegister aborts startup on an invalid cron spec; a silently
// unscheduled job would let the cache drift.
func mustRegister(s *jobs.Scheduler, spec string, j jobs.Job) {
	if err := s.Register(spec, j); err != nil {
		log.Fatal().Err(err).Str("job", j.Name()).Str("spec", spec).Msg("job registration failed")
	}
}
