package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/cache"
	"github.com/2eungwoo/moum-backend/internal/domain"
)

// fakeLocker hands out fakeLocks and can simulate contention.
type fakeLocker struct {
	denied   bool
	acquired []string
	released int
}

type fakeLock struct{ l *fakeLocker }

func (f *fakeLocker) Acquire(ctx context.Context, name string, wait, hold time.Duration) (Lock, error) {
	if f.denied {
		return nil, cache.ErrLockNotAcquired
	}
	f.acquired = append(f.acquired, name)
	return &fakeLock{l: f}, nil
}

func (h *fakeLock) Release(ctx context.Context) error {
	h.l.released++
	return nil
}

type fakeSyncRepo struct {
	members []domain.Member // id ascending
	err     error

	sinceSeen []time.Time
	hook      func(call int) // runs before each page is served
}

func (r *fakeSyncRepo) MembersUpdatedSince(ctx context.Context, db *gorm.DB, since time.Time, afterID, limit int) ([]domain.Member, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.sinceSeen = append(r.sinceSeen, since)
	if r.hook != nil {
		r.hook(len(r.sinceSeen))
	}
	out := []domain.Member{}
	for _, m := range r.members {
		if m.ID <= afterID {
			continue
		}
		if !since.IsZero() && (m.ExpUpdatedAt == nil || !m.ExpUpdatedAt.After(since)) {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeSyncStore struct {
	pages [][]cache.MemberScore
	errOn int // 1-based page index to fail on; 0 disables
}

func (s *fakeSyncStore) Add(ctx context.Context, pairs []cache.MemberScore) error {
	if s.errOn > 0 && len(s.pages)+1 == s.errOn {
		return errors.New("cache write failed")
	}
	s.pages = append(s.pages, pairs)
	return nil
}

func syncMember(id, exp int, at time.Time) domain.Member {
	e := exp
	return domain.Member{ID: id, Exp: &e, ExpUpdatedAt: &at}
}

func TestRankingSync_FullBackfillThenIncremental(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	repo := &fakeSyncRepo{members: []domain.Member{
		syncMember(1, 100, base),
		syncMember(2, 200, base.Add(time.Minute)),
		syncMember(3, 300, base.Add(2*time.Minute)),
	}}
	store := &fakeSyncStore{}
	locker := &fakeLocker{}
	j := &RankingSyncJob{Repo: repo, Store: store, Locker: locker, PageSize: 2}

	before := time.Now().UTC()
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	after := time.Now().UTC()

	// 3 members at page size 2: two pages.
	if len(store.pages) != 2 || len(store.pages[0]) != 2 || len(store.pages[1]) != 1 {
		t.Fatalf("pages wrong: %+v", store.pages)
	}
	if store.pages[0][0].MemberID != 1 || store.pages[0][0].Score != 100 {
		t.Fatalf("pair wrong: %+v", store.pages[0][0])
	}
	// The watermark advances to the sweep's start time, not to any
	// exp_updated_at seen during the scan.
	wm := j.Watermark()
	if wm.Before(before) || wm.After(after) {
		t.Fatalf("watermark = %v; want the sweep start in [%v, %v]", wm, before, after)
	}
	if locker.released != 1 {
		t.Fatalf("lock not released")
	}

	// Second run: nothing changed after the watermark, nothing replayed.
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(store.pages) != 2 {
		t.Fatalf("idle sweep wrote pages: %+v", store.pages)
	}
	if last := repo.sinceSeen[len(repo.sinceSeen)-1]; !last.Equal(wm) {
		t.Fatalf("incremental sweep used since=%v; want %v", last, wm)
	}
}

func TestRankingSync_MidSweepAwardReplayedNextRun(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	repo := &fakeSyncRepo{members: []domain.Member{
		syncMember(1, 100, base),
		syncMember(2, 200, base.Add(time.Minute)),
	}}
	// An award lands on member 1 while the sweep is already past its
	// page. Its timestamp falls after the sweep start, so the second
	// run must pick it up even though run one never saw it.
	repo.hook = func(call int) {
		if call == 2 {
			at := time.Now().UTC()
			e := 150
			repo.members[0].Exp = &e
			repo.members[0].ExpUpdatedAt = &at
		}
	}
	store := &fakeSyncStore{}
	j := &RankingSyncJob{Repo: repo, Store: store, Locker: &fakeLocker{}, PageSize: 1}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	var last float64 = -1
	for _, p := range store.pages {
		for _, pair := range p {
			if pair.MemberID == 1 {
				last = pair.Score
			}
		}
	}
	if last != 150 {
		t.Fatalf("mid-sweep award never reconciled: last synced score = %v", last)
	}
}

func TestRankingSync_WatermarkHeldOnFailure(t *testing.T) {
	base := time.Now().UTC().Add(-time.Hour)
	repo := &fakeSyncRepo{members: []domain.Member{
		syncMember(1, 100, base),
		syncMember(2, 200, base.Add(time.Minute)),
		syncMember(3, 300, base.Add(2*time.Minute)),
	}}
	store := &fakeSyncStore{errOn: 2}
	locker := &fakeLocker{}
	j := &RankingSyncJob{Repo: repo, Store: store, Locker: locker, PageSize: 2}

	if err := j.Run(context.Background()); err == nil {
		t.Fatalf("expected failure from second page")
	}
	if !j.Watermark().IsZero() {
		t.Fatalf("watermark advanced on a failed sweep: %v", j.Watermark())
	}
	if locker.released != 1 {
		t.Fatalf("lock must be released on failure too")
	}

	// Retry replays the whole window.
	store.errOn = 0
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	var replayed int
	for _, p := range store.pages {
		replayed += len(p)
	}
	if replayed != 2+3 { // first partial sweep plus full replay
		t.Fatalf("replayed = %d pairs across %d pages", replayed, len(store.pages))
	}
	if j.Watermark().IsZero() {
		t.Fatalf("watermark must advance after a successful retry")
	}
}

func TestRankingSync_SkipsWhenLockHeld(t *testing.T) {
	repo := &fakeSyncRepo{members: []domain.Member{syncMember(1, 100, time.Now())}}
	store := &fakeSyncStore{}
	j := &RankingSyncJob{Repo: repo, Store: store, Locker: &fakeLocker{denied: true}, PageSize: 10}

	err := j.Run(context.Background())
	if !errors.Is(err, cache.ErrLockNotAcquired) {
		t.Fatalf("want ErrLockNotAcquired, got %v", err)
	}
	if len(store.pages) != 0 {
		t.Fatalf("locked-out run must not write")
	}
}

func TestRankingSync_ScanErrorPropagates(t *testing.T) {
	repo := &fakeSyncRepo{err: errors.New("db closed")}
	j := &RankingSyncJob{Repo: repo, Store: &fakeSyncStore{}, Locker: &fakeLocker{}, PageSize: 10}

	if err := j.Run(context.Background()); err == nil {
		t.Fatalf("scan failure must propagate")
	}
}
