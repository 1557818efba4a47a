package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/domain"
)

// fakeExpAwarder records award calls; shared by the community service tests.
type fakeExpAwarder struct {
	calls  []awardCall
	err    error
	synced bool
}

type awardCall struct {
	memberID int
	delta    int
}

func (f *fakeExpAwarder) AwardExp(ctx context.Context, memberID, delta int) (*ExpAward, error) {
	f.calls = append(f.calls, awardCall{memberID, delta})
	if f.err != nil {
		return nil, f.err
	}
	return &ExpAward{MemberID: memberID, Exp: delta, CacheSynced: f.synced || f.err == nil}, nil
}

type fakeArticleRepo struct {
	articles map[int]*domain.Article
	likes    map[[2]int]bool
	nextID   int

	updated map[string]any
	deleted bool
	viewErr error
	likeErr error
}

func newFakeArticleRepo(articles ...*domain.Article) *fakeArticleRepo {
	r := &fakeArticleRepo{
		articles: map[int]*domain.Article{},
		likes:    map[[2]int]bool{},
		nextID:   1,
	}
	for _, a := range articles {
		if a.ID == 0 {
			a.ID = r.nextID
		}
		r.nextID = a.ID + 1
		r.articles[a.ID] = a
	}
	return r
}

func (r *fakeArticleRepo) CreateArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error {
	a.ID = r.nextID
	r.nextID++
	r.articles[a.ID] = a
	return nil
}

func (r *fakeArticleRepo) GetArticle(ctx context.Context, db *gorm.DB, id int) (*domain.Article, error) {
	a, ok := r.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// Detached copy, the way a scanned row behaves.
	cp := *a
	return &cp, nil
}

func (r *fakeArticleRepo) IncrementArticleViews(ctx context.Context, db *gorm.DB, id int) error {
	if r.viewErr != nil {
		return r.viewErr
	}
	if a, ok := r.articles[id]; ok {
		a.ViewCount++
	}
	return nil
}

func (r *fakeArticleRepo) CountArticles(ctx context.Context, db *gorm.DB, category, genre string) (int64, error) {
	var n int64
	for _, a := range r.articles {
		if (category == "" || a.Category == category) && (genre == "" || a.Genre == genre) {
			n++
		}
	}
	return n, nil
}

func (r *fakeArticleRepo) ListArticlesPage(ctx context.Context, db *gorm.DB, category, genre string, offset, limit int) ([]domain.Article, error) {
	out := []domain.Article{}
	for _, a := range r.articles {
		if (category == "" || a.Category == category) && (genre == "" || a.Genre == genre) {
			out = append(out, *a)
		}
	}
	if offset >= len(out) {
		return []domain.Article{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *fakeArticleRepo) UpdateArticle(ctx context.Context, db *gorm.DB, id, memberID int, fields map[string]any) error {
	a, ok := r.articles[id]
	if !ok || a.MemberID != memberID {
		return gorm.ErrRecordNotFound
	}
	r.updated = fields
	return nil
}

func (r *fakeArticleRepo) DeleteArticle(ctx context.Context, db *gorm.DB, id, memberID int) error {
	a, ok := r.articles[id]
	if !ok || a.MemberID != memberID {
		return gorm.ErrRecordNotFound
	}
	delete(r.articles, id)
	r.deleted = true
	return nil
}

func (r *fakeArticleRepo) LikeArticle(ctx context.Context, db *gorm.DB, articleID, memberID int) error {
	if r.likeErr != nil {
		return r.likeErr
	}
	r.likes[[2]int{articleID, memberID}] = true
	r.articles[articleID].LikeCount++
	return nil
}

func (r *fakeArticleRepo) HasLiked(ctx context.Context, db *gorm.DB, articleID, memberID int) (bool, error) {
	return r.likes[[2]int{articleID, memberID}], nil
}

func TestArticleCreate_NormalizesAndValidates(t *testing.T) {
	repo := newFakeArticleRepo()
	s := NewArticleService(nil, repo, &fakeExpAwarder{})

	a, err := s.Create(context.Background(), 1, ArticleInput{
		Title:    "  looking   for a\tdrummer  ",
		Content:  "anyone in Seoul?",
		Category: "  Recruit ",
		Genre:    "Indie Rock",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Title != "looking for a drummer" {
		t.Errorf("title not normalized: %q", a.Title)
	}
	if a.Category != "recruit" || a.Genre != "indie rock" {
		t.Errorf("tags not canonicalized: %q / %q", a.Category, a.Genre)
	}

	if _, err := s.Create(context.Background(), 1, ArticleInput{Title: "   ", Content: "x"}); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("blank title: got %v", err)
	}
	if _, err := s.Create(context.Background(), 1, ArticleInput{Title: "t", Content: " "}); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("blank content: got %v", err)
	}
}

func TestArticleCreate_ClipsLongTitle(t *testing.T) {
	repo := newFakeArticleRepo()
	s := NewArticleService(nil, repo, &fakeExpAwarder{})
	s.TitleMaxLen = 10

	a, err := s.Create(context.Background(), 1, ArticleInput{
		Title:   strings.Repeat("x", 50),
		Content: "body",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len([]rune(a.Title)) != 10 {
		t.Fatalf("title not clipped: %d runes", len([]rune(a.Title)))
	}
}

func TestArticleGet_CountsView(t *testing.T) {
	repo := newFakeArticleRepo(&domain.Article{ID: 1, MemberID: 2, Title: "t", Content: "c"})
	s := NewArticleService(nil, repo, &fakeExpAwarder{})

	a, err := s.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.ViewCount != 1 {
		t.Errorf("view not counted: %d", a.ViewCount)
	}

	// Each read counts exactly one view.
	a, err = s.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if a.ViewCount != 2 {
		t.Errorf("second view miscounted: %d", a.ViewCount)
	}

	// A failing view bump must not fail the read.
	repo.viewErr = errors.New("locked")
	if _, err := s.Get(context.Background(), 1); err != nil {
		t.Fatalf("view bump failure surfaced: %v", err)
	}

	if _, err := s.Get(context.Background(), 99); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("missing article: got %v", err)
	}
}

func TestArticleUpdateDelete_OwnerScoped(t *testing.T) {
	repo := newFakeArticleRepo(&domain.Article{ID: 1, MemberID: 2, Title: "t", Content: "c"})
	s := NewArticleService(nil, repo, &fakeExpAwarder{})

	in := ArticleInput{Title: "new", Content: "body"}
	if err := s.Update(context.Background(), 1, 99, in); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("foreign owner update: got %v", err)
	}
	if err := s.Update(context.Background(), 1, 2, in); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if repo.updated["title"] != "new" {
		t.Fatalf("update fields wrong: %+v", repo.updated)
	}

	if err := s.Delete(context.Background(), 1, 99); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("foreign owner delete: got %v", err)
	}
	if err := s.Delete(context.Background(), 1, 2); err != nil || !repo.deleted {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestArticleLike_AwardsAuthorOnce(t *testing.T) {
	repo := newFakeArticleRepo(&domain.Article{ID: 1, MemberID: 2, Title: "t", Content: "c"})
	exp := &fakeExpAwarder{}
	s := NewArticleService(nil, repo, exp)

	if err := s.Like(context.Background(), 1, 7); err != nil {
		t.Fatalf("Like: %v", err)
	}
	if repo.articles[1].LikeCount != 1 {
		t.Errorf("like count = %d", repo.articles[1].LikeCount)
	}
	if len(exp.calls) != 1 || exp.calls[0] != (awardCall{memberID: 2, delta: s.LikeExp}) {
		t.Fatalf("award calls wrong: %+v", exp.calls)
	}

	if err := s.Like(context.Background(), 1, 7); !errors.Is(err, ErrAlreadyLiked) {
		t.Fatalf("second like: got %v", err)
	}
	if len(exp.calls) != 1 {
		t.Fatalf("duplicate like must not award again")
	}

	if err := s.Like(context.Background(), 99, 7); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("missing article: got %v", err)
	}
}

func TestArticleLike_AwardFailureDoesNotUnwind(t *testing.T) {
	repo := newFakeArticleRepo(&domain.Article{ID: 1, MemberID: 2, Title: "t", Content: "c"})
	exp := &fakeExpAwarder{err: errors.New("cache down")}
	s := NewArticleService(nil, repo, exp)

	if err := s.Like(context.Background(), 1, 7); err != nil {
		t.Fatalf("award failure surfaced: %v", err)
	}
	if !repo.likes[[2]int{1, 7}] {
		t.Fatalf("like not recorded")
	}
}

func TestArticleListPage_Defaults(t *testing.T) {
	repo := newFakeArticleRepo(
		&domain.Article{ID: 1, MemberID: 1, Title: "a", Content: "c", Genre: "jazz"},
		&domain.Article{ID: 2, MemberID: 1, Title: "b", Content: "c", Genre: "rock"},
	)
	s := NewArticleService(nil, repo, &fakeExpAwarder{})

	items, total, err := s.ListPage(context.Background(), "", "jazz", 0, 0)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Genre != "jazz" {
		t.Fatalf("filter wrong: total=%d items=%+v", total, items)
	}

	items, total, err = s.ListPage(context.Background(), "", "classical", 1, 20)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty filter: total=%d items=%+v err=%v", total, items, err)
	}
	if items == nil {
		t.Fatalf("empty page must not be nil")
	}
}
