package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/2eungwoo/moum-backend/internal/cache"
	"github.com/2eungwoo/moum-backend/internal/domain"
	"github.com/2eungwoo/moum-backend/internal/repo"
	"github.com/2eungwoo/moum-backend/internal/services"
)

// ---------- test DB + repo shim ----------

func newMemberDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:member_handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.Member{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Minimal shim implementing services.MemberRepo using repo package (like router.go)
type testMemberRepo struct{}

func (testMemberRepo) CreateMember(ctx context.Context, db *gorm.DB, m *domain.Member) error {
	return repo.CreateMember(ctx, db, m)
}

func (testMemberRepo) GetMember(ctx context.Context, db *gorm.DB, id int) (*domain.Member, error) {
	return repo.GetMember(ctx, db, id)
}

func (testMemberRepo) GetMemberByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Member, error) {
	return repo.GetMemberByUsername(ctx, db, username)
}

func (testMemberRepo) ExistsMemberByUsername(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	return repo.ExistsMemberByUsername(ctx, db, username)
}

func (testMemberRepo) ExistsMemberByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	return repo.ExistsMemberByEmail(ctx, db, email)
}

func (testMemberRepo) SetMemberActive(ctx context.Context, db *gorm.DB, id int, active bool) error {
	return repo.SetMemberActive(ctx, db, id, active)
}

// In-memory verification code store
type memCodeStore struct {
	codes map[string]string
}

func (s *memCodeStore) SaveCode(_ context.Context, email, code string, _ time.Duration) error {
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[email] = code
	return nil
}

func (s *memCodeStore) Code(_ context.Context, email string) (string, error) {
	code, found := s.codes[email]
	if !found {
		return "", cache.ErrCodeNotFound
	}
	return code, nil
}

func newMemberHandlers(t *testing.T) (*Handlers, *gorm.DB, *memCodeStore) {
	t.Helper()
	db := newMemberDB(t)
	codes := &memCodeStore{}
	svc := services.NewMemberService(db, testMemberRepo{}, codes, "test-secret", time.Hour, 5*time.Minute)
	h := New(svc, nopRankSvc{}, nopTeamSvc{}, nopArticleSvc{}, nopCommentSvc{}, nopRecordSvc{}, nopRecSvc{})
	return h, db, codes
}

// ---------- signup flow ----------

func TestSignupFlow_VerifyCode_Signup_Login(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newMemberHandlers(t)

	r := gin.New()
	r.POST("/auth/verify-code", h.IssueVerifyCode)
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)

	// Issue a code; email case is folded
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-code", bytes.NewBufferString(`{"email":"Neo@Example.COM"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("verify-code -> %d body=%s", w.Code, w.Body.String())
	}
	var issued VerifyCodeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &issued); err != nil {
		t.Fatalf("json: %v", err)
	}
	if issued.Email != "neo@example.com" || len(issued.Code) != 6 {
		t.Fatalf("unexpected issue: %#v", issued)
	}

	// Wrong code -> 400 verify_code_mismatch
	w = httptest.NewRecorder()
	body := `{"username":"neo","email":"neo@example.com","password":"s3cret","code":"000000"}`
	if issued.Code == "000000" {
		body = `{"username":"neo","email":"neo@example.com","password":"s3cret","code":"999999"}`
	}
	req = httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong code -> %d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeVerifyCode {
		t.Fatalf("error code = %q", er.Code)
	}

	// Correct code -> 201, nickname defaults to username
	w = httptest.NewRecorder()
	body = fmt.Sprintf(`{"username":"neo","email":"neo@example.com","password":"s3cret","genre":"Jazz","code":%q}`, issued.Code)
	req = httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup -> %d body=%s", w.Code, w.Body.String())
	}
	var m domain.Member
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("json: %v", err)
	}
	if m.Username != "neo" || m.Nickname != "neo" || m.Genre != "jazz" || m.Tier != domain.TierBronze {
		t.Fatalf("unexpected member: %#v", m)
	}

	// Duplicate username -> 409
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(body))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("dup signup -> %d", w.Code)
	}

	// Login with the right password -> 200 with token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"neo","password":"s3cret"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login -> %d body=%s", w.Code, w.Body.String())
	}
	var sess services.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("json: %v", err)
	}
	if sess.Token == "" || sess.Username != "neo" || sess.MemberID != m.ID {
		t.Fatalf("unexpected session: %#v", sess)
	}

	// Wrong password -> 401
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"neo","password":"wrong"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password -> %d", w.Code)
	}
}

func TestIssueVerifyCode_BadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newMemberHandlers(t)
	r := gin.New()
	r.POST("/auth/verify-code", h.IssueVerifyCode)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-code", bytes.NewBufferString(`{"email":"not-an-email"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid email -> %d", w.Code)
	}
}

// ---------- signout + profile ----------

func TestSignout_DeactivatesAndBlocksLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, db, _ := newMemberHandlers(t)

	seed := &domain.Member{Username: "trin", Nickname: "trin", Email: "trin@example.com",
		Password: "$2a$10$invalidhashinvalidhashinvalidhashinvalidhashinvalidha", Active: true, Tier: domain.TierBronze}
	if err := db.Create(seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := gin.New()
	r.POST("/auth/signout", asMember(seed.ID), h.Signout)
	r.GET("/members/me", asMember(seed.ID), h.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/signout", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("signout -> %d body=%s", w.Code, w.Body.String())
	}

	var got domain.Member
	if err := db.First(&got, seed.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Active {
		t.Fatalf("member still active after signout")
	}

	// Profile still readable
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/members/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("me -> %d", w.Code)
	}
}

func TestMe_UnknownMember(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newMemberHandlers(t)
	r := gin.New()
	r.GET("/members/me", asMember(9999), h.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/members/me", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown member -> %d", w.Code)
	}
}
