// Package services – MemberService
//
// This file implements account lifecycle: email verification codes,
// signup, login, deactivation, and profile reads. Passwords are stored
// as bcrypt hashes; sessions are stateless JWTs signed with the
// configured secret.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/2eungwoo/moum-backend/internal/cache"
	"github.com/2eungwoo/moum-backend/internal/domain"
)

// MemberRepo defines the persistence contract required by MemberService.
type MemberRepo interface {
	// CreateMember inserts a new member row.
	CreateMember(ctx context.Context, db *gorm.DB, m *domain.Member) error

	// GetMember fetches a member by id.
	GetMember(ctx context.Context, db *gorm.DB, id int) (*domain.Member, error)

	// GetMemberByUsername fetches a member by unique username.
	GetMemberByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Member, error)

	// ExistsMemberByUsername reports whether the username is taken.
	ExistsMemberByUsername(ctx context.Context, db *gorm.DB, username string) (bool, error)

	// ExistsMemberByEmail reports whether the email is registered.
	ExistsMemberByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error)

	// SetMemberActive flips the account's active flag.
	SetMemberActive(ctx context.Context, db *gorm.DB, id int, active bool) error
}

// CodeStore keeps short-lived signup verification codes. The concrete
// implementation is cache.VerifyStore.
type CodeStore interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	Code(ctx context.Context, email string) (string, error)
}

// SignupInput carries the fields required to register a member. Code is
// the emailed verification code the caller received beforehand.
type SignupInput struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Genre    string `json:"genre"`
	Code     string `json:"code"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	MemberID  int       `json:"member_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MemberService implements account signup, login, and profile reads.
// It is safe for concurrent use.
type MemberService struct {
	// DB is the GORM handle used for all queries.
	DB *gorm.DB
	// Repo is the member repository used by this service.
	Repo MemberRepo
	// Codes stores signup verification codes.
	Codes CodeStore

	// JWTSecret signs issued session tokens.
	JWTSecret string
	// TokenTTL bounds session token lifetime.
	TokenTTL time.Duration
	// VerifyCodeTTL bounds how long an issued code stays redeemable.
	VerifyCodeTTL time.Duration
}

// NewMemberService constructs a MemberService from the auth settings.
func NewMemberService(db *gorm.DB, r MemberRepo, codes CodeStore, secret string, tokenTTL, codeTTL time.Duration) *MemberService {
	return &MemberService{
		DB:            db,
		Repo:          r,
		Codes:         codes,
		JWTSecret:     secret,
		TokenTTL:      tokenTTL,
		VerifyCodeTTL: codeTTL,
	}
}

// IssueVerifyCode generates a 6-digit code for the email, stores it
// with the configured TTL, and returns it for delivery. Reissuing
// replaces any previous code.
func (s *MemberService) IssueVerifyCode(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", ErrVerifyCodeMismatch
	}
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	if err := s.Codes.SaveCode(ctx, email, code, s.VerifyCodeTTL); err != nil {
		return "", err
	}
	return code, nil
}

// Signup registers a new member after checking the verification code
// and username/email uniqueness. The password is stored as a bcrypt
// hash; the plaintext never leaves this method.
func (s *MemberService) Signup(ctx context.Context, in SignupInput) (*domain.Member, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	stored, err := s.Codes.Code(ctx, email)
	if err != nil {
		if errors.Is(err, cache.ErrCodeNotFound) {
			return nil, ErrVerifyCodeMismatch
		}
		return nil, err
	}
	if stored != in.Code {
		return nil, ErrVerifyCodeMismatch
	}

	if taken, err := s.Repo.ExistsMemberByUsername(ctx, s.DB, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateUsername
	}
	if taken, err := s.Repo.ExistsMemberByEmail(ctx, s.DB, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		nickname = username
	}
	m := &domain.Member{
		Username: username,
		Nickname: nickname,
		Email:    email,
		Password: string(hash),
		Genre:    strings.ToLower(strings.TrimSpace(in.Genre)),
		Active:   true,
		Tier:     domain.TierBronze,
	}
	if err := s.Repo.CreateMember(ctx, s.DB, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Login verifies the credentials and issues a signed session token.
// Unknown usernames and wrong passwords both map to
// ErrInvalidCredentials.
func (s *MemberService) Login(ctx context.Context, username, password string) (*Session, error) {
	m, err := s.Repo.GetMemberByUsername(ctx, s.DB, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !m.Active || m.BanStatus {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().UTC().Add(s.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": fmt.Sprintf("%d", m.ID),
		"usr": m.Username,
		"exp": expiresAt.Unix(),
		"iat": time.Now().UTC().Unix(),
	})
	signed, err := token.SignedString([]byte(s.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     signed,
		MemberID:  m.ID,
		Username:  m.Username,
		ExpiresAt: expiresAt,
	}, nil
}

// Deactivate flips the member's account to inactive. Issued tokens keep
// verifying until expiry, but login and authenticated requests reject
// inactive accounts.
func (s *MemberService) Deactivate(ctx context.Context, memberID int) error {
	if err := s.Repo.SetMemberActive(ctx, s.DB, memberID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}

// Profile returns the member's account details.
func (s *MemberService) Profile(ctx context.Context, memberID int) (*domain.Member, error) {
	m, err := s.Repo.GetMember(ctx, s.DB, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return m, nil
}

// randomCode draws a uniformly random 6-digit decimal code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
