package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotient-crm/quotient/internal/shared"
)

// ErrInvalidCredentials covers unknown email, wrong password and
// deactivated accounts alike so responses do not leak which it was.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrInvalidToken indicates a missing, expired or revoked token.
var ErrInvalidToken = errors.New("auth: invalid token")

const sessionKeyPrefix = "session:"

// Service issues and verifies bearer tokens. The live token lives in
// redis with a TTL; postgres keeps the session row for auditing.
type Service struct {
	repo       Repository
	cache      *redis.Client
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *redis.Client, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{repo: repo, cache: cache, sessionTTL: sessionTTL, now: time.Now}
}

// Login validates credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (string, time.Time, *User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	if !user.Active {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	expiresAt := s.now().Add(s.sessionTTL)
	if err := s.cache.Set(ctx, sessionKeyPrefix+token,
		strconv.FormatInt(user.ID, 10), s.sessionTTL).Err(); err != nil {
		return "", time.Time{}, nil, fmt.Errorf("store session: %w", err)
	}
	if err := s.repo.CreateSession(ctx, Session{
		Token:     token,
		UserID:    user.ID,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: s.now(),
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", time.Time{}, nil, fmt.Errorf("record session: %w", err)
	}
	return token, expiresAt, user, nil
}

// Logout revokes a token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.cache.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return s.repo.DeleteSession(ctx, token)
}

// Verify resolves a token to the acting user.
func (s *Service) Verify(ctx context.Context, token string) (*shared.Actor, error) {
	raw, err := s.cache.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil || !user.Active {
		return nil, ErrInvalidToken
	}
	return &shared.Actor{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Name:      user.Name,
		Role:      user.Role,
	}, nil
}
