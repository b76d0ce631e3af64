package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryAuthRepo struct {
	users    map[int64]User
	sessions map[string]Session
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{
		users:    make(map[int64]User),
		sessions: make(map[string]Session),
	}
}

func (r *memoryAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryAuthRepo) GetUser(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryAuthRepo) CreateSession(ctx context.Context, s Session) error {
	r.sessions[s.Token] = s
	return nil
}

func (r *memoryAuthRepo) DeleteSession(ctx context.Context, token string) error {
	delete(r.sessions, token)
	return nil
}

func newAuthTestService(t *testing.T) (*Service, *memoryAuthRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	repo := newMemoryAuthRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users[1] = User{
		ID:           1,
		CompanyID:    7,
		Email:        "jo@example.com",
		Name:         "Jo",
		Role:         RoleManager,
		PasswordHash: string(hash),
		Active:       true,
	}
	return NewService(repo, cache, time.Hour), repo, mr
}

func TestLoginAndVerify(t *testing.T) {
	svc, repo, _ := newAuthTestService(t)
	ctx := context.Background()

	token, expiresAt, user, err := svc.Login(ctx, "jo@example.com", "correct horse", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))
	require.Equal(t, int64(1), user.ID)
	require.Contains(t, repo.sessions, token)

	actor, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(1), actor.UserID)
	require.Equal(t, int64(7), actor.CompanyID)
	require.Equal(t, RoleManager, actor.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthTestService(t)

	_, _, _, err := svc.Login(context.Background(), "jo@example.com", "wrong", "10.0.0.1", "test-agent")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthTestService(t)

	_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "correct horse", "10.0.0.1", "test-agent")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	svc, repo, _ := newAuthTestService(t)
	u := repo.users[1]
	u.Active = false
	repo.users[1] = u

	_, _, _, err := svc.Login(context.Background(), "jo@example.com", "correct horse", "10.0.0.1", "test-agent")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyUnknownToken(t *testing.T) {
	svc, _, _ := newAuthTestService(t)

	_, err := svc.Verify(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc, _, mr := newAuthTestService(t)
	ctx := context.Background()

	token, _, _, err := svc.Login(ctx, "jo@example.com", "correct horse", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = svc.Verify(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyDeactivatedUser(t *testing.T) {
	svc, repo, _ := newAuthTestService(t)
	ctx := context.Background()

	token, _, _, err := svc.Login(ctx, "jo@example.com", "correct horse", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	u := repo.users[1]
	u.Active = false
	repo.users[1] = u

	_, err = svc.Verify(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, repo, _ := newAuthTestService(t)
	ctx := context.Background()

	token, _, _, err := svc.Login(ctx, "jo@example.com", "correct horse", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))
	require.NotContains(t, repo.sessions, token)

	_, err = svc.Verify(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
