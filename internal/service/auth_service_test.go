package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livecast-api/internal/models"
)

// fakeUserRepo はテスト用のUserRepo実装
type fakeUserRepo struct {
	users map[string]models.User // userId → user
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user models.User) error {
	f.users[user.UserId] = user
	return nil
}

func (f *fakeUserRepo) GetUser(_ context.Context, userId string) (models.User, bool, error) {
	u, ok := f.users[userId]
	return u, ok, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (models.User, bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// fakeSessionRepo はテスト用のSessionRepo実装
type fakeSessionRepo struct {
	sessions map[string]models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, s models.Session, _ int) error {
	f.sessions[s.SessionId] = s
	return nil
}

func (f *fakeSessionRepo) GetSession(_ context.Context, sessionId string) (models.Session, bool, error) {
	s, ok := f.sessions[sessionId]
	return s, ok, nil
}

func (f *fakeSessionRepo) DeleteSession(_ context.Context, sessionId string) error {
	delete(f.sessions, sessionId)
	return nil
}

func newTestAuthService() (*AuthService, *fakeUserRepo, *fakeSessionRepo) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	return NewAuthService(users, sessions, 3600), users, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	user, session, err := svc.Register(ctx, "alice@example.com", "password", "Alice", "")
	require.NoError(t, err)
	assert.NotEmpty(t, user.UserId)
	assert.Equal(t, models.RoleViewer, user.Role) // ロール省略時はviewer
	assert.NotEmpty(t, session.SessionId)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	// パスワードは平文で保存されない
	assert.NotEqual(t, "password", user.PasswordHash)

	logged, session2, err := svc.Login(ctx, "alice@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, user.UserId, logged.UserId)
	assert.NotEqual(t, session.SessionId, session2.SessionId)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "alice@example.com", "password", "Alice", models.RoleStreamer)
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "alice@example.com", "other", "Alice2", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterInvalidRole(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, _, err := svc.Register(context.Background(), "alice@example.com", "password", "Alice", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "alice@example.com", "password", "Alice", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// 存在しないユーザーも同じエラー
	_, _, err = svc.Login(ctx, "nobody@example.com", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveSession(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	user, session, err := svc.Register(ctx, "alice@example.com", "password", "Alice", "")
	require.NoError(t, err)

	resolved, ok, err := svc.Resolve(ctx, session.SessionId)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user.UserId, resolved.UserId)
	assert.Equal(t, "Alice", resolved.DisplayName)
}

func TestResolveAbsentSession(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, ok, err := svc.Resolve(context.Background(), "no-such-session")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveExpiredSession(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	ctx := context.Background()

	_, session, err := svc.Register(ctx, "alice@example.com", "password", "Alice", "")
	require.NoError(t, err)

	// 期限切れに書き換える
	expired := sessions.sessions[session.SessionId]
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	sessions.sessions[session.SessionId] = expired

	_, ok, err := svc.Resolve(ctx, session.SessionId)
	require.NoError(t, err)
	assert.False(t, ok)

	// 期限切れエントリは遅延削除される
	_, exists := sessions.sessions[session.SessionId]
	assert.False(t, exists)
}

func TestLogoutDeletesSession(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	ctx := context.Background()

	_, session, err := svc.Register(ctx, "alice@example.com", "password", "Alice", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.SessionId))
	_, exists := sessions.sessions[session.SessionId]
	assert.False(t, exists)

	_, ok, err := svc.Resolve(ctx, session.SessionId)
	require.NoError(t, err)
	assert.False(t, ok)
}
