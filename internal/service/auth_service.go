// Package service はビジネスロジックを担当します
// 認証・セッション管理および配信のライフサイクルを提供します
package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"livecast-api/internal/idgen"
	"livecast-api/internal/models"
	"livecast-api/internal/repo"
)

// bcryptCost はパスワードハッシュのコスト
const bcryptCost = 12

// AuthService はユーザー登録・ログイン・セッション解決を提供します
type AuthService struct {
	users    repo.UserRepo    // ユーザーの永続化を担当するリポジトリ
	sessions repo.SessionRepo // セッションストア（Redis、TTL付き）
	ttlSec   int              // セッションの有効期限（秒）
}

// NewAuthService は新しいAuthServiceを作成します
func NewAuthService(users repo.UserRepo, sessions repo.SessionRepo, ttlSec int) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttlSec: ttlSec}
}

// Register は新しいユーザーを登録し、セッションを発行します
// 処理の流れ:
// 1. メールアドレスの重複チェック
// 2. パスワードをbcryptでハッシュ化
// 3. ユーザーを保存し、セッションを発行
func (s *AuthService) Register(ctx context.Context, email, password, displayName, role string) (models.User, models.Session, error) {
	if role == "" {
		role = models.RoleViewer
	}
	if role != models.RoleAdmin && role != models.RoleStreamer && role != models.RoleViewer {
		return models.User{}, models.Session{}, ErrInvalidRole
	}

	if _, exists, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return models.User{}, models.Session{}, err
	} else if exists {
		return models.User{}, models.Session{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, models.Session{}, err
	}

	user := models.User{
		UserId:       idgen.NewUUID(),
		Email:        email,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return models.User{}, models.Session{}, err
	}

	session, err := s.createSession(ctx, user.UserId)
	if err != nil {
		return models.User{}, models.Session{}, err
	}
	return user, session, nil
}

// Login はメールアドレスとパスワードを検証し、セッションを発行します
// ユーザーが存在しない場合もパスワード不一致と同じエラーを返します
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, models.Session, error) {
	user, exists, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, models.Session{}, err
	}
	if !exists {
		return models.User{}, models.Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, models.Session{}, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.UserId)
	if err != nil {
		return models.User{}, models.Session{}, err
	}
	return user, session, nil
}

// Logout はセッションを破棄します
func (s *AuthService) Logout(ctx context.Context, sessionId string) error {
	return s.sessions.DeleteSession(ctx, sessionId)
}

// Resolve はセッショントークンからユーザーを解決します
// セッションが存在しない・期限切れの場合は ok=false を返します
// WebSocketハンドシェイク時とHTTPミドルウェアの両方から呼ばれます
func (s *AuthService) Resolve(ctx context.Context, sessionId string) (models.User, bool, error) {
	session, ok, err := s.sessions.GetSession(ctx, sessionId)
	if err != nil {
		return models.User{}, false, err
	}
	if !ok {
		return models.User{}, false, nil
	}
	if !session.ExpiresAt.After(time.Now()) {
		// RedisのTTLより先に期限が来た場合はここで掃除する
		_ = s.sessions.DeleteSession(ctx, sessionId)
		return models.User{}, false, nil
	}

	user, ok, err := s.users.GetUser(ctx, session.UserId)
	if err != nil {
		return models.User{}, false, err
	}
	if !ok {
		return models.User{}, false, nil
	}
	return user, true, nil
}

// SessionTTLSec はセッションTTL（秒）を返します（Cookieの MaxAge 用）
func (s *AuthService) SessionTTLSec() int {
	return s.ttlSec
}

func (s *AuthService) createSession(ctx context.Context, userId string) (models.Session, error) {
	now := time.Now()
	session := models.Session{
		SessionId: idgen.NewUUID(),
		UserId:    userId,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(s.ttlSec) * time.Second),
	}
	if err := s.sessions.CreateSession(ctx, session, s.ttlSec); err != nil {
		return models.Session{}, err
	}
	return session, nil
}
