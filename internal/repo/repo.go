package repo

import (
	"context"
	"errors"
	"time"

	"livecast-api/internal/models"
)

// ErrStreamNotFound は停止対象の配信が存在しない場合に返します
var ErrStreamNotFound = errors.New("stream not found")

// SessionRepo はログインセッションを保存/取得するためのインターフェース
// 実装はRedis（キーTTL＝セッションTTL）。期限切れエントリはRedis側で消えます
type SessionRepo interface {
	CreateSession(ctx context.Context, s models.Session, ttlSec int) error
	GetSession(ctx context.Context, sessionId string) (models.Session, bool, error)
	DeleteSession(ctx context.Context, sessionId string) error
}

// UserRepo はユーザーを保存/取得するためのインターフェース
type UserRepo interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, userId string) (models.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, bool, error)
}

// StreamRepo は配信レコードを保存/取得するためのインターフェース
type StreamRepo interface {
	CreateStream(ctx context.Context, stream models.Stream) error
	GetStream(ctx context.Context, streamId string) (models.Stream, bool, error)
	ListStreams(ctx context.Context) ([]models.Stream, error)
	StopStream(ctx context.Context, streamId string, stoppedAt time.Time, reason string) error
}

// ChatRepo はチャットメッセージを保存/取得するためのインターフェース
type ChatRepo interface {
	AddMessage(ctx context.Context, msg models.ChatMessage) error
	// ListMessages は新しい順にlimit件取得し、古い順に並べ替えて返します
	ListMessages(ctx context.Context, streamId string, limit int) ([]models.ChatMessage, error)
}
