// Package chat はリアルタイムチャットの中核を担当します
// 配信ごとの接続レジストリ（Hub）、ユーザーごとのレート制限、
// 配信停止時の一斉切断を提供します
package chat

import (
	"time"

	"livecast-api/internal/models"
)

// 送信イベントの種別
const (
	KindChat        = "chat"         // チャットメッセージ（ルーム全員へ）
	KindStopped     = "stopped"      // 配信停止通知（切断直前にルーム全員へ）
	KindRateLimited = "rate_limited" // レート制限通知（本人のみへ）
	KindError       = "error"        // 一般エラー通知（本人のみへ）
)

// rateLimitedMessage はレート制限時にユーザーへ表示する文言
const rateLimitedMessage = "1秒に1回まで"

// ChatEvent はブロードキャストされるチャットメッセージです
type ChatEvent struct {
	Kind      string    `json:"kind"`
	MessageId string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoppedEvent は配信停止の通知です
type StoppedEvent struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// NoticeEvent は送信者本人だけに返す通知です（レート制限・エラー）
type NoticeEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewChatEvent は永続化済みメッセージからチャットイベントを作成します
func NewChatEvent(msg models.ChatMessage) ChatEvent {
	return ChatEvent{
		Kind:      KindChat,
		MessageId: msg.MessageId,
		Author:    msg.Author,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

// NewStoppedEvent は配信停止イベントを作成します
func NewStoppedEvent(reason string) StoppedEvent {
	return StoppedEvent{Kind: KindStopped, Reason: reason}
}

// NewRateLimitedEvent はレート制限通知を作成します
func NewRateLimitedEvent() NoticeEvent {
	return NoticeEvent{Kind: KindRateLimited, Message: rateLimitedMessage}
}

// NewErrorEvent は一般エラー通知を作成します
func NewErrorEvent(message string) NoticeEvent {
	return NoticeEvent{Kind: KindError, Message: message}
}
