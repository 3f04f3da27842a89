// Package models はアプリケーションで使用するデータ構造を定義します
package models

import "time"

// ユーザーロール
const (
	RoleAdmin    = "admin"    // 管理者（全配信の停止が可能）
	RoleStreamer = "streamer" // 配信者（配信の開始・停止が可能）
	RoleViewer   = "viewer"   // 視聴者（デフォルト）
)

// 配信ステータス
const (
	StreamLive    = "live"    // 配信中
	StreamStopped = "stopped" // 停止済み
)

// User は登録済みユーザーの情報を表します
// PasswordHash はレスポンスに含めません
type User struct {
	UserId       string    `json:"id"`          // ユーザーの一意な識別子
	Email        string    `json:"email"`       // メールアドレス（ログインID）
	DisplayName  string    `json:"displayName"` // 表示名（チャットの発言者名）
	Role         string    `json:"role"`        // ロール (admin / streamer / viewer)
	PasswordHash string    `json:"-"`           // bcryptハッシュ
	CreatedAt    time.Time `json:"-"`           // 登録日時
}

// Session はログインセッションを表します
// トークン（SessionId）はCookieに保持され、Redisに有効期限付きで保存されます
type Session struct {
	SessionId string    `json:"sessionId"` // 不透明なセッショントークン
	UserId    string    `json:"userId"`    // セッションの持ち主
	CreatedAt time.Time `json:"createdAt"` // 発行日時
	ExpiresAt time.Time `json:"expiresAt"` // 有効期限（これを過ぎたら認証失敗扱い）
}

// Stream は1つの配信を表します
type Stream struct {
	StreamId      string     `json:"id"`                      // 配信の一意な識別子
	Title         string     `json:"title"`                   // 配信タイトル
	OwnerId       string     `json:"ownerId"`                 // 配信者のユーザーID
	OwnerName     string     `json:"ownerName,omitempty"`     // 配信者の表示名（一覧用）
	Status        string     `json:"status"`                  // live / stopped
	StartedAt     time.Time  `json:"startedAt"`               // 配信開始日時
	StoppedAt     *time.Time `json:"stoppedAt,omitempty"`     // 停止日時（live中はnull）
	StoppedReason string     `json:"stoppedReason,omitempty"` // 停止理由
}

// ChatMessage は永続化されたチャットメッセージを表します
type ChatMessage struct {
	MessageId string    `json:"id"`        // メッセージID（ULID、時系列順にソート可能）
	StreamId  string    `json:"streamId"`  // 宛先の配信ID
	UserId    string    `json:"userId"`    // 発言者のユーザーID
	Author    string    `json:"author"`    // 発言者の表示名
	Content   string    `json:"content"`   // 本文（トリム済み・非空）
	CreatedAt time.Time `json:"createdAt"` // 永続化日時
}
