package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeWriteTimeout はクローズフレーム送信のタイムアウト
const closeWriteTimeout = time.Second

// Conn はClientが必要とするWebSocket接続の操作
// *websocket.Conn が満たします。テストではフェイク実装を使います
type Conn interface {
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Client は1つの認証済みWebSocket接続を表します
// 接続の所有者は読み取りループを回すハンドラー側で、
// Hubはブロードキャスト用の参照を保持するだけです
type Client struct {
	streamId string // 参加している配信のID
	userId   string // 認証済みユーザーのID
	userName string // 表示名（チャットの発言者名）

	conn Conn
	mu   sync.Mutex // gorillaの接続は同時書き込み不可のため直列化する
}

// NewClient は認証済みの接続からClientを作成します
func NewClient(streamId, userId, userName string, conn Conn) *Client {
	return &Client{streamId: streamId, userId: userId, userName: userName, conn: conn}
}

func (c *Client) StreamId() string { return c.streamId }
func (c *Client) UserId() string   { return c.userId }
func (c *Client) UserName() string { return c.userName }

// Send はイベントをこの接続へ送信します
// ブロードキャストとレート制限通知の両方がここを通ります
func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// CloseWith はクローズフレームを送ってから接続を閉じます
// 閉じられた接続への再実行はエラーを無視するだけで安全です
func (c *Client) CloseWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
	_ = c.conn.Close()
}
