package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"livecast-api/internal/chat"
	"livecast-api/internal/models"
	"livecast-api/internal/service"
)

// maxMessageRunes はチャット本文の最大長（トリム後）
const maxMessageRunes = 2000

// WebSocketHandler はチャットのWebSocket接続を処理するハンドラー
// 1接続 = Connecting → Authenticated → Closed の流れで、
// 認証はハンドシェイク時に1回だけ行います（メッセージごとには行わない）
type WebSocketHandler struct {
	auth     *service.AuthService   // セッション解決
	streams  *service.StreamService // メッセージの永続化
	hub      *chat.Hub              // 接続レジストリとブロードキャスト
	limiter  *chat.RateLimiter      // ユーザーごとのレート制限
	log      zerolog.Logger
	upgrader websocket.Upgrader // HTTPからWebSocketへのアップグレーダー
}

// NewWebSocketHandler は新しいWebSocketHandlerを作成します
func NewWebSocketHandler(auth *service.AuthService, streams *service.StreamService, hub *chat.Hub, limiter *chat.RateLimiter, log zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		auth:    auth,
		streams: streams,
		hub:     hub,
		limiter: limiter,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 本番環境では適切なOriginチェックを実装してください
				return true
			},
		},
	}
}

// HandleWebSocket はWebSocket接続を処理します
// 接続後、以下の処理を行います:
// 1. HTTPからWebSocketへのアップグレード
// 2. セッションCookieの認証（失敗時はポリシー違反コードで即切断、レジストリには触れない）
// 3. Hubへの登録とメッセージ受信ループの開始
// 4. 切断時のクリーンアップ（Leaveは強制切断と競合してもちょうど1回分の効果）
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	streamId := normalizeID(r.URL.Query().Get("streamId"))
	sessionId := sessionTokenFrom(r)

	// クローズコードをクライアントへ返すため、認証の前にアップグレードする
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	if streamId == "" || sessionId == "" {
		closeConn(conn, websocket.ClosePolicyViolation, "Unauthorized")
		return
	}

	user, ok, err := h.auth.Resolve(r.Context(), sessionId)
	if err != nil {
		h.log.Error().Err(err).Msg("session resolve error")
		closeConn(conn, websocket.CloseInternalServerErr, "internal error")
		return
	}
	if !ok {
		closeConn(conn, websocket.ClosePolicyViolation, "Session expired")
		return
	}

	// Authenticated: ここで初めてレジストリに登録する
	client := chat.NewClient(streamId, user.UserId, user.DisplayName, conn)
	h.hub.Join(client)
	defer func() {
		h.hub.Leave(client)
		conn.Close()
	}()

	h.log.Info().Str("streamId", streamId).Str("userId", user.UserId).Msg("WebSocket connected")

	// メッセージ受信ループ
	// 1フレームずつ直列に処理する（レート判定→永続化→ブロードキャストが
	// 終わるまで次のフレームは読まない）
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Error().Err(err).Str("streamId", streamId).Str("userId", user.UserId).Msg("WebSocket error")
			}
			break
		}
		h.handleMessage(r.Context(), client, string(data))
	}
}

// handleMessage は受信した1フレームを処理します
// 処理の流れ:
// 1. 前後の空白をトリム。空なら黙って無視
// 2. 長すぎる本文は本人にだけエラー通知
// 3. レート制限の判定。拒否なら本人にだけ通知
// 4. 永続化してID・日時を採番。失敗しても接続は維持し本人にだけ通知
// 5. ルーム全員へブロードキャスト
func (h *WebSocketHandler) handleMessage(ctx context.Context, client *chat.Client, text string) {
	content := strings.TrimSpace(text)
	if content == "" {
		return
	}
	if utf8.RuneCountInString(content) > maxMessageRunes {
		h.notify(client, chat.NewErrorEvent("message too long"))
		return
	}

	if !h.limiter.Allow(client.UserId(), time.Now()) {
		h.notify(client, chat.NewRateLimitedEvent())
		return
	}

	author := models.User{UserId: client.UserId(), DisplayName: client.UserName()}
	msg, err := h.streams.PostMessage(ctx, client.StreamId(), author, content)
	if err != nil {
		h.log.Error().Err(err).Str("streamId", client.StreamId()).Str("userId", client.UserId()).Msg("failed to persist chat message")
		h.notify(client, chat.NewErrorEvent("failed to send message"))
		return
	}

	h.hub.Broadcast(client.StreamId(), chat.NewChatEvent(msg))
}

// notify は本人だけへの通知を送ります（ブロードキャストしない）
func (h *WebSocketHandler) notify(client *chat.Client, event any) {
	if err := client.Send(event); err != nil {
		h.log.Debug().Err(err).Str("userId", client.UserId()).Msg("failed to send notice")
	}
}

// sessionTokenFrom はハンドシェイク時のCookieからセッショントークンを取り出します
func sessionTokenFrom(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// closeConn はクローズフレームを送ってから接続を閉じます
func closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
