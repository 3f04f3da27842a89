package chat

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// evictCloseReason はサーバー側から切断する際のクローズ理由
const evictCloseReason = "Stream stopped"

// Hub は配信ごとのWebSocket接続を管理します
// 接続の集合を持つのはHubだけで、他のコンポーネントは
// Join/Leave/Broadcast/EvictAllを通してのみ触れます
type Hub struct {
	log   zerolog.Logger
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{} // 配信IDをキーとした接続集合
}

// NewHub は新しいHubを作成します
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:   log,
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Join は接続を配信のルームに登録します
// 同一ユーザーの複数接続（複数タブ）はそれぞれ独立したエントリになります
func (h *Hub) Join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[c.streamId]
	if !exists {
		room = make(map[*Client]struct{})
		h.rooms[c.streamId] = room
	}
	room[c] = struct{}{}

	h.log.Info().Str("streamId", c.streamId).Str("userId", c.userId).Msg("client joined")
}

// Leave は接続をルームから削除します
// ルームが空になった場合はルーム自体を削除します
// 既に削除済みの接続に対してはno-opです（切断と強制切断の競合対策）
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[c.streamId]
	if !exists {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.streamId)
	}

	h.log.Info().Str("streamId", c.streamId).Str("userId", c.userId).Msg("client left")
}

// Broadcast はルーム内の全接続（送信者も含む）へイベントを送信します
// ロックはスナップショット取得の間だけ保持し、送信はロック外で行うため、
// 遅いクライアントが他の操作をブロックすることはありません
// 送信失敗はスキップ扱いです（切れかけの接続は読み取りループ側で回収される）
func (h *Hub) Broadcast(streamId string, v any) {
	h.mu.RLock()
	room := h.rooms[streamId]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(v); err != nil {
			h.log.Debug().Err(err).Str("streamId", streamId).Str("userId", c.userId).Msg("broadcast send failed")
		}
	}
}

// EvictAll はルームの全接続を強制切断し、ルームを空にします
// 集合の取り外しはロック内でアトミックに行い、切断はロック外で行います
// 切断された接続の読み取りループが呼ぶLeaveは空振りのno-opになります
// 再実行は安全で、同じ配信IDへのJoinは空のルームから再開できます
func (h *Hub) EvictAll(streamId string) {
	h.mu.Lock()
	room := h.rooms[streamId]
	delete(h.rooms, streamId)
	h.mu.Unlock()

	for c := range room {
		c.CloseWith(websocket.CloseNormalClosure, evictCloseReason)
	}
	if len(room) > 0 {
		h.log.Info().Str("streamId", streamId).Int("count", len(room)).Msg("evicted all clients")
	}
}

// StreamStopped は配信停止をルームへ伝えます
// 停止イベントを全員に配ってから強制切断します。この順序により
// クライアントは切断前に停止理由を受け取れます
// 配信停止アクションが停止レコードを永続化した後に同期的に呼ばれます
func (h *Hub) StreamStopped(streamId, reason string) {
	h.Broadcast(streamId, NewStoppedEvent(reason))
	h.EvictAll(streamId)
}

// Count は指定配信の現在の接続数を返します
func (h *Hub) Count(streamId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[streamId])
}
