// Package idgen はID生成を担当します
// ユーザー・セッション・配信にはUUID、チャットメッセージには
// 時系列順にソート可能なULIDを使用します
package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID は単調増加するULIDを生成します
// 同一プロセス内では生成順とソート順が一致します
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}

// NewUUID はランダムなUUID v4を生成します
func NewUUID() string {
	return uuid.NewString()
}
