package chat

import (
	"sync"
	"time"
)

// RateLimiter はユーザーごとの送信クールダウンを管理します
// キーはユーザーIDなので、同一ユーザーが複数タブで接続していても
// レートは合算されます。エントリはユーザー数でしか増えないため
// 明示的な削除は行いません
type RateLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[string]time.Time // ユーザーID → 最後に受理した時刻
}

// NewRateLimiter は新しいRateLimiterを作成します
func NewRateLimiter(cooldown time.Duration) *RateLimiter {
	return &RateLimiter{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
	}
}

// Allow はメッセージを受理してよいか判定します
// 判定と時刻の更新は同一ロック内で行うため、複数接続から同時に
// 送られても2通同時に通過することはありません
// 拒否した場合は時刻を更新しません（拒否でクールダウンは延びない）
func (l *RateLimiter) Allow(userId string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.last[userId]; ok && now.Sub(last) < l.cooldown {
		return false
	}
	l.last[userId] = now
	return true
}
