package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"livecast-api/internal/models"
)

// RedisSessionRepo はセッションをRedisに保存します
// キーのTTLをセッションTTLに合わせることで、期限切れセッションの
// 掃除はRedis任せになります
type RedisSessionRepo struct{ rdb *redis.Client }

func NewRedisSessionRepo(rdb *redis.Client) *RedisSessionRepo {
	return &RedisSessionRepo{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("sessions:%s", id)
}

func sec(v int) time.Duration {
	return time.Duration(v) * time.Second
}

func (sr *RedisSessionRepo) CreateSession(ctx context.Context, s models.Session, ttlSec int) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := sr.rdb.SetArgs(ctx, sessionKey(s.SessionId), b, redis.SetArgs{Mode: "NX", TTL: sec(ttlSec)}).Result()
	if err != nil {
		return err
	}
	if ok != "OK" {
		return errors.New("session already exists")
	}
	return nil
}

func (sr *RedisSessionRepo) GetSession(ctx context.Context, sessionId string) (models.Session, bool, error) {
	val, err := sr.rdb.Get(ctx, sessionKey(sessionId)).Bytes()
	if err == redis.Nil { // データがない
		return models.Session{}, false, nil
	}
	if err != nil { // エラー
		return models.Session{}, false, err
	}
	var s models.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return models.Session{}, false, err
	}
	return s, true, nil
}

func (sr *RedisSessionRepo) DeleteSession(ctx context.Context, sessionId string) error {
	return sr.rdb.Del(ctx, sessionKey(sessionId)).Err()
}
