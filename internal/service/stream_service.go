package service

import (
	"context"
	"time"

	"livecast-api/internal/idgen"
	"livecast-api/internal/models"
	"livecast-api/internal/repo"
)

// defaultStopReason は停止理由が指定されなかった場合の表示文言
const defaultStopReason = "配信者により停止されました"

// historyLimit はチャット履歴の最大取得件数
const historyLimit = 50

// StreamNotifier は配信停止をリアルタイム層へ伝えるインターフェース
// chat.Hub が実装します。停止レコードの永続化後に同期的に呼ばれ、
// 停止通知のブロードキャスト→全接続の強制切断を行います
type StreamNotifier interface {
	StreamStopped(streamId, reason string)
}

// StreamService は配信の開始・停止・一覧とチャットの永続化を提供します
type StreamService struct {
	streams  repo.StreamRepo
	chat     repo.ChatRepo
	notifier StreamNotifier
}

// NewStreamService は新しいStreamServiceを作成します
func NewStreamService(streams repo.StreamRepo, chat repo.ChatRepo, notifier StreamNotifier) *StreamService {
	return &StreamService{streams: streams, chat: chat, notifier: notifier}
}

// Create は新しい配信をlive状態で開始します
func (s *StreamService) Create(ctx context.Context, owner models.User, title string) (models.Stream, error) {
	stream := models.Stream{
		StreamId:  idgen.NewUUID(),
		Title:     title,
		OwnerId:   owner.UserId,
		OwnerName: owner.DisplayName,
		Status:    models.StreamLive,
		StartedAt: time.Now(),
	}
	if err := s.streams.CreateStream(ctx, stream); err != nil {
		return models.Stream{}, err
	}
	return stream, nil
}

// Stop は配信を停止します（配信者本人または管理者のみ）
// 処理の流れ:
// 1. 配信の存在確認と権限チェック
// 2. 停止状態を永続化
// 3. リアルタイム層へ通知（停止イベントのブロードキャスト→全員切断）
// 永続化に失敗した場合は通知しません
func (s *StreamService) Stop(ctx context.Context, streamId, reason string, actor models.User) (models.Stream, error) {
	stream, exists, err := s.streams.GetStream(ctx, streamId)
	if err != nil {
		return models.Stream{}, err
	}
	if !exists {
		return models.Stream{}, ErrStreamNotFound
	}
	if actor.Role != models.RoleAdmin && stream.OwnerId != actor.UserId {
		return models.Stream{}, ErrNotStreamOwner
	}

	if reason == "" {
		reason = defaultStopReason
	}
	now := time.Now()
	if err := s.streams.StopStream(ctx, streamId, now, reason); err != nil {
		return models.Stream{}, err
	}

	s.notifier.StreamStopped(streamId, reason)

	stream.Status = models.StreamStopped
	stream.StoppedAt = &now
	stream.StoppedReason = reason
	return stream, nil
}

// List は全配信を開始日時の新しい順に返します
func (s *StreamService) List(ctx context.Context) ([]models.Stream, error) {
	return s.streams.ListStreams(ctx)
}

// History は指定配信のチャット履歴を古い順に最大50件返します
func (s *StreamService) History(ctx context.Context, streamId string) ([]models.ChatMessage, error) {
	return s.chat.ListMessages(ctx, streamId, historyLimit)
}

// PostMessage はチャットメッセージを永続化してIDと日時を割り当てます
// contentはトリム済み・非空であることを呼び出し側が保証します
func (s *StreamService) PostMessage(ctx context.Context, streamId string, author models.User, content string) (models.ChatMessage, error) {
	msg := models.ChatMessage{
		MessageId: idgen.NewULID(),
		StreamId:  streamId,
		UserId:    author.UserId,
		Author:    author.DisplayName,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.chat.AddMessage(ctx, msg); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}
