package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livecast-api/internal/models"
)

// fakeStreamRepo はテスト用のStreamRepo実装
type fakeStreamRepo struct {
	streams map[string]models.Stream
}

func newFakeStreamRepo() *fakeStreamRepo {
	return &fakeStreamRepo{streams: make(map[string]models.Stream)}
}

func (f *fakeStreamRepo) CreateStream(_ context.Context, stream models.Stream) error {
	f.streams[stream.StreamId] = stream
	return nil
}

func (f *fakeStreamRepo) GetStream(_ context.Context, streamId string) (models.Stream, bool, error) {
	s, ok := f.streams[streamId]
	return s, ok, nil
}

func (f *fakeStreamRepo) ListStreams(_ context.Context) ([]models.Stream, error) {
	res := make([]models.Stream, 0, len(f.streams))
	for _, s := range f.streams {
		res = append(res, s)
	}
	return res, nil
}

func (f *fakeStreamRepo) StopStream(_ context.Context, streamId string, stoppedAt time.Time, reason string) error {
	s := f.streams[streamId]
	s.Status = models.StreamStopped
	s.StoppedAt = &stoppedAt
	s.StoppedReason = reason
	f.streams[streamId] = s
	return nil
}

// fakeChatRepo はテスト用のChatRepo実装
type fakeChatRepo struct {
	messages []models.ChatMessage
}

func (f *fakeChatRepo) AddMessage(_ context.Context, msg models.ChatMessage) error {
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeChatRepo) ListMessages(_ context.Context, streamId string, limit int) ([]models.ChatMessage, error) {
	res := make([]models.ChatMessage, 0)
	for _, m := range f.messages {
		if m.StreamId == streamId {
			res = append(res, m)
		}
	}
	if len(res) > limit {
		res = res[len(res)-limit:]
	}
	return res, nil
}

// fakeNotifier は停止通知の呼び出しを記録します
type fakeNotifier struct {
	calls []string // "streamId/reason"
}

func (f *fakeNotifier) StreamStopped(streamId, reason string) {
	f.calls = append(f.calls, streamId+"/"+reason)
}

func newTestStreamService() (*StreamService, *fakeStreamRepo, *fakeChatRepo, *fakeNotifier) {
	streams := newFakeStreamRepo()
	chat := &fakeChatRepo{}
	notifier := &fakeNotifier{}
	return NewStreamService(streams, chat, notifier), streams, chat, notifier
}

func streamer() models.User {
	return models.User{UserId: "user-1", DisplayName: "Alice", Role: models.RoleStreamer}
}

func TestCreateStream(t *testing.T) {
	svc, streams, _, _ := newTestStreamService()

	stream, err := svc.Create(context.Background(), streamer(), "My Stream")
	require.NoError(t, err)
	assert.NotEmpty(t, stream.StreamId)
	assert.Equal(t, models.StreamLive, stream.Status)
	assert.Equal(t, "user-1", stream.OwnerId)
	assert.Contains(t, streams.streams, stream.StreamId)
}

func TestStopStreamByOwner(t *testing.T) {
	svc, streams, _, notifier := newTestStreamService()
	ctx := context.Background()

	stream, err := svc.Create(ctx, streamer(), "My Stream")
	require.NoError(t, err)

	stopped, err := svc.Stop(ctx, stream.StreamId, "owner halted stream", streamer())
	require.NoError(t, err)
	assert.Equal(t, models.StreamStopped, stopped.Status)
	assert.Equal(t, "owner halted stream", stopped.StoppedReason)

	// 永続化された後に通知される
	assert.Equal(t, models.StreamStopped, streams.streams[stream.StreamId].Status)
	assert.Equal(t, []string{stream.StreamId + "/owner halted stream"}, notifier.calls)
}

func TestStopStreamDefaultReason(t *testing.T) {
	svc, _, _, notifier := newTestStreamService()
	ctx := context.Background()

	stream, err := svc.Create(ctx, streamer(), "My Stream")
	require.NoError(t, err)

	stopped, err := svc.Stop(ctx, stream.StreamId, "", streamer())
	require.NoError(t, err)
	assert.Equal(t, "配信者により停止されました", stopped.StoppedReason)
	require.Len(t, notifier.calls, 1)
}

func TestStopStreamByAdmin(t *testing.T) {
	svc, _, _, _ := newTestStreamService()
	ctx := context.Background()

	stream, err := svc.Create(ctx, streamer(), "My Stream")
	require.NoError(t, err)

	admin := models.User{UserId: "admin-1", Role: models.RoleAdmin}
	_, err = svc.Stop(ctx, stream.StreamId, "", admin)
	assert.NoError(t, err)
}

func TestStopStreamForbiddenForOthers(t *testing.T) {
	svc, streams, _, notifier := newTestStreamService()
	ctx := context.Background()

	stream, err := svc.Create(ctx, streamer(), "My Stream")
	require.NoError(t, err)

	other := models.User{UserId: "user-2", Role: models.RoleStreamer}
	_, err = svc.Stop(ctx, stream.StreamId, "", other)
	assert.ErrorIs(t, err, ErrNotStreamOwner)

	// 拒否された停止は何も起こさない
	assert.Equal(t, models.StreamLive, streams.streams[stream.StreamId].Status)
	assert.Empty(t, notifier.calls)
}

func TestStopStreamNotFound(t *testing.T) {
	svc, _, _, notifier := newTestStreamService()

	_, err := svc.Stop(context.Background(), "no-such-stream", "", streamer())
	assert.ErrorIs(t, err, ErrStreamNotFound)
	assert.Empty(t, notifier.calls)
}

func TestPostMessageAssignsIdAndTimestamp(t *testing.T) {
	svc, _, chat, _ := newTestStreamService()
	ctx := context.Background()

	before := time.Now()
	msg, err := svc.PostMessage(ctx, "stream-1", streamer(), "hello")
	require.NoError(t, err)

	assert.NotEmpty(t, msg.MessageId)
	assert.Equal(t, "Alice", msg.Author)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.CreatedAt.Before(before))
	require.Len(t, chat.messages, 1)

	// ULIDなのでID順 = 送信順
	msg2, err := svc.PostMessage(ctx, "stream-1", streamer(), "world")
	require.NoError(t, err)
	assert.Greater(t, msg2.MessageId, msg.MessageId)
}

func TestHistory(t *testing.T) {
	svc, _, _, _ := newTestStreamService()
	ctx := context.Background()

	_, err := svc.PostMessage(ctx, "stream-1", streamer(), "first")
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, "stream-1", streamer(), "second")
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, "stream-2", streamer(), "elsewhere")
	require.NoError(t, err)

	messages, err := svc.History(ctx, "stream-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
}
