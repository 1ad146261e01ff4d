package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capsule-im/internal/config"
	"capsule-im/internal/imtypes"
	"capsule-im/internal/models"
	"capsule-im/internal/storage"
)

// fakeMessageRepo 是 storage.MessageRepository 的内存实现。
type fakeMessageRepo struct {
	nextID   uint
	messages []*models.Message
	images   []*models.MessageImage
	rows     []storage.ConversationRow
}

func (f *fakeMessageRepo) CreateWithImage(ctx context.Context, message *models.Message, image *models.MessageImage) error {
	f.nextID++
	message.ID = f.nextID
	f.messages = append(f.messages, message)
	if image != nil {
		f.nextID++
		image.ID = f.nextID
		image.MessageID = message.ID
		f.images = append(f.images, image)
	}
	return nil
}

func (f *fakeMessageRepo) ListConversationRows(ctx context.Context, userA, userB uint) ([]storage.ConversationRow, error) {
	return f.rows, nil
}

// fakeProducer 记录发布到 Kafka 的事件，每次发布写入 published 通道。
type fakeProducer struct {
	err       error // SendMessage 的返回值
	published chan publishedEvent
}

type publishedEvent struct {
	ctxErr  error // 发布时刻发布上下文的状态
	topic   string
	payload []byte
}

func newFakeProducer(err error) *fakeProducer {
	return &fakeProducer{err: err, published: make(chan publishedEvent, 8)}
}

func (f *fakeProducer) SendMessage(ctx context.Context, topic string, key []byte, payload []byte) error {
	f.published <- publishedEvent{ctxErr: ctx.Err(), topic: topic, payload: payload}
	return f.err
}

func (f *fakeProducer) Close() {}

func waitForPublish(t *testing.T, producer *fakeProducer) publishedEvent {
	t.Helper()
	select {
	case ev := <-producer.published:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("事件未在期限内发布到 Kafka")
		return publishedEvent{}
	}
}

// fakeDeliverer 记录推送调用。
type fakeDeliverer struct {
	calls []deliveredMessage
}

type deliveredMessage struct {
	receiverID uint
	message    *imtypes.ChatMessage
}

func (f *fakeDeliverer) DeliverNewMessage(receiverID uint, message *imtypes.ChatMessage) {
	f.calls = append(f.calls, deliveredMessage{receiverID: receiverID, message: message})
}

func newTestMessageService(repo *fakeMessageRepo, deliverer *fakeDeliverer) MessageService {
	return NewMessageService(repo, nil, deliverer, config.Config{})
}

func TestSendMessagePersistsAndDelivers(t *testing.T) {
	repo := &fakeMessageRepo{}
	deliverer := &fakeDeliverer{}
	svc := newTestMessageService(repo, deliverer)

	msg, err := svc.SendMessage(context.Background(), 1, 2, "你好", "")
	require.NoError(t, err)

	assert.Equal(t, uint(1), msg.SenderID)
	assert.Equal(t, uint(2), msg.ReceiverID)
	assert.Equal(t, "你好", msg.Text)
	require.NotNil(t, msg.Images)
	assert.Empty(t, msg.Images)

	require.Len(t, repo.messages, 1)
	assert.Empty(t, repo.images)

	require.Len(t, deliverer.calls, 1)
	assert.Equal(t, uint(2), deliverer.calls[0].receiverID)
	assert.Equal(t, msg, deliverer.calls[0].message)
}

func TestSendMessageWithImage(t *testing.T) {
	repo := &fakeMessageRepo{}
	deliverer := &fakeDeliverer{}
	svc := newTestMessageService(repo, deliverer)

	msg, err := svc.SendMessage(context.Background(), 1, 2, "", "data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)

	require.Len(t, repo.images, 1)
	assert.Equal(t, []byte("hello"), repo.images[0].Data)
	assert.Equal(t, "image/jpeg", repo.images[0].ContentType)

	require.Len(t, msg.Images, 1)
	assert.Equal(t, "image/jpeg", msg.Images[0].ContentType)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", msg.Images[0].Image)
}

func TestSendMessageMalformedAttachmentRejectedBeforePersist(t *testing.T) {
	repo := &fakeMessageRepo{}
	deliverer := &fakeDeliverer{}
	svc := newTestMessageService(repo, deliverer)

	_, err := svc.SendMessage(context.Background(), 1, 2, "text", "data:image/png;base64,@@@@")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedAttachment)

	// 无任何状态变更，也无推送
	assert.Empty(t, repo.messages)
	assert.Empty(t, repo.images)
	assert.Empty(t, deliverer.calls)
}

func TestSendMessageReceiverRequired(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := newTestMessageService(repo, &fakeDeliverer{})

	_, err := svc.SendMessage(context.Background(), 1, 0, "hi", "")
	assert.ErrorIs(t, err, ErrReceiverRequired)
	assert.Empty(t, repo.messages)
}

func TestSendMessageWithoutDeliverer(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := NewMessageService(repo, nil, nil, config.Config{})

	_, err := svc.SendMessage(context.Background(), 1, 2, "hi", "")
	require.NoError(t, err)
	require.Len(t, repo.messages, 1)
}

func TestSendMessagePublishesEventDetachedFromRequest(t *testing.T) {
	repo := &fakeMessageRepo{}
	producer := newFakeProducer(nil)
	cfg := config.Config{Kafka: config.KafkaConfig{MessageEventsTopic: "message-events"}}
	svc := NewMessageService(repo, producer, nil, cfg)

	// 请求上下文在持久化后立即失效，事件发布不受其影响
	ctx, cancel := context.WithCancel(context.Background())
	msg, err := svc.SendMessage(ctx, 1, 2, "你好", "")
	cancel()
	require.NoError(t, err)

	ev := waitForPublish(t, producer)
	assert.Equal(t, "message-events", ev.topic)
	assert.NoError(t, ev.ctxErr)

	var published imtypes.ChatMessage
	require.NoError(t, json.Unmarshal(ev.payload, &published))
	assert.Equal(t, msg.ID, published.ID)
	assert.Equal(t, "你好", published.Text)
}

func TestSendMessageSucceedsWhenPublishFails(t *testing.T) {
	repo := &fakeMessageRepo{}
	producer := newFakeProducer(errors.New("broker 不可达"))
	deliverer := &fakeDeliverer{}
	svc := NewMessageService(repo, producer, deliverer, config.Config{})

	msg, err := svc.SendMessage(context.Background(), 1, 2, "hi", "")
	require.NoError(t, err)
	require.NotNil(t, msg)
	waitForPublish(t, producer)

	// 消息已持久化并推送，发布失败只是日志
	require.Len(t, repo.messages, 1)
	require.Len(t, deliverer.calls, 1)
}

func TestGetConversationAssemblesRows(t *testing.T) {
	repo := &fakeMessageRepo{
		rows: []storage.ConversationRow{
			{MessageID: 1, SenderID: 1, ReceiverID: 2, Text: "a", CreatedAt: at(0)},
			{MessageID: 2, SenderID: 2, ReceiverID: 1, Text: "b", CreatedAt: at(1),
				ImageID: uintPtr(7), ImageData: []byte{1}, ContentType: strPtr("image/png")},
		},
	}
	svc := newTestMessageService(repo, &fakeDeliverer{})

	messages, err := svc.GetConversation(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "a", messages[0].Text)
	require.Len(t, messages[1].Images, 1)
	assert.Equal(t, uint(7), messages[1].Images[0].ImageID)
}
