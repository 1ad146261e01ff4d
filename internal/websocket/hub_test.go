package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capsule-im/internal/imtypes"
)

func newTestClient(hub *Hub, userID uint) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 8),
		UserID: userID,
	}
}

func TestHubRegisterAndLookup(t *testing.T) {
	hub := NewHub()
	assert.Nil(t, hub.Lookup(1))

	c1 := newTestClient(hub, 1)
	hub.Register(c1)
	assert.Same(t, c1, hub.Lookup(1))
	assert.Equal(t, 1, hub.OnlineCount())
}

func TestHubRegisterReplacesExistingConnection(t *testing.T) {
	hub := NewHub()
	c1 := newTestClient(hub, 1)
	c2 := newTestClient(hub, 1)

	hub.Register(c1)
	hub.Register(c2)

	// 新连接生效，旧连接的发送通道被关闭
	assert.Same(t, c2, hub.Lookup(1))
	_, open := <-c1.send
	assert.False(t, open)
}

func TestHubStaleUnregisterDoesNotEvictNewerConnection(t *testing.T) {
	hub := NewHub()
	c1 := newTestClient(hub, 1)
	c2 := newTestClient(hub, 1)

	hub.Register(c1)
	hub.Register(c2)

	// 旧连接断开时的注销不能影响已经替换它的新连接
	hub.Unregister(c1)
	assert.Same(t, c2, hub.Lookup(1))

	hub.Unregister(c2)
	assert.Nil(t, hub.Lookup(1))
	assert.Equal(t, 0, hub.OnlineCount())
}

func TestHubDeliverNewMessageToOnlineReceiver(t *testing.T) {
	hub := NewHub()
	receiver := newTestClient(hub, 2)
	hub.Register(receiver)

	msg := &imtypes.ChatMessage{
		ID:         7,
		SenderID:   1,
		ReceiverID: 2,
		Text:       "你好",
		Images:     []imtypes.ImageAttachment{},
	}
	hub.DeliverNewMessage(2, msg)

	require.Len(t, receiver.send, 1)
	var event imtypes.Event
	require.NoError(t, json.Unmarshal(<-receiver.send, &event))
	assert.Equal(t, imtypes.NewMessageEvent, event.Event)
	require.NotNil(t, event.Data)
	assert.Equal(t, uint(7), event.Data.ID)
	assert.Equal(t, "你好", event.Data.Text)
	assert.NotNil(t, event.Data.Images)
}

func TestHubDeliverNewMessageOfflineReceiverIsSilent(t *testing.T) {
	hub := NewHub()
	sender := newTestClient(hub, 1)
	hub.Register(sender)

	hub.DeliverNewMessage(2, &imtypes.ChatMessage{ID: 1, SenderID: 1, ReceiverID: 2})

	// 接收者不在线，消息被丢弃，发送者不会收到任何东西
	assert.Empty(t, sender.send)
	assert.Same(t, sender, hub.Lookup(1))
}

func TestHubDeliverNewMessageFullBufferEvictsClient(t *testing.T) {
	hub := NewHub()
	receiver := &Client{hub: hub, send: make(chan []byte), UserID: 2} // 无缓冲，立即满
	hub.Register(receiver)

	hub.DeliverNewMessage(2, &imtypes.ChatMessage{ID: 1, SenderID: 1, ReceiverID: 2})

	assert.Nil(t, hub.Lookup(2))
	_, open := <-receiver.send
	assert.False(t, open)
}
