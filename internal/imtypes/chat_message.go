package imtypes

import "time"

// EventType defines the type of an event pushed over the live channel.
type EventType string

const (
	// NewMessageEvent 是实时通道上唯一的应用事件：
	// 接收方在线时，新持久化的消息会以该事件推送。
	NewMessageEvent EventType = "newMessage"
)

// Event 是 WebSocket 推送事件的信封。
type Event struct {
	Event EventType    `json:"event"`
	Data  *ChatMessage `json:"data"`
}

// ChatMessage 是对外传输的已组装消息视图：
// 消息本体加上其全部图片附件（已编码为 data URL）。
// 它是存储记录的只读派生副本。
type ChatMessage struct {
	ID         uint              `json:"id"`
	SenderID   uint              `json:"senderId"`
	ReceiverID uint              `json:"receiverId"`
	Text       string            `json:"text"`
	CreatedAt  time.Time         `json:"createdAt"`
	Images     []ImageAttachment `json:"images"` // 永不为 null，无附件时为 []
}

// ImageAttachment 是附件的可传输表示。
type ImageAttachment struct {
	ImageID     uint   `json:"imageId,omitempty"`
	Image       string `json:"image"` // data URL
	ContentType string `json:"contentType,omitempty"`
}
