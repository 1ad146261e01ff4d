package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"capsule-im/internal/attachment"
	"capsule-im/internal/config"
	"capsule-im/internal/imtypes"
	"capsule-im/internal/kafka"
	"capsule-im/internal/models"
	"capsule-im/internal/storage"
)

var (
	ErrReceiverRequired    = errors.New("接收者ID不能为空")
	ErrMalformedAttachment = errors.New("图片附件无法解析")
)

// MessageDeliverer 将新消息推送给在线的接收者。
// 由 websocket.Hub 实现；推送是尽力而为的，失败不影响已持久化的消息。
type MessageDeliverer interface {
	DeliverNewMessage(receiverID uint, message *imtypes.ChatMessage)
}

// MessageService 定义了消息相关服务的接口。
type MessageService interface {
	// SendMessage 持久化一条新消息（可选附带一张图片），并尝试实时推送给接收者。
	// imagePayload 为空表示纯文本消息。
	SendMessage(ctx context.Context, senderID, receiverID uint, text, imagePayload string) (*imtypes.ChatMessage, error)

	// GetConversation 返回两个用户之间的完整消息历史，按时间升序。
	GetConversation(ctx context.Context, userID, otherUserID uint) ([]*imtypes.ChatMessage, error)
}

// messageService 是 MessageService 的实现。
type messageService struct {
	msgRepo   storage.MessageRepository
	producer  kafka.MessageProducer // 可以为 nil（Kafka 未启用时）
	deliverer MessageDeliverer
	cfg       config.Config
}

// NewMessageService 创建一个新的 MessageService 实例。
func NewMessageService(msgRepo storage.MessageRepository, producer kafka.MessageProducer, deliverer MessageDeliverer, cfg config.Config) MessageService {
	return &messageService{
		msgRepo:   msgRepo,
		producer:  producer,
		deliverer: deliverer,
		cfg:       cfg,
	}
}

// SendMessage 处理用户发送的新消息。
// 附件在任何数据库写入之前解码，格式非法时整个请求被拒绝，不产生任何状态变更。
func (s *messageService) SendMessage(ctx context.Context, senderID, receiverID uint, text, imagePayload string) (*imtypes.ChatMessage, error) {
	if receiverID == 0 {
		return nil, ErrReceiverRequired
	}

	// 先解码附件，再落库
	var image *models.MessageImage
	if imagePayload != "" {
		data, contentType, err := attachment.Decode(imagePayload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedAttachment, err)
		}
		image = &models.MessageImage{Data: data, ContentType: contentType}
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
	}

	if err := s.msgRepo.CreateWithImage(ctx, message, image); err != nil {
		return nil, fmt.Errorf("保存消息失败: %w", err)
	}

	chatMsg := &imtypes.ChatMessage{
		ID:         message.ID,
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Text:       message.Text,
		CreatedAt:  message.CreatedAt,
		Images:     []imtypes.ImageAttachment{},
	}
	if image != nil {
		chatMsg.Images = append(chatMsg.Images, imtypes.ImageAttachment{
			ImageID:     image.ID,
			Image:       attachment.Encode(image.Data, image.ContentType),
			ContentType: image.ContentType,
		})
	}

	// 消息已持久化，之后的事件发布和实时推送都是尽力而为
	s.publishMessageEvent(chatMsg)

	if s.deliverer != nil {
		s.deliverer.DeliverNewMessage(receiverID, chatMsg)
	}

	return chatMsg, nil
}

// GetConversation 检索并组装两个用户之间的会话。
func (s *messageService) GetConversation(ctx context.Context, userID, otherUserID uint) ([]*imtypes.ChatMessage, error) {
	rows, err := s.msgRepo.ListConversationRows(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("查询会话消息失败: %w", err)
	}
	return AssembleConversation(rows), nil
}

// kafkaPublishTimeout 限制单条事件等待投递报告的时长。
const kafkaPublishTimeout = 10 * time.Second

// publishMessageEvent 将已持久化的消息作为事件异步发布到 Kafka。
// 发布在独立的 goroutine 中进行，不挂在请求的生命周期上：
// 请求的取消或完成不影响事件投递，发布失败只记录日志。
func (s *messageService) publishMessageEvent(msg *imtypes.ChatMessage) {
	if s.producer == nil {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("序列化消息事件失败 (消息ID %d): %v", msg.ID, err)
		return
	}

	topic := s.cfg.Kafka.MessageEventsTopic
	key := []byte(fmt.Sprintf("%d", msg.SenderID))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), kafkaPublishTimeout)
		defer cancel()
		if err := s.producer.SendMessage(ctx, topic, key, payload); err != nil {
			log.Printf("发布消息事件到 Kafka 失败 (消息ID %d): %v", msg.ID, err)
		}
	}()
}
