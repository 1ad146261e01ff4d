package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"capsule-im/internal/models"
)

// ConversationRow 是 messages 与 message_images 左连接后的一行。
// 一条带多个附件的消息会产生多行，它们共享同一个 MessageID；
// 无附件的消息图片列为 NULL（指针为 nil）。
type ConversationRow struct {
	MessageID  uint      `gorm:"column:message_id"`
	SenderID   uint      `gorm:"column:sender_id"`
	ReceiverID uint      `gorm:"column:receiver_id"`
	Text       string    `gorm:"column:text"`
	CreatedAt  time.Time `gorm:"column:created_at"`

	ImageID     *uint   `gorm:"column:image_id"`
	ImageData   []byte  `gorm:"column:image_data"`
	ContentType *string `gorm:"column:content_type"`
}

// MessageRepository 定义了消息数据操作的接口。
type MessageRepository interface {
	// CreateWithImage 在单个事务中插入消息，以及可选的图片附件。
	// 附件插入失败会回滚消息行：调用方看到的要么是两者都存在，要么是错误。
	CreateWithImage(ctx context.Context, message *models.Message, image *models.MessageImage) error

	// ListConversationRows 返回两个用户之间的全部消息与附件的连接行，
	// 按时间戳升序，时间戳相同时按消息 ID 升序。
	ListConversationRows(ctx context.Context, userA, userB uint) ([]ConversationRow, error)
}

// gormMessageRepository 使用 GORM 实现 MessageRepository。
type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建一个新的基于 GORM 的 MessageRepository。
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

// CreateWithImage 在数据库中创建消息记录及其可选附件。
func (r *gormMessageRepository) CreateWithImage(ctx context.Context, message *models.Message, image *models.MessageImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		if image != nil {
			image.MessageID = message.ID
			if err := tx.Create(image).Error; err != nil {
				return err
			}
			message.Images = append(message.Images, *image)
		}
		return nil
	})
}

// ListConversationRows 检索两个用户之间的会话连接行。
func (r *gormMessageRepository) ListConversationRows(ctx context.Context, userA, userB uint) ([]ConversationRow, error) {
	var rows []ConversationRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.id AS message_id, m.sender_id, m.receiver_id, m.text, m.created_at,
		       mi.id AS image_id, mi.data AS image_data, mi.content_type
		FROM messages m
		LEFT JOIN message_images mi ON mi.message_id = m.id AND mi.deleted_at IS NULL
		WHERE m.deleted_at IS NULL
		  AND ((m.sender_id = @a AND m.receiver_id = @b)
		    OR (m.sender_id = @b AND m.receiver_id = @a))
		ORDER BY m.created_at ASC, m.id ASC`,
		map[string]interface{}{"a": userA, "b": userB},
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
