package models

// Message 代表两个用户之间的一条私信。
// 消息由 send 操作创建一次，本核心永远不会修改或删除它；
// 排序依据是 CreatedAt，相同时间戳时按 ID（插入顺序）决胜。
type Message struct {
	BaseModel
	SenderID   uint   `gorm:"index:idx_message_pair;not null" json:"senderId"`   // 指向 User（发送者）的外键
	ReceiverID uint   `gorm:"index:idx_message_pair;not null" json:"receiverId"` // 指向 User（接收者）的外键
	Text       string `gorm:"type:text;not null;default:''" json:"text"`         // 可为空字符串，绝不为 NULL

	// 关联关系。一条消息可以有零个、一个或多个图片附件；
	// 当前发送逻辑每次最多只产生一个，但模型不做这个假设。
	Images []MessageImage `gorm:"foreignKey:MessageID" json:"images,omitempty"`

	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

// TableName 指定 Message 模型的表名。
func (Message) TableName() string {
	return "messages"
}

// MessageImage 代表消息的二进制图片附件。
// 与父消息在同一个事务中创建，创建后不再变更。
type MessageImage struct {
	BaseModel
	MessageID uint   `gorm:"index;not null" json:"messageId"`
	Data      []byte `gorm:"type:bytea;not null" json:"-"`
	// ContentType 在创建时从 data URL 前缀记录下来，编码回传时原样使用。
	ContentType string `gorm:"type:varchar(100);not null;default:'image/png'" json:"contentType"`
}

// TableName 指定 MessageImage 模型的表名。
func (MessageImage) TableName() string {
	return "message_images"
}
