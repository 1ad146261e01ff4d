package models

// MemoryType 定义了 Memory 条目的类型。
type MemoryType string

const (
	TextMemoryType  MemoryType = "text"
	ImageMemoryType MemoryType = "image"
	VideoMemoryType MemoryType = "video"
)

// Memory 代表用户保存的一条"时间胶囊"内容。
// 文本内容存 Content；图片/视频既可以把 base64 存进 Content，
// 也可以只存一个外部 URL。
type Memory struct {
	BaseModel
	UserID  uint       `gorm:"index;not null" json:"userId"`
	Type    MemoryType `gorm:"type:varchar(20);not null" json:"type"`
	Content string     `gorm:"type:text" json:"content,omitempty"`
	URL     string     `gorm:"type:varchar(255)" json:"url,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定 Memory 模型的表名。
func (Memory) TableName() string {
	return "memories"
}
