package models

// User 代表系统中的用户。
type User struct {
	BaseModel
	FullName     string `gorm:"type:varchar(100);not null;index" json:"fullName"`
	Email        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // 不暴露密码哈希
	// ProfilePic 是头像引用：可以是 /uploads 下的 URL，也可以是客户端直接提交的 data URL。
	ProfilePic string `gorm:"type:text" json:"profilePic,omitempty"`

	// 关联关系
	SentMessages     []Message `gorm:"foreignKey:SenderID" json:"-"`
	ReceivedMessages []Message `gorm:"foreignKey:ReceiverID" json:"-"`
	Memories         []Memory  `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}
