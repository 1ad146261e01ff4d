package imtypes

// UserSummary 是用户目录（侧边栏）返回的公开用户信息。
type UserSummary struct {
	ID         uint   `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic,omitempty"`
}
