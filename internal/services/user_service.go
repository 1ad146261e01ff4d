package services

import (
	"context"
	"fmt"

	"capsule-im/internal/imtypes"
	"capsule-im/internal/models"
	"capsule-im/internal/storage"
)

// UserService 定义了用户相关服务的接口。
type UserService interface {
	GetUserProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID uint, fullName, profilePic string) (*models.User, error)
	// ListOtherUsers 返回除调用者外的所有用户摘要，用于会话侧边栏。
	ListOtherUsers(ctx context.Context, currentUserID uint) ([]imtypes.UserSummary, error)
}

// userService 是 UserService 的实现。
type userService struct {
	userRepo storage.UserRepository
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo storage.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetUserProfile 获取用户公开的个人资料。
func (s *userService) GetUserProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户 %d 失败: %w", userID, err)
	}
	// 清理敏感信息，即使它在 JSON 中通常被忽略
	user.PasswordHash = ""
	return user, nil
}

// UpdateUserProfile 更新用户的个人资料。
func (s *userService) UpdateUserProfile(ctx context.Context, userID uint, fullName, profilePic string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("更新用户资料失败，用户 %d 未找到: %w", userID, err)
	}

	// 按需更新字段
	updated := false
	if fullName != "" && user.FullName != fullName {
		user.FullName = fullName
		updated = true
	}
	if profilePic != "" && user.ProfilePic != profilePic {
		user.ProfilePic = profilePic
		updated = true
	}

	if !updated {
		user.PasswordHash = ""
		return user, nil // 没有字段被更新
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("更新用户 %d 资料失败: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// ListOtherUsers 返回侧边栏需要的用户摘要列表，按全名排序。
func (s *userService) ListOtherUsers(ctx context.Context, currentUserID uint) ([]imtypes.UserSummary, error) {
	users, err := s.userRepo.ListOthers(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("获取用户列表失败: %w", err)
	}

	summaries := make([]imtypes.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, imtypes.UserSummary{
			ID:         u.ID,
			FullName:   u.FullName,
			Email:      u.Email,
			ProfilePic: u.ProfilePic,
		})
	}
	return summaries, nil
}
