package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"capsule-im/internal/auth"
	"capsule-im/internal/config"
	"capsule-im/internal/models"
	"capsule-im/internal/storage"
)

var (
	ErrUserAlreadyExists  = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("无效的邮箱或密码")
	ErrUserNotFound       = errors.New("用户未找到")
	ErrPasswordTooShort   = errors.New("密码长度至少为 6 个字符")
)

const minPasswordLength = 6

// AuthService 定义了用户认证服务的接口。
type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (token string, user *models.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *models.User, err error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

// authService 是 AuthService 的实现。
type authService struct {
	userRepo  storage.UserRepository
	blacklist auth.TokenBlacklist
	cfg       config.Config // 包含 AuthConfig
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(userRepo storage.UserRepository, blacklist auth.TokenBlacklist, cfg config.Config) AuthService {
	return &authService{
		userRepo:  userRepo,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

// Register 处理用户注册逻辑，成功后直接返回可用的令牌。
func (s *authService) Register(ctx context.Context, fullName, email, password string) (string, *models.User, error) {
	if len(password) < minPasswordLength {
		return "", nil, ErrPasswordTooShort
	}

	// 检查邮箱是否已被占用
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return "", nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("检查邮箱时出错: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	newUser := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hashedPassword,
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return "", nil, fmt.Errorf("创建用户失败: %w", err)
	}

	token, err := auth.GenerateToken(newUser.ID, newUser.FullName, s.cfg.Auth)
	if err != nil {
		return "", nil, fmt.Errorf("生成令牌失败: %w", err)
	}

	return token, newUser, nil
}

// Login 处理用户登录逻辑。
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 与密码错误返回同一个错误，避免暴露邮箱是否注册
		return "", nil, ErrInvalidCredentials
	} else if err != nil {
		return "", nil, fmt.Errorf("通过邮箱查找用户失败: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.FullName, s.cfg.Auth)
	if err != nil {
		return "", nil, fmt.Errorf("生成令牌失败: %w", err)
	}

	return token, user, nil
}

// Logout 将当前令牌的 JTI 加入黑名单，使其立即失效。
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return fmt.Errorf("令牌缺少 JTI，无法注销")
	}
	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("注销令牌失败: %w", err)
	}
	return nil
}
