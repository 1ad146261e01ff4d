package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"capsule-im/internal/auth"
	"capsule-im/internal/config"
	"capsule-im/internal/models"
)

// fakeUserRepo 是 storage.UserRepository 的内存实现。
type fakeUserRepo struct {
	nextID uint
	users  map[string]*models.User // 以邮箱为键
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.nextID++
	user.ID = f.nextID
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserRepo) ListOthers(ctx context.Context, currentUserID uint) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.ID != currentUserID {
			out = append(out, *u)
		}
	}
	return out, nil
}

// fakeBlacklist 是 auth.TokenBlacklist 的内存实现。
type fakeBlacklist struct {
	revoked map[string]bool
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]bool)}
}

func (f *fakeBlacklist) Add(ctx context.Context, jti string, exp time.Time) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func testAuthConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecretKey: "test-secret",
			JWTExpiry:    time.Hour,
		},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	blacklist := newFakeBlacklist()
	cfg := testAuthConfig()
	svc := NewAuthService(repo, blacklist, cfg)

	token, user, err := svc.Register(context.Background(), "张三", "zhangsan@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	// 注册返回的令牌可以直接通过验证
	claims, err := auth.ValidateToken(context.Background(), token, cfg.Auth.JWTSecretKey, blacklist)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "张三", claims.FullName)

	// 登录
	loginToken, loginUser, err := svc.Login(context.Background(), "zhangsan@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)
	assert.Equal(t, user.ID, loginUser.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, newFakeBlacklist(), testAuthConfig())

	_, _, err := svc.Register(context.Background(), "张三", "dup@example.com", "secret123")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "李四", "dup@example.com", "secret456")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterPasswordTooShort(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), newFakeBlacklist(), testAuthConfig())

	_, _, err := svc.Register(context.Background(), "张三", "a@example.com", "123")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, newFakeBlacklist(), testAuthConfig())

	_, _, err := svc.Register(context.Background(), "张三", "a@example.com", "secret123")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// 未注册的邮箱返回同样的错误
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newFakeUserRepo()
	blacklist := newFakeBlacklist()
	cfg := testAuthConfig()
	svc := NewAuthService(repo, blacklist, cfg)

	token, _, err := svc.Register(context.Background(), "张三", "a@example.com", "secret123")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(context.Background(), token, cfg.Auth.JWTSecretKey, blacklist)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	_, err = auth.ValidateToken(context.Background(), token, cfg.Auth.JWTSecretKey, blacklist)
	assert.Error(t, err)
}
