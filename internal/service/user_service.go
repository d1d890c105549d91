package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"amora-go/internal/model"
	"amora-go/internal/repository"
	"amora-go/pkg/database"
	"amora-go/pkg/hash"
	"amora-go/pkg/log"
	"amora-go/pkg/storage"
	"amora-go/pkg/token"

	"gorm.io/gorm"
)

// ErrUsernameTaken 表示注册时用户名已被占用。
var ErrUsernameTaken = errors.New("用户名已存在")

// ErrInvalidCredentials 表示登录凭据不正确。
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(username, password string) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	Logout(tokenString string) error
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	GetProfile(userID uint) (*model.User, *model.Profile, error)
	// CompleteOnboarding 记录问卷档案的基础信息并打上完成时间戳。
	CompleteOnboarding(userID uint, fullName string) (*model.Profile, error)
	// UploadPhoto 把头像对象写入 MinIO 并将对象名回写到档案。
	UploadPhoto(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) (string, error)
	PhotoURL(ctx context.Context, userID uint) (string, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo     repository.UserRepository
	profileRepo  repository.ProfileRepository
	usageService UsageService
	jwtManager   *token.JWTManager
	photoBucket  string
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	usageService UsageService,
	jwtManager *token.JWTManager,
	photoBucket string,
) UserService {
	return &userService{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		usageService: usageService,
		jwtManager:   jwtManager,
		photoBucket:  photoBucket,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(username, password string) (*model.User, error) {
	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建新用户
	newUser := &model.User{
		Username: username,
		Password: hashedPassword,
		Role:     "USER", // 默认角色
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}

	// 4. 为新用户建立免费档位的额度记录
	if _, err := s.usageService.EnsureUsage(newUser.ID); err != nil {
		log.Errorf("[UserService] 初始化用户额度失败, username: %s, error: %v", username, err)
		return nil, fmt.Errorf("初始化用户额度失败: %w", err)
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(username, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	accessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	// token 的剩余有效期作为黑名单 key 的过期时间
	expiration := time.Until(claims.ExpiresAt.Time)
	return database.RDB.Set(context.Background(), "blacklist:"+tokenString, "true", expiration).Err()
}

// RefreshToken 用 refresh token 换发新的一对 token。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	// 1. 验证 refresh token 是否有效
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByUsername(claims.Username)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	// 3. 签发新的 token
	newAccessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}

// GetProfile 返回用户及其问卷档案；档案不存在时返回 nil 档案而非错误。
func (s *userService) GetProfile(userID uint) (*model.User, *model.Profile, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.profileRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, nil, nil
		}
		return nil, nil, err
	}
	return user, profile, nil
}

// CompleteOnboarding 写入档案基础信息并打上完成时间戳。
// 档案行按 user_id 幂等插入或更新，重复提交只刷新时间戳。
func (s *userService) CompleteOnboarding(userID uint, fullName string) (*model.Profile, error) {
	now := time.Now()
	profile := &model.Profile{
		UserID:                userID,
		FullName:              fullName,
		OnboardingCompletedAt: &now,
	}
	if err := s.profileRepo.Upsert(profile); err != nil {
		return nil, err
	}
	return s.profileRepo.FindByUserID(userID)
}

// UploadPhoto 把头像对象写入 MinIO 并将对象名回写到档案。
func (s *userService) UploadPhoto(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) (string, error) {
	objectName, err := storage.UploadProfilePhoto(ctx, s.photoBucket, userID, reader, size, contentType)
	if err != nil {
		return "", err
	}
	if err := s.profileRepo.SetPhotoURL(userID, objectName); err != nil {
		return "", err
	}
	return objectName, nil
}

// PhotoURL 为档案头像生成限时的预签名访问地址。
func (s *userService) PhotoURL(ctx context.Context, userID uint) (string, error) {
	profile, err := s.profileRepo.FindByUserID(userID)
	if err != nil {
		return "", err
	}
	if profile.PhotoURL == "" {
		return "", nil
	}
	return storage.PresignedPhotoURL(ctx, s.photoBucket, profile.PhotoURL, 24*time.Hour)
}
