package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"novamall/internal/constants"
	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"k8s.io/apimachinery/pkg/util/rand"
)

// UserService 用户服务接口
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, identifier, password string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByToken(ctx context.Context, token string) (*model.User, error)
}

// userService 用户服务实现
type userService struct {
	userRepo repository.UserRepository
	logger   *logger.Logger
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, logger *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register 注册用户
func (s *userService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	// 用户名与邮箱唯一性检查
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, errors.New(constants.ErrUsernameExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, errors.New(constants.ErrEmailExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Token:    generateToken(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	s.logger.Info("用户注册成功", "user_id", user.ID, "username", username)
	return user, nil
}

// Login 登录，identifier支持用户名或邮箱，成功后轮换Token
func (s *userService) Login(ctx context.Context, identifier, password string) (*model.User, error) {
	var user *model.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, identifier)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errors.New(constants.ErrAuthFailed)
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if user.Status != 0 {
		return nil, errors.New(constants.ErrAccountDisabled)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.New(constants.ErrPasswordIncorrect)
	}

	// 每次登录轮换Token
	user.Token = generateToken()
	if err := s.userRepo.UpdateToken(ctx, user.ID, user.Token); err != nil {
		return nil, fmt.Errorf("更新Token失败: %w", err)
	}

	return user, nil
}

// GetByID 根据ID获取用户
func (s *userService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetByToken 根据Token获取用户
func (s *userService) GetByToken(ctx context.Context, token string) (*model.User, error) {
	return s.userRepo.GetByToken(ctx, token)
}

// generateToken 生成随机访问Token
func generateToken() string {
	return "nm_" + rand.String(40)
}
