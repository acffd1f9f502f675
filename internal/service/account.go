package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/filmbox/internal/model"
	"github.com/user/filmbox/internal/repository"
)

var (
	// ErrInvalidCredentials 邮箱或密码不正确
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("该邮箱已被注册")
)

// AccountService 账号与会话管理
// 会话本身是无状态的 JWT，登出由表示层清除凭证完成，这里不记录在线状态
type AccountService struct {
	users *repository.UserRepository
}

func NewAccountService(users *repository.UserRepository) *AccountService {
	return &AccountService{users: users}
}

// SignUp 注册新账号
func (s *AccountService) SignUp(email, password, name string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: 邮箱和密码不能为空", repository.ErrInvalidArgument)
	}

	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	// 未提供用户名时默认截取邮箱 @ 符号前的内容
	if name == "" {
		name = email
		if parts := strings.Split(email, "@"); len(parts) > 0 {
			name = parts[0]
		}
	}

	return s.users.Create(email, name, password)
}

// SignIn 登录
func (s *AccountService) SignIn(email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: 邮箱和密码不能为空", repository.ErrInvalidArgument)
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.users.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Current 获取当前身份
// 无有效会话返回 (nil, nil)，存储层故障返回错误，两者必须可区分
func (s *AccountService) Current(userID int) (*model.User, error) {
	if userID <= 0 {
		return nil, nil
	}
	return s.users.FindByID(userID)
}
