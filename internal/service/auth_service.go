package service

import (
	"errors"
	"strings"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserStore interface {
	FindByEmail(email string) (*model.User, error)
	Create(user *model.User) error
	TouchLastLogin(id uint) error
}

type AuthService struct {
	Users UserStore
	Cfg   *config.Config
}

func NewAuthService(users UserStore, cfg *config.Config) *AuthService {
	return &AuthService{
		Users: users,
		Cfg:   cfg,
	}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	user, err := s.Users.FindByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	if err := s.Users.TouchLastLogin(user.ID); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
	}
	return &LoginResult{Token: token, User: user}, nil
}

// EnsureAdmin 首次启动时创建管理员账号，已存在则跳过
func (s *AuthService) EnsureAdmin(name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.Users.FindByEmail(email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &model.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     model.Admin,
	}
	if err := s.Users.Create(admin); err != nil {
		return err
	}
	logger.Log.Info("Admin account created", zap.String("email", email))
	return nil
}
