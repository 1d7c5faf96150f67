package service

import (
	"errors"
	"testing"
	"time"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"

	"gorm.io/gorm"
)

type memUserStore struct {
	users   map[string]*model.User
	touched []uint
}

func (m *memUserStore) FindByEmail(email string) (*model.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *memUserStore) Create(user *model.User) error {
	user.ID = uint(len(m.users) + 1)
	m.users[user.Email] = user
	return nil
}

func (m *memUserStore) TouchLastLogin(id uint) error {
	m.touched = append(m.touched, id)
	return nil
}

func testAuthConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: "test-secret-test-secret-test-secret", ExpireTime: time.Hour}}
}

// TestEnsureAdminThenLogin verifies the bootstrap admin can log in and receives an admin token.
func TestEnsureAdminThenLogin(t *testing.T) {
	users := &memUserStore{users: map[string]*model.User{}}
	svc := NewAuthService(users, testAuthConfig())

	if err := svc.EnsureAdmin("Admin", "admin@example.com", "s3cret"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := svc.EnsureAdmin("Admin", "admin@example.com", "other"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(users.users) != 1 {
		t.Fatalf("expected a single admin, got %d", len(users.users))
	}

	res, err := svc.Login(" admin@example.com ", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := util.ParseJWT(res.Token, testAuthConfig().JWT.Secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != model.Admin || claims.Email != "admin@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(users.touched) != 1 {
		t.Fatalf("expected last login to be touched")
	}
}

// TestLoginRejectsBadCredentials verifies unknown users and wrong passwords look the same.
func TestLoginRejectsBadCredentials(t *testing.T) {
	users := &memUserStore{users: map[string]*model.User{}}
	svc := NewAuthService(users, testAuthConfig())
	svc.EnsureAdmin("Admin", "admin@example.com", "s3cret")

	if _, err := svc.Login("admin@example.com", "wrong"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login("nobody@example.com", "s3cret"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// TestEnsureAdminSkipsWithoutCredentials verifies an empty password disables bootstrap.
func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	users := &memUserStore{users: map[string]*model.User{}}
	if err := NewAuthService(users, testAuthConfig()).EnsureAdmin("Admin", "admin@example.com", ""); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if len(users.users) != 0 {
		t.Fatalf("no admin should be created without a password")
	}
}
