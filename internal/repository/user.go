package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 注册用户，用户名已存在时返回 Conflict
func (r *UserRepository) Create(username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	existing, err := r.FindByUsername(username)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("username already exists")
	}

	// 密码哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
	if err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("username already exists")
		}
		return nil, apperr.Persistence(err)
	}

	return user, nil
}

// Verify 校验用户名密码，不匹配时返回 nil, nil
func (r *UserRepository) Verify(username, password string) (*model.User, error) {
	user, err := r.FindByUsername(strings.TrimSpace(username))
	if err != nil || user == nil {
		return nil, err
	}
	if !r.CheckPassword(user, password) {
		return nil, nil
	}
	return user, nil
}

// FindByUsername 根据用户名查找用户
func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// CheckPassword 验证密码
func (r *UserRepository) CheckPassword(user *model.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}
