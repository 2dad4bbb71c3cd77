package repository

import (
	"context"
	"exam_engine_backend/internal/model"
	"exam_engine_backend/internal/util"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, util.ErrUserNotFound)
	}
	return &user, nil
}

// GetRole 只查询 role 一列
func (r *UserRepository) GetRole(ctx context.Context, userID uint) (model.UserRole, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Select("id", "role").First(&user, userID).Error
	if err != nil {
		return "", notFound(err, util.ErrUserNotFound)
	}
	return user.Role, nil
}
