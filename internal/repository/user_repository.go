package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"trakr/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	SetOpenProject(ctx context.Context, email string, projectID *int64) error
	SetResetToken(ctx context.Context, email, token string, expires time.Time) error
	ResetPassword(ctx context.Context, token, hashedPassword string, now time.Time) error
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail returns nil, nil when no user has that email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) SetOpenProject(ctx context.Context, email string, projectID *int64) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).
		Update("open_project", projectID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, email, token string, expires time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).
		Updates(map[string]any{"reset_token": token, "reset_expires": expires})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPassword consumes a live reset token and stores the new hash.
func (r *UserRepository) ResetPassword(ctx context.Context, token, hashedPassword string, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("reset_token = ? AND reset_expires > ?", token, now).
		Updates(map[string]any{
			"hashed_password": hashedPassword,
			"reset_token":     nil,
			"reset_expires":   nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidResetToken
	}
	return nil
}

// DeleteExpiredResetTokens clears reset tokens that expired before now.
func (r *UserRepository) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("reset_token IS NOT NULL AND reset_expires <= ?", now).
		Updates(map[string]any{"reset_token": nil, "reset_expires": nil})
	return result.RowsAffected, result.Error
}
