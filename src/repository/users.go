package repository

import (
	"context"
	"meetingroom/src/models"
	"meetingroom/src/models/scopes"
	"time"

	"gorm.io/gorm"
)

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByCognitoSub(ctx context.Context, sub string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	TouchLastActive(ctx context.Context, id uint, at time.Time) error
}

type gormUserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) first(q *gorm.DB) (*models.User, error) {
	var user models.User
	if err := q.First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.first(s.db.WithContext(ctx).Scopes(scopes.WithID(id)))
}

func (s *gormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(s.db.WithContext(ctx).Where("lower(email) = lower(?)", email))
}

func (s *gormUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.first(s.db.WithContext(ctx).Where("username = ?", username))
}

func (s *gormUserStore) FindByCognitoSub(ctx context.Context, sub string) (*models.User, error) {
	if sub == "" {
		return nil, ErrNotFound
	}
	return s.first(s.db.WithContext(ctx).Where("cognito_sub = ?", sub))
}

func (s *gormUserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("id asc").Find(&users).Error
	return users, err
}

func (s *gormUserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormUserStore) Save(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *gormUserStore) TouchLastActive(ctx context.Context, id uint, at time.Time) error {
	return s.db.
		WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_active", at).
		Error
}
