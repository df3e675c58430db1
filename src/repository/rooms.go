package repository

import (
	"context"
	"meetingroom/src/models"
	"meetingroom/src/models/scopes"

	"gorm.io/gorm"
)

type RoomStore interface {
	List(ctx context.Context) ([]models.Room, error)
	Find(ctx context.Context, id uint) (*models.Room, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Save(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id uint) error
}

type gormRoomStore struct {
	db *gorm.DB
}

func NewRoomStore(db *gorm.DB) RoomStore {
	return &gormRoomStore{db: db}
}

func (s *gormRoomStore) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.WithContext(ctx).Order("name asc").Find(&rooms).Error
	return rooms, err
}

func (s *gormRoomStore) Find(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *gormRoomStore) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.Room{}).Where("slug = ?", slug)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormRoomStore) Create(ctx context.Context, room *models.Room) error {
	return s.db.WithContext(ctx).Create(room).Error
}

func (s *gormRoomStore) Save(ctx context.Context, room *models.Room) error {
	return s.db.WithContext(ctx).Save(room).Error
}

func (s *gormRoomStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Room{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
