package repository

import (
	"context"
	"meetingroom/src/models"

	"gorm.io/gorm"
)

type TrailStore interface {
	AppendTrail(ctx context.Context, entry *models.TrailLog) error
	ListTrail(ctx context.Context, group string, reference uint) ([]models.TrailLog, error)
}

type gormTrailStore struct {
	db *gorm.DB
}

func NewTrailStore(db *gorm.DB) TrailStore {
	return &gormTrailStore{db: db}
}

func (s *gormTrailStore) AppendTrail(ctx context.Context, entry *models.TrailLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *gormTrailStore) ListTrail(ctx context.Context, group string, reference uint) ([]models.TrailLog, error) {
	var entries []models.TrailLog
	err := s.db.
		WithContext(ctx).
		Where("\"group\" = ? AND reference = ?", group, reference).
		Order("created_at asc").
		Find(&entries).
		Error
	return entries, err
}
