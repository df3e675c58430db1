package repository

import (
	"context"
	"meetingroom/src/models"
	"meetingroom/src/types"
	"time"

	"gorm.io/gorm"
)

type CodeStore interface {
	InvalidateCodes(ctx context.Context, email string, purpose types.CodePurpose) error
	CreateCode(ctx context.Context, code *models.VerificationCode) error
	FindUsableCode(ctx context.Context, email string, purpose types.CodePurpose, code string, now time.Time) (*models.VerificationCode, error)
	MarkUsed(ctx context.Context, id uint) error
	PurgeCodes(ctx context.Context, now time.Time) (int64, error)
}

type gormCodeStore struct {
	db *gorm.DB
}

func NewCodeStore(db *gorm.DB) CodeStore {
	return &gormCodeStore{db: db}
}

func (s *gormCodeStore) InvalidateCodes(ctx context.Context, email string, purpose types.CodePurpose) error {
	return s.db.
		WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("email = ? AND purpose = ? AND used = ?", email, purpose, false).
		Update("used", true).
		Error
}

func (s *gormCodeStore) CreateCode(ctx context.Context, code *models.VerificationCode) error {
	return s.db.WithContext(ctx).Create(code).Error
}

func (s *gormCodeStore) FindUsableCode(ctx context.Context, email string, purpose types.CodePurpose, code string, now time.Time) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	if err := s.db.
		WithContext(ctx).
		Where("email = ? AND purpose = ? AND code = ? AND used = ? AND expires_at > ?", email, purpose, code, false, now).
		Order("created_at desc").
		First(&vc).
		Error; err != nil {
		return nil, translate(err)
	}
	return &vc, nil
}

// MarkUsed flips an unused code to used. ErrNotFound means another request
// consumed it first.
func (s *gormCodeStore) MarkUsed(ctx context.Context, id uint) error {
	result := s.db.
		WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeCodes hard deletes codes that were used or have expired.
func (s *gormCodeStore) PurgeCodes(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.
		WithContext(ctx).
		Unscoped().
		Where("used = ? OR expires_at <= ?", true, now).
		Delete(&models.VerificationCode{})
	return result.RowsAffected, result.Error
}
