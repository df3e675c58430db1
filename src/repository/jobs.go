package repository

import (
	"context"
	"meetingroom/src/models"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStore interface {
	CreateJob(ctx context.Context, job *models.JobTask) error
	PendingJobs(ctx context.Context, from, to time.Time, limit int) ([]models.JobTask, error)
	FindJob(ctx context.Context, id uuid.UUID) (*models.JobTask, error)
	// PendingMeetingJob returns the newest pending job of a meeting.
	PendingMeetingJob(ctx context.Context, meetingID uint) (*models.JobTask, error)
	MarkJob(ctx context.Context, id uuid.UUID, status string) error
	ExpireJobs(ctx context.Context, now time.Time) (int64, error)
}

type gormJobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) JobStore {
	return &gormJobStore{db: db}
}

func (s *gormJobStore) CreateJob(ctx context.Context, job *models.JobTask) error {
	return s.db.WithContext(ctx).Create(job).Error
}

func (s *gormJobStore) PendingJobs(ctx context.Context, from, to time.Time, limit int) ([]models.JobTask, error) {
	var jobs []models.JobTask
	err := s.db.
		WithContext(ctx).
		Session(&gorm.Session{PrepareStmt: true}).
		Where("status = ?", models.JOB_PENDING).
		Where("runs_at BETWEEN ? AND ?", from, to).
		Order("runs_at asc").
		Limit(limit).
		Find(&jobs).
		Error
	return jobs, err
}

func (s *gormJobStore) FindJob(ctx context.Context, id uuid.UUID) (*models.JobTask, error) {
	var job models.JobTask
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (s *gormJobStore) PendingMeetingJob(ctx context.Context, meetingID uint) (*models.JobTask, error) {
	var job models.JobTask
	if err := s.db.
		WithContext(ctx).
		Where("meeting_id = ? AND status = ?", meetingID, models.JOB_PENDING).
		Order("created_at desc").
		First(&job).
		Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (s *gormJobStore) MarkJob(ctx context.Context, id uuid.UUID, status string) error {
	return s.db.
		WithContext(ctx).
		Model(&models.JobTask{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (s *gormJobStore) ExpireJobs(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.
		WithContext(ctx).
		Model(&models.JobTask{}).
		Where("status = ?", models.JOB_PENDING).
		Where("runs_at < ?", now).
		Update("status", models.JOB_EXPIRED)
	return result.RowsAffected, result.Error
}
