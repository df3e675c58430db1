package repository

import (
	"context"
	"meetingroom/src/models"
	"meetingroom/src/models/scopes"
	"meetingroom/src/types"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MeetingStore persists meetings together with the room rows they lock.
type MeetingStore interface {
	FindRoom(ctx context.Context, id uint) (*models.Room, error)
	LockRoom(ctx context.Context, id uint) (*models.Room, error)
	FindMeeting(ctx context.Context, id uint) (*models.Meeting, error)
	LockMeeting(ctx context.Context, id uint) (*models.Meeting, error)
	FindMeetingDetails(ctx context.Context, id uint) (*models.Meeting, error)
	ExistsConflictingMeeting(ctx context.Context, roomID uint, start, end time.Time) (bool, error)
	ExistsConflictingMeetingExcluding(ctx context.Context, roomID uint, start, end time.Time, excludeID uint) (bool, error)
	FindByRoomAndTimeRange(ctx context.Context, roomID uint, from, to time.Time) ([]models.Meeting, error)
	FindUpcoming(ctx context.Context, now time.Time) ([]models.Meeting, error)
	FindOngoing(ctx context.Context, now time.Time) ([]models.Meeting, error)
	FindEndedBefore(ctx context.Context, now time.Time) ([]models.Meeting, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]models.Meeting, error)
	CreateMeeting(ctx context.Context, m *models.Meeting) error
	SaveMeeting(ctx context.Context, m *models.Meeting) error
	DeleteMeeting(ctx context.Context, id uint) error
	// ReleaseDevices cancels the BORROWED device rows of a meeting.
	ReleaseDevices(ctx context.Context, meetingID uint, at time.Time) (int64, error)
	SetGoogleEventID(ctx context.Context, id uint, eventID string) error
	Transaction(ctx context.Context, fn func(MeetingStore) error) error
}

type gormMeetingStore struct {
	db *gorm.DB
}

func NewMeetingStore(db *gorm.DB) MeetingStore {
	return &gormMeetingStore{db: db}
}

func (s *gormMeetingStore) FindRoom(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *gormMeetingStore) LockRoom(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(scopes.WithID(id)).
		First(&room).
		Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *gormMeetingStore) FindMeeting(ctx context.Context, id uint) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&meeting).Error; err != nil {
		return nil, translate(err)
	}
	return &meeting, nil
}

func (s *gormMeetingStore) LockMeeting(ctx context.Context, id uint) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(scopes.WithID(id)).
		First(&meeting).
		Error; err != nil {
		return nil, translate(err)
	}
	return &meeting, nil
}

func (s *gormMeetingStore) FindMeetingDetails(ctx context.Context, id uint) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.db.
		WithContext(ctx).
		Preload("Room").
		Preload("Owner").
		Scopes(scopes.WithID(id)).
		First(&meeting).
		Error; err != nil {
		return nil, translate(err)
	}
	return &meeting, nil
}

func (s *gormMeetingStore) conflicts(ctx context.Context, roomID uint, start, end time.Time) *gorm.DB {
	return s.db.
		WithContext(ctx).
		Model(&models.Meeting{}).
		Scopes(scopes.WithRoom(roomID), scopes.NotCancelled, scopes.OverlappingWindow(start, end))
}

func (s *gormMeetingStore) ExistsConflictingMeeting(ctx context.Context, roomID uint, start, end time.Time) (bool, error) {
	var count int64
	if err := s.conflicts(ctx, roomID, start, end).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormMeetingStore) ExistsConflictingMeetingExcluding(ctx context.Context, roomID uint, start, end time.Time, excludeID uint) (bool, error) {
	var count int64
	if err := s.conflicts(ctx, roomID, start, end).Scopes(scopes.WithoutID(excludeID)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormMeetingStore) FindByRoomAndTimeRange(ctx context.Context, roomID uint, from, to time.Time) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.
		WithContext(ctx).
		Scopes(scopes.WithRoom(roomID), scopes.OverlappingWindow(from, to)).
		Order("start_time asc").
		Find(&meetings).
		Error
	return meetings, err
}

func (s *gormMeetingStore) FindUpcoming(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.
		WithContext(ctx).
		Scopes(scopes.NotCancelled).
		Where("start_time > ?", now).
		Order("start_time asc").
		Find(&meetings).
		Error
	return meetings, err
}

func (s *gormMeetingStore) FindOngoing(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.
		WithContext(ctx).
		Scopes(scopes.NotCancelled).
		Where("start_time <= ? AND end_time >= ?", now, now).
		Order("start_time asc").
		Find(&meetings).
		Error
	return meetings, err
}

func (s *gormMeetingStore) FindEndedBefore(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.
		WithContext(ctx).
		Scopes(scopes.NotCancelled).
		Where("end_time < ?", now).
		Order("end_time desc").
		Find(&meetings).
		Error
	return meetings, err
}

func (s *gormMeetingStore) FindByOwner(ctx context.Context, ownerID uint) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := s.db.
		WithContext(ctx).
		Where(&models.Meeting{OwnerID: ownerID}).
		Order("start_time desc").
		Find(&meetings).
		Error
	return meetings, err
}

func (s *gormMeetingStore) CreateMeeting(ctx context.Context, m *models.Meeting) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *gormMeetingStore) SaveMeeting(ctx context.Context, m *models.Meeting) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(m).Error
}

func (s *gormMeetingStore) DeleteMeeting(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Delete(&models.Meeting{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormMeetingStore) ReleaseDevices(ctx context.Context, meetingID uint, at time.Time) (int64, error) {
	result := s.db.
		WithContext(ctx).
		Model(&models.MeetingDevice{}).
		Where("meeting_id = ? AND status = ?", meetingID, types.BORROW_BORROWED).
		Updates(map[string]any{"status": types.BORROW_CANCELLED, "returned_at": at})
	return result.RowsAffected, result.Error
}

func (s *gormMeetingStore) SetGoogleEventID(ctx context.Context, id uint, eventID string) error {
	return s.db.
		WithContext(ctx).
		Model(&models.Meeting{}).
		Where("id = ?", id).
		Update("google_event_id", eventID).
		Error
}

func (s *gormMeetingStore) Transaction(ctx context.Context, fn func(MeetingStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormMeetingStore{db: tx})
	})
}
