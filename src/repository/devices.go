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

// DeviceStore covers the device inventory and per-meeting borrow records.
type DeviceStore interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	FindDevice(ctx context.Context, id uint) (*models.Device, error)
	LockDevice(ctx context.Context, id uint) (*models.Device, error)
	CreateDevice(ctx context.Context, d *models.Device) error
	SaveDevice(ctx context.Context, d *models.Device) error
	DeleteDevice(ctx context.Context, id uint) error
	LockMeeting(ctx context.Context, id uint) (*models.Meeting, error)
	SumBorrowed(ctx context.Context, deviceID uint) (uint, error)
	CreateBorrow(ctx context.Context, md *models.MeetingDevice) error
	// FindBorrowed returns BORROWED rows of a meeting; deviceID 0 matches every device.
	FindBorrowed(ctx context.Context, meetingID, deviceID uint) ([]models.MeetingDevice, error)
	UpdateBorrowStatus(ctx context.Context, ids []uint, status types.BorrowStatus, at *time.Time) error
	ListByMeeting(ctx context.Context, meetingID uint) ([]models.MeetingDevice, error)
	ListByRequester(ctx context.Context, userID uint) ([]models.MeetingDevice, error)
	ListByStatus(ctx context.Context, status types.BorrowStatus) ([]models.MeetingDevice, error)
	Transaction(ctx context.Context, fn func(DeviceStore) error) error
}

type gormDeviceStore struct {
	db *gorm.DB
}

func NewDeviceStore(db *gorm.DB) DeviceStore {
	return &gormDeviceStore{db: db}
}

func (s *gormDeviceStore) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := s.db.WithContext(ctx).Order("name asc").Find(&devices).Error
	return devices, err
}

func (s *gormDeviceStore) FindDevice(ctx context.Context, id uint) (*models.Device, error) {
	var device models.Device
	if err := s.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&device).Error; err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (s *gormDeviceStore) LockDevice(ctx context.Context, id uint) (*models.Device, error) {
	var device models.Device
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(scopes.WithID(id)).
		First(&device).
		Error; err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (s *gormDeviceStore) CreateDevice(ctx context.Context, d *models.Device) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *gormDeviceStore) SaveDevice(ctx context.Context, d *models.Device) error {
	return s.db.WithContext(ctx).Save(d).Error
}

func (s *gormDeviceStore) DeleteDevice(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Device{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormDeviceStore) LockMeeting(ctx context.Context, id uint) (*models.Meeting, error) {
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

func (s *gormDeviceStore) SumBorrowed(ctx context.Context, deviceID uint) (uint, error) {
	var stats models.DeviceStats
	err := s.db.
		WithContext(ctx).
		Model(&models.MeetingDevice{}).
		Where("device_id = ? AND status = ?", deviceID, types.BORROW_BORROWED).
		Select("COALESCE(SUM(quantity_borrowed), 0) as borrowed").
		Scan(&stats).
		Error
	if err != nil {
		return 0, err
	}
	return stats.Borrowed, nil
}

func (s *gormDeviceStore) CreateBorrow(ctx context.Context, md *models.MeetingDevice) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(md).Error
}

func (s *gormDeviceStore) FindBorrowed(ctx context.Context, meetingID, deviceID uint) ([]models.MeetingDevice, error) {
	var rows []models.MeetingDevice
	q := s.db.
		WithContext(ctx).
		Where("meeting_id = ? AND status = ?", meetingID, types.BORROW_BORROWED)
	if deviceID > 0 {
		q = q.Where("device_id = ?", deviceID)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (s *gormDeviceStore) UpdateBorrowStatus(ctx context.Context, ids []uint, status types.BorrowStatus, at *time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.
		WithContext(ctx).
		Model(&models.MeetingDevice{}).
		Scopes(scopes.WithIDs(ids...)).
		Updates(map[string]any{"status": status, "returned_at": at}).
		Error
}

func (s *gormDeviceStore) ListByMeeting(ctx context.Context, meetingID uint) ([]models.MeetingDevice, error) {
	var rows []models.MeetingDevice
	err := s.db.
		WithContext(ctx).
		Preload("Device").
		Where(&models.MeetingDevice{MeetingID: meetingID}).
		Order("borrowed_at asc").
		Find(&rows).
		Error
	return rows, err
}

func (s *gormDeviceStore) ListByRequester(ctx context.Context, userID uint) ([]models.MeetingDevice, error) {
	var rows []models.MeetingDevice
	err := s.db.
		WithContext(ctx).
		Preload("Device").
		Where(&models.MeetingDevice{RequestedBy: userID}).
		Order("borrowed_at desc").
		Find(&rows).
		Error
	return rows, err
}

func (s *gormDeviceStore) ListByStatus(ctx context.Context, status types.BorrowStatus) ([]models.MeetingDevice, error) {
	var rows []models.MeetingDevice
	err := s.db.
		WithContext(ctx).
		Preload("Device").
		Where("status = ?", status).
		Order("borrowed_at desc").
		Find(&rows).
		Error
	return rows, err
}

func (s *gormDeviceStore) Transaction(ctx context.Context, fn func(DeviceStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormDeviceStore{db: tx})
	})
}
