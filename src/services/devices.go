package services

import (
	"context"
	"errors"
	"fmt"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"strings"
	"time"
)

type DeviceInput struct {
	Name          string
	Description   string
	TotalQuantity uint
}

type DeviceService struct {
	store repository.DeviceStore
	now   func() time.Time
}

func NewDeviceService(store repository.DeviceStore) *DeviceService {
	return &DeviceService{store: store, now: time.Now}
}

func (s *DeviceService) WithClock(now func() time.Time) *DeviceService {
	s.now = now
	return s
}

func validateDevice(in DeviceInput) error {
	v := NewValidationError()
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	if in.TotalQuantity < 1 {
		v.Add("total_quantity", "must be at least 1")
	}
	return v.OrNil()
}

func (s *DeviceService) CreateDevice(ctx context.Context, in DeviceInput) (*models.Device, error) {
	if err := validateDevice(in); err != nil {
		return nil, err
	}
	d := &models.Device{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		TotalQuantity: in.TotalQuantity,
		Status:        types.DEVICE_ACTIVE,
	}
	if err := s.store.CreateDevice(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDevice refuses to shrink the inventory below what is currently lent out.
func (s *DeviceService) UpdateDevice(ctx context.Context, id uint, in DeviceInput) (*models.Device, error) {
	if err := validateDevice(in); err != nil {
		return nil, err
	}
	var device *models.Device
	err := s.store.Transaction(ctx, func(tx repository.DeviceStore) error {
		d, err := tx.LockDevice(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("device", id)
		}
		if err != nil {
			return err
		}
		borrowed, err := tx.SumBorrowed(ctx, id)
		if err != nil {
			return err
		}
		if in.TotalQuantity < borrowed {
			return invalid("total_quantity", fmt.Sprintf("%d units are currently borrowed", borrowed))
		}
		d.Name = strings.TrimSpace(in.Name)
		d.Description = in.Description
		d.TotalQuantity = in.TotalQuantity
		if err := tx.SaveDevice(ctx, d); err != nil {
			return err
		}
		device = d
		return nil
	})
	return device, err
}

func (s *DeviceService) DeleteDevice(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(tx repository.DeviceStore) error {
		borrowed, err := tx.SumBorrowed(ctx, id)
		if err != nil {
			return err
		}
		if borrowed > 0 {
			return invalid("device", "device has units on loan")
		}
		err = tx.DeleteDevice(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("device", id)
		}
		return err
	})
}

func (s *DeviceService) ListDevices(ctx context.Context) ([]models.Device, error) {
	return s.store.ListDevices(ctx)
}

// Available returns how many units of the device are not lent out.
func (s *DeviceService) Available(ctx context.Context, deviceID uint) (uint, error) {
	d, err := s.store.FindDevice(ctx, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, notFound("device", deviceID)
	}
	if err != nil {
		return 0, err
	}
	borrowed, err := s.store.SumBorrowed(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	if borrowed >= d.TotalQuantity {
		return 0, nil
	}
	return d.TotalQuantity - borrowed, nil
}

// Borrow lends quantity units of a device to a meeting. The meeting and
// device rows are locked while the outstanding total is checked and the loan
// is written, so a concurrent cancel cannot leave a loan behind.
func (s *DeviceService) Borrow(ctx context.Context, meetingID, deviceID, quantity, requesterID uint) (*models.MeetingDevice, error) {
	if quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}
	var loan *models.MeetingDevice
	err := s.store.Transaction(ctx, func(tx repository.DeviceStore) error {
		meeting, err := tx.LockMeeting(ctx, meetingID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("meeting", meetingID)
		}
		if err != nil {
			return err
		}
		if meeting.IsCancelled() {
			return invalid("meeting_id", "meeting is cancelled")
		}
		device, err := tx.LockDevice(ctx, deviceID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("device", deviceID)
		}
		if err != nil {
			return err
		}
		if device.Status == types.DEVICE_RETIRED {
			return invalid("device_id", "device is retired")
		}
		borrowed, err := tx.SumBorrowed(ctx, deviceID)
		if err != nil {
			return err
		}
		if quantity > device.TotalQuantity || borrowed > device.TotalQuantity-quantity {
			return fmt.Errorf("%w: %d of %d units of %q available", ErrInsufficientInventory, device.TotalQuantity-min(borrowed, device.TotalQuantity), device.TotalQuantity, device.Name)
		}
		md := &models.MeetingDevice{
			MeetingID:        meetingID,
			DeviceID:         deviceID,
			QuantityBorrowed: quantity,
			Status:           types.BORROW_BORROWED,
			RequestedBy:      requesterID,
			BorrowedAt:       s.now(),
		}
		if err := tx.CreateBorrow(ctx, md); err != nil {
			return err
		}
		loan = md
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Return marks every outstanding loan of the device for the meeting RETURNED.
func (s *DeviceService) Return(ctx context.Context, meetingID, deviceID uint) ([]models.MeetingDevice, error) {
	var returned []models.MeetingDevice
	err := s.store.Transaction(ctx, func(tx repository.DeviceStore) error {
		rows, err := tx.FindBorrowed(ctx, meetingID, deviceID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound("borrowed device", fmt.Sprintf("%d/%d", meetingID, deviceID))
		}
		now := s.now()
		ids := make([]uint, 0, len(rows))
		for i := range rows {
			ids = append(ids, rows[i].ID)
			rows[i].Status = types.BORROW_RETURNED
			rows[i].ReturnedAt = &now
		}
		if err := tx.UpdateBorrowStatus(ctx, ids, types.BORROW_RETURNED, &now); err != nil {
			return err
		}
		returned = rows
		return nil
	})
	return returned, err
}

func (s *DeviceService) ListByMeeting(ctx context.Context, meetingID uint) ([]models.MeetingDevice, error) {
	return s.store.ListByMeeting(ctx, meetingID)
}

func (s *DeviceService) ListByRequester(ctx context.Context, userID uint) ([]models.MeetingDevice, error) {
	return s.store.ListByRequester(ctx, userID)
}

func (s *DeviceService) ListByStatus(ctx context.Context, status types.BorrowStatus) ([]models.MeetingDevice, error) {
	switch status {
	case types.BORROW_BORROWED, types.BORROW_RETURNED, types.BORROW_CANCELLED:
	default:
		return nil, invalid("status", "must be one of BORROWED RETURNED CANCELLED")
	}
	return s.store.ListByStatus(ctx, status)
}
