package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"strings"
	"time"
)

// MeetingObserver is told about committed meeting changes. Implementations
// must not block the caller.
type MeetingObserver interface {
	MeetingChanged(ctx context.Context, event types.MeetingEventType, meeting models.Meeting)
}

type MeetingInput struct {
	RoomID      uint
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

type MeetingService struct {
	store    repository.MeetingStore
	observer MeetingObserver
	now      func() time.Time
}

func NewMeetingService(store repository.MeetingStore, observer MeetingObserver) *MeetingService {
	return &MeetingService{
		store:    store,
		observer: observer,
		now:      time.Now,
	}
}

func (s *MeetingService) WithClock(now func() time.Time) *MeetingService {
	s.now = now
	return s
}

func (s *MeetingService) validate(in MeetingInput) *ValidationError {
	v := NewValidationError()
	if strings.TrimSpace(in.Title) == "" {
		v.Add("title", "is required")
	}
	if in.RoomID == 0 {
		v.Add("room_id", "is required")
	}
	if in.StartTime.IsZero() {
		v.Add("start_time", "is required")
	}
	if in.EndTime.IsZero() {
		v.Add("end_time", "is required")
	}
	if !in.StartTime.IsZero() && !in.EndTime.IsZero() && !in.StartTime.Before(in.EndTime) {
		v.Add("end_time", "must be after start_time")
	}
	return v
}

func lockBookableRoom(ctx context.Context, tx repository.MeetingStore, roomID uint) (*models.Room, error) {
	room, err := tx.LockRoom(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("room", roomID)
	}
	if err != nil {
		return nil, err
	}
	if !room.IsBookable() {
		return nil, invalid("room_id", fmt.Sprintf("room is %s", strings.ToLower(string(room.Status))))
	}
	return room, nil
}

// Create books a room. The room row stays locked until the meeting is written
// so two requests for the same slot cannot both pass the conflict check.
func (s *MeetingService) Create(ctx context.Context, ownerID uint, in MeetingInput) (*models.Meeting, error) {
	v := s.validate(in)
	if !in.StartTime.IsZero() && in.StartTime.Before(s.now()) {
		v.Add("start_time", "must not be in the past")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	var meeting *models.Meeting
	err := s.store.Transaction(ctx, func(tx repository.MeetingStore) error {
		room, err := lockBookableRoom(ctx, tx, in.RoomID)
		if err != nil {
			return err
		}
		conflict, err := NewConflictChecker(tx).HasConflict(ctx, room.ID, in.StartTime, in.EndTime, nil)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSchedulingConflict
		}
		m := &models.Meeting{
			OwnerID:     ownerID,
			RoomID:      room.ID,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			Status:      types.MEETING_CONFIRMED,
		}
		if err := tx.CreateMeeting(ctx, m); err != nil {
			return err
		}
		meeting = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, types.MEETING_EVENT_CONFIRMED, meeting)
	return meeting, nil
}

func (s *MeetingService) Update(ctx context.Context, actor Actor, id uint, in MeetingInput) (*models.Meeting, error) {
	v := s.validate(in)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	var meeting *models.Meeting
	err := s.store.Transaction(ctx, func(tx repository.MeetingStore) error {
		m, err := tx.LockMeeting(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("meeting", id)
		}
		if err != nil {
			return err
		}
		if !m.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
			return ErrForbidden
		}
		if m.IsCancelled() {
			return invalid("status", "cancelled meetings cannot be modified")
		}
		if !in.StartTime.Equal(m.StartTime) && in.StartTime.Before(s.now()) {
			return invalid("start_time", "must not be in the past")
		}
		// A room under maintenance keeps its existing bookings editable as
		// long as they stay in the same slot.
		if in.RoomID != m.RoomID || !in.StartTime.Equal(m.StartTime) || !in.EndTime.Equal(m.EndTime) {
			room, err := lockBookableRoom(ctx, tx, in.RoomID)
			if err != nil {
				return err
			}
			exclude := m.ID
			conflict, err := NewConflictChecker(tx).HasConflict(ctx, room.ID, in.StartTime, in.EndTime, &exclude)
			if err != nil {
				return err
			}
			if conflict {
				return ErrSchedulingConflict
			}
		}
		m.RoomID = in.RoomID
		m.Title = strings.TrimSpace(in.Title)
		m.Description = in.Description
		m.StartTime = in.StartTime
		m.EndTime = in.EndTime
		if err := tx.SaveMeeting(ctx, m); err != nil {
			return err
		}
		meeting = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, types.MEETING_EVENT_UPDATED, meeting)
	return meeting, nil
}

// Cancel marks the meeting CANCELLED and releases its borrowed devices in the
// same transaction. It returns the number of loans released. Cancelling an
// already cancelled meeting returns it unchanged.
func (s *MeetingService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Meeting, int64, error) {
	var meeting *models.Meeting
	var released int64
	changed := false
	err := s.store.Transaction(ctx, func(tx repository.MeetingStore) error {
		m, err := tx.LockMeeting(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("meeting", id)
		}
		if err != nil {
			return err
		}
		if !m.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
			return ErrForbidden
		}
		meeting = m
		if m.IsCancelled() {
			return nil
		}
		now := s.now()
		m.Status = types.MEETING_CANCELLED
		m.CancelledAt = &now
		if err := tx.SaveMeeting(ctx, m); err != nil {
			return err
		}
		n, err := tx.ReleaseDevices(ctx, m.ID, now)
		if err != nil {
			return fmt.Errorf("release devices of meeting %d: %w", m.ID, err)
		}
		released = n
		changed = true
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if changed {
		s.notify(ctx, types.MEETING_EVENT_CANCELLED, meeting)
	}
	return meeting, released, nil
}

// Delete physically removes a meeting. Only administrators may do this.
func (s *MeetingService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	err := s.store.DeleteMeeting(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("meeting", id)
	}
	return err
}

func (s *MeetingService) Get(ctx context.Context, id uint) (*models.Meeting, error) {
	m, err := s.store.FindMeetingDetails(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("meeting", id)
	}
	return m, err
}

func (s *MeetingService) Upcoming(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	return s.store.FindUpcoming(ctx, now)
}

func (s *MeetingService) Ongoing(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	return s.store.FindOngoing(ctx, now)
}

func (s *MeetingService) EndedBefore(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	return s.store.FindEndedBefore(ctx, now)
}

func (s *MeetingService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Meeting, error) {
	return s.store.FindByOwner(ctx, ownerID)
}

func (s *MeetingService) ListByRoom(ctx context.Context, roomID uint, from, to time.Time) ([]models.Meeting, error) {
	if !from.Before(to) {
		return nil, invalid("to", "must be after from")
	}
	if _, err := s.store.FindRoom(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("room", roomID)
		}
		return nil, err
	}
	return s.store.FindByRoomAndTimeRange(ctx, roomID, from, to)
}

// IsAvailable reports whether the room could take a booking for [start, end).
func (s *MeetingService) IsAvailable(ctx context.Context, roomID uint, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, invalid("end", "must be after start")
	}
	room, err := s.store.FindRoom(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, notFound("room", roomID)
	}
	if err != nil {
		return false, err
	}
	if !room.IsBookable() {
		return false, nil
	}
	conflict, err := NewConflictChecker(s.store).HasConflict(ctx, roomID, start, end, nil)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

func (s *MeetingService) notify(ctx context.Context, event types.MeetingEventType, m *models.Meeting) {
	if s.observer == nil || m == nil {
		return
	}
	log.Printf("[%s] meeting=%d room=%d\n", event, m.ID, m.RoomID)
	s.observer.MeetingChanged(context.WithoutCancel(ctx), event, *m)
}
