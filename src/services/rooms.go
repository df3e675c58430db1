package services

import (
	"context"
	"errors"
	"fmt"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"strings"

	"github.com/gosimple/slug"
)

type RoomInput struct {
	Name     string
	Location string
	Capacity uint
	Status   types.RoomStatus
}

type RoomService struct {
	rooms repository.RoomStore
}

func NewRoomService(rooms repository.RoomStore) *RoomService {
	return &RoomService{rooms: rooms}
}

func validateRoom(in *RoomInput) error {
	v := NewValidationError()
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		v.Add("name", "is required")
	}
	if in.Capacity < 1 {
		v.Add("capacity", "must be at least 1")
	}
	switch in.Status {
	case "":
		in.Status = types.ROOM_AVAILABLE
	case types.ROOM_AVAILABLE, types.ROOM_UNAVAILABLE, types.ROOM_MAINTENANCE:
	default:
		v.Add("status", "must be one of AVAILABLE UNAVAILABLE MAINTENANCE")
	}
	return v.OrNil()
}

// uniqueSlug derives a slug from the room name, suffixing a counter on clashes.
func (s *RoomService) uniqueSlug(ctx context.Context, name string, excludeID uint) (string, error) {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.rooms.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *RoomService) Create(ctx context.Context, in RoomInput) (*models.Room, error) {
	if err := validateRoom(&in); err != nil {
		return nil, err
	}
	sl, err := s.uniqueSlug(ctx, in.Name, 0)
	if err != nil {
		return nil, err
	}
	room := &models.Room{
		Name:     in.Name,
		Slug:     sl,
		Location: strings.TrimSpace(in.Location),
		Capacity: in.Capacity,
		Status:   in.Status,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) Update(ctx context.Context, id uint, in RoomInput) (*models.Room, error) {
	if err := validateRoom(&in); err != nil {
		return nil, err
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.Name != in.Name {
		sl, err := s.uniqueSlug(ctx, in.Name, room.ID)
		if err != nil {
			return nil, err
		}
		room.Slug = sl
	}
	room.Name = in.Name
	room.Location = strings.TrimSpace(in.Location)
	room.Capacity = in.Capacity
	room.Status = in.Status
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) Delete(ctx context.Context, id uint) error {
	err := s.rooms.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("room", id)
	}
	return err
}

func (s *RoomService) Get(ctx context.Context, id uint) (*models.Room, error) {
	room, err := s.rooms.Find(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("room", id)
	}
	return room, err
}

func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	return s.rooms.List(ctx)
}
