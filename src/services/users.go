package services

import (
	"context"
	"errors"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"strings"
)

type UserService struct {
	users repository.UserStore
}

func NewUserService(users repository.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("user", id)
	}
	return user, err
}

func (s *UserService) List(ctx context.Context, actor Actor) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.users.List(ctx)
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, fullName *string, calendarSync *bool) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fullName != nil {
		name := strings.TrimSpace(*fullName)
		if name == "" {
			return nil, invalid("full_name", "must not be empty")
		}
		user.FullName = name
	}
	if calendarSync != nil {
		if *calendarSync && user.GoogleRefreshToken == "" {
			return nil, invalid("calendar_sync", "connect a Google calendar first")
		}
		user.CalendarSync = *calendarSync
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ConnectCalendar stores the Google credentials obtained from the OAuth flow
// and turns syncing on.
func (s *UserService) ConnectCalendar(ctx context.Context, id uint, refreshToken, calendarID string) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if refreshToken != "" {
		user.GoogleRefreshToken = refreshToken
	}
	if calendarID != "" {
		user.GoogleCalendarID = calendarID
	}
	user.CalendarSync = user.GoogleRefreshToken != ""
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DisconnectCalendar(ctx context.Context, id uint) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	user.CalendarSync = false
	user.GoogleRefreshToken = ""
	user.GoogleCalendarID = ""
	return s.users.Save(ctx, user)
}
