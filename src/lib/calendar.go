package lib

import (
	"context"
	"fmt"
	"meetingroom/src/config"
	"meetingroom/src/types"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func GoogleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  config.API_HOST + "/api/v1/oauth/google/callback",
		ClientID:     config.OAUTH_CLIENT_ID,
		ClientSecret: config.OAUTH_CLIENT_SECRET,
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
}

// GAPICreateCalendarService builds a calendar client that refreshes its
// access token from the stored refresh token.
func GAPICreateCalendarService(ctx context.Context, refreshToken string) (*calendar.Service, error) {
	conf := GoogleOAuthConfig()
	tok := &oauth2.Token{RefreshToken: refreshToken}
	return calendar.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, tok)))
}

func calendarID(id string) string {
	if id == "" {
		return "primary"
	}
	return id
}

func GAPIAddEvent(calId string, e *calendar.Event, s *calendar.Service) (*calendar.Event, error) {
	return s.Events.Insert(calendarID(calId), e).Do()
}

func GAPIUpdateEvent(calId string, e *calendar.Event, s *calendar.Service) (*calendar.Event, error) {
	return s.Events.Update(calendarID(calId), e.Id, e).Do()
}

func GAPIDeleteEvent(calId string, eventID string, s *calendar.Service) error {
	return s.Events.Delete(calendarID(calId), eventID).Do()
}

// CalendarEventFromMeeting maps a meeting onto a Google Calendar event.
// Cancelled meetings keep their event with status "cancelled".
func CalendarEventFromMeeting(m types.CalendarMeeting, eventID string) *calendar.Event {
	location := m.RoomName
	if m.RoomLocation != "" {
		location = fmt.Sprintf("%s (%s)", m.RoomName, m.RoomLocation)
	}
	status := "confirmed"
	if m.Status == types.MEETING_CANCELLED {
		status = "cancelled"
	}
	return &calendar.Event{
		Id:          eventID,
		Summary:     m.Title,
		Description: m.Description,
		Location:    location,
		Status:      status,
		Start:       &calendar.EventDateTime{DateTime: m.StartTime.UTC().Format(config.TIME_PARSE_FORMAT), TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: m.EndTime.UTC().Format(config.TIME_PARSE_FORMAT), TimeZone: "UTC"},
		ICalUID:     fmt.Sprintf("meeting-%d@%s", m.ID, "meetingroom"),
	}
}
