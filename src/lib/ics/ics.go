package ics

import (
	"fmt"
	"meetingroom/src/types"
	"time"

	ical "github.com/arran4/golang-ical"
)

const ProductID = "-//meetingroom//Room Booking//EN"

func UID(meetingID uint, host string) string {
	return fmt.Sprintf("meeting-%d@%s", meetingID, host)
}

// Render produces a single-event VCALENDAR for the meeting. Cancelled meetings
// carry STATUS:CANCELLED, everything else STATUS:CONFIRMED.
func Render(m types.CalendarMeeting, host string, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)

	event := cal.AddEvent(UID(m.ID, host))
	event.SetDtStampTime(stamp)
	event.SetStartAt(m.StartTime)
	event.SetEndAt(m.EndTime)
	event.SetSummary(m.Title)
	if m.Description != "" {
		event.SetDescription(m.Description)
	}
	location := m.RoomName
	if m.RoomLocation != "" {
		location = fmt.Sprintf("%s (%s)", m.RoomName, m.RoomLocation)
	}
	if location != "" {
		event.SetLocation(location)
	}
	if m.OrganizerEmail != "" {
		event.SetOrganizer("mailto:"+m.OrganizerEmail, ical.WithCN(m.OrganizerName))
	}
	if m.Status == types.MEETING_CANCELLED {
		event.SetStatus(ical.ObjectStatusCancelled)
	} else {
		event.SetStatus(ical.ObjectStatusConfirmed)
	}
	return cal.Serialize()
}

func Filename(meetingID uint) string {
	return fmt.Sprintf("meeting-%d.ics", meetingID)
}
