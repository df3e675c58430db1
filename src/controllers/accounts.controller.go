package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"meetingroom/src/config"
	"meetingroom/src/lib"
	"meetingroom/src/lib/ics"
	"meetingroom/src/models"
	"net/http"
	"net/url"
	"time"

	awslib "meetingroom/src/lib/aws"
)

const icsContentType = "text/calendar; charset=utf-8"

func apiHostname() string {
	u, err := url.Parse(config.API_HOST)
	if err != nil || u.Hostname() == "" {
		return "meetingroom"
	}
	return u.Hostname()
}

// MeetingCalendarFile renders the meeting as an iCalendar document.
func MeetingCalendarFile(m *models.Meeting) (filename string, body string) {
	return ics.Filename(m.ID), ics.Render(m.ToCalendarMeeting(), apiHostname(), time.Now())
}

type exportUploader func(ctx context.Context, name, contentType string, body []byte) (*string, error)

var uploadExport exportUploader = awslib.S3UploadExport

// ShareMeetingCalendar uploads the meeting's ICS file and returns a
// presigned download link.
func ShareMeetingCalendar(ctx context.Context, m *models.Meeting) (link string, status int, err error) {
	name, body := MeetingCalendarFile(m)
	key := fmt.Sprintf("exports/meetings/%d/%d-%s", m.ID, time.Now().Unix(), name)
	u, err := uploadExport(ctx, key, icsContentType, []byte(body))
	if err != nil {
		log.Printf("[ShareMeetingCalendar] upload failed for meeting %d: %s\n", m.ID, err.Error())
		if errors.Is(err, lib.ErrAWSUnavailable) {
			return "", http.StatusServiceUnavailable, err
		}
		return "", http.StatusBadGateway, err
	}
	return *u, http.StatusOK, nil
}

// RoomQRCode renders a QR image that opens the room's booking page.
func RoomQRCode(room *models.Room) (path string, status int, err error) {
	target := fmt.Sprintf("%s/rooms/%s", config.APP_HOST, room.Slug)
	p, err := lib.SaveQRCode(fmt.Sprintf("room-%s", room.Slug), target)
	if err != nil {
		return "", http.StatusInternalServerError, err
	}
	return p, http.StatusOK, nil
}
