package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"meetingroom/src/config"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/services"
	"meetingroom/src/types"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type reminderMeetings interface {
	FindMeetingDetails(ctx context.Context, id uint) (*models.Meeting, error)
}

type jobMarker interface {
	FindJob(ctx context.Context, id uuid.UUID) (*models.JobTask, error)
	MarkJob(ctx context.Context, id uuid.UUID, status string) error
}

// ReminderHandler mails the organizer shortly before a meeting starts. The
// meeting is read again so cancelled or moved meetings are skipped.
type ReminderHandler struct {
	Meetings reminderMeetings
	Jobs     jobMarker
	Mailer   services.Mailer
}

var errSkipped = errors.New("reminder skipped")

func (h *ReminderHandler) Handle(ctx context.Context, payload string) error {
	if !gjson.Valid(payload) {
		return fmt.Errorf("invalid reminder payload")
	}
	meetingID := uint(gjson.Get(payload, "meeting_id").Uint())
	start, err := time.Parse(config.TIME_PARSE_FORMAT, gjson.Get(payload, "start_time").String())
	if err != nil {
		return fmt.Errorf("invalid reminder start_time: %w", err)
	}
	jobID := gjson.Get(payload, "job_id").String()
	if !h.stillPending(ctx, jobID) {
		log.Printf("[Reminder] job %s was superseded, skipping\n", jobID)
		return errSkipped
	}
	defer h.markDone(ctx, jobID)

	m, err := h.Meetings.FindMeetingDetails(ctx, meetingID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("[Reminder] meeting %d no longer exists\n", meetingID)
		return errSkipped
	}
	if err != nil {
		return err
	}
	if m.IsCancelled() || !m.StartTime.Equal(start) {
		log.Printf("[Reminder] meeting %d was cancelled or moved, skipping\n", meetingID)
		return errSkipped
	}
	if m.Owner == nil || m.Owner.Email == "" {
		return errSkipped
	}
	room := ""
	if m.Room != nil {
		room = m.Room.Name
	}
	subject := fmt.Sprintf("Reminder: %s", m.Title)
	body := fmt.Sprintf("Your meeting \"%s\" in %s starts at %s.\n", m.Title, room, m.StartTime.UTC().Format(time.RFC1123))
	return h.Mailer.Send(ctx, m.Owner.Email, subject, body)
}

// stillPending reports whether the job behind a payload may fire. Payloads
// without a recorded job are allowed through.
func (h *ReminderHandler) stillPending(ctx context.Context, jobID string) bool {
	if h.Jobs == nil || jobID == "" {
		return true
	}
	id, err := uuid.Parse(jobID)
	if err != nil {
		return true
	}
	job, err := h.Jobs.FindJob(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return true
	}
	if err != nil {
		log.Printf("[Reminder] error loading job %s: %s\n", jobID, err.Error())
		return true
	}
	return job.Status == models.JOB_PENDING
}

func (h *ReminderHandler) markDone(ctx context.Context, jobID string) {
	if h.Jobs == nil || jobID == "" {
		return
	}
	id, err := uuid.Parse(jobID)
	if err != nil {
		return
	}
	if err := h.Jobs.MarkJob(ctx, id, models.JOB_DONE); err != nil {
		log.Printf("[Reminder] error marking job %s: %s\n", jobID, err.Error())
	}
}

// NewTaskHandler routes scheduled payloads by their "type" field.
func NewTaskHandler(reminders *ReminderHandler) types.Handler {
	return func(payload string) {
		switch t := gjson.Get(payload, "type").String(); t {
		case ReminderTaskType:
			err := reminders.Handle(context.Background(), payload)
			if err != nil && !errors.Is(err, errSkipped) {
				log.Printf("[Task] reminder failed: %s\n", err.Error())
			}
		default:
			log.Printf("[Task] unknown task type %q\n", t)
		}
	}
}
