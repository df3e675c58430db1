package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"meetingroom/src/config"
	"meetingroom/src/lib"
	awslib "meetingroom/src/lib/aws"
	"meetingroom/src/metrics"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"meetingroom/src/utils"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	MeetingEventsTopic = "meeting-events"
	ReminderTaskType   = "meeting.reminder"
	TrailGroupMeeting  = "meeting"
)

type meetingDetails interface {
	FindMeetingDetails(ctx context.Context, id uint) (*models.Meeting, error)
	SetGoogleEventID(ctx context.Context, id uint, eventID string) error
}

type trailAppender interface {
	AppendTrail(ctx context.Context, entry *models.TrailLog) error
}

type initiatorKey struct{}

// WithInitiator records the user performing a change so it lands in the trail.
func WithInitiator(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, initiatorKey{}, userID)
}

func initiatorFrom(ctx context.Context, fallback uint) uint {
	if id, ok := ctx.Value(initiatorKey{}).(uint); ok && id > 0 {
		return id
	}
	return fallback
}

type jobRecorder interface {
	CreateJob(ctx context.Context, job *models.JobTask) error
	PendingMeetingJob(ctx context.Context, meetingID uint) (*models.JobTask, error)
	MarkJob(ctx context.Context, id uuid.UUID, status string) error
}

// CalendarSyncer mirrors meetings into an organizer's external calendar.
type CalendarSyncer interface {
	Upsert(ctx context.Context, owner *models.User, m types.CalendarMeeting, eventID string) (string, error)
	Remove(ctx context.Context, owner *models.User, eventID string) error
}

type (
	EventPublisher func(ctx context.Context, event types.MeetingEvent) error
	RealtimeSender func(roomID uint, event string, data any) error
	JobScheduler   func(ctx context.Context, name string, at time.Time, payload string) (*uuid.UUID, error)
)

// Notifier fans committed meeting changes out to the event stream, room
// channels, calendar sync and reminder scheduling. Each sink is best effort.
type Notifier struct {
	Meetings meetingDetails
	Jobs     jobRecorder
	Trail    trailAppender
	Publish  EventPublisher
	Realtime RealtimeSender
	Schedule JobScheduler
	Calendar CalendarSyncer
	Lead     time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewNotifier(meetings meetingDetails, jobs jobRecorder) *Notifier {
	return &Notifier{
		Meetings: meetings,
		Jobs:     jobs,
		Publish:  PublishMeetingEvent,
		Realtime: lib.PusherTrigger,
		Schedule: lib.NewScheduledJob,
		Calendar: GoogleCalendar{},
		Lead:     time.Duration(config.REMINDER_LEAD) * time.Minute,
		now:      time.Now,
	}
}

func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	n.now = now
	return n
}

func (n *Notifier) MeetingChanged(ctx context.Context, event types.MeetingEventType, meeting models.Meeting) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.dispatch(ctx, event, meeting)
	}()
}

// Wait blocks until every dispatched change has been handled.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func NewMeetingEvent(event types.MeetingEventType, m models.Meeting, at time.Time) types.MeetingEvent {
	return types.MeetingEvent{
		Type:       event,
		MeetingID:  m.ID,
		RoomID:     m.RoomID,
		OwnerID:    m.OwnerID,
		Title:      m.Title,
		StartTime:  m.StartTime.UTC().Format(config.TIME_PARSE_FORMAT),
		EndTime:    m.EndTime.UTC().Format(config.TIME_PARSE_FORMAT),
		Status:     m.Status,
		OccurredAt: at.UTC().Format(config.TIME_PARSE_FORMAT),
	}
}

func (n *Notifier) dispatch(ctx context.Context, event types.MeetingEventType, m models.Meeting) {
	evt := NewMeetingEvent(event, m, n.now())
	metrics.MeetingEventsTotal.WithLabelValues(string(event)).Inc()
	if n.Trail != nil {
		entry := &models.TrailLog{
			Type:      string(event),
			Initiator: initiatorFrom(ctx, m.OwnerID),
			Group:     TrailGroupMeeting,
			Reference: m.ID,
			Payload: types.JSONB{
				"room_id":    evt.RoomID,
				"start_time": evt.StartTime,
				"end_time":   evt.EndTime,
				"status":     evt.Status,
			},
		}
		if err := n.Trail.AppendTrail(ctx, entry); err != nil {
			log.Printf("[Notifier] error writing trail for meeting %d: %s\n", m.ID, err.Error())
		}
	}
	if n.Publish != nil {
		if err := n.Publish(ctx, evt); err != nil {
			log.Printf("[Notifier] error publishing %s for meeting %d: %s\n", event, m.ID, err.Error())
		}
	}
	if n.Realtime != nil {
		if err := n.Realtime(m.RoomID, string(event), evt); err != nil {
			log.Printf("[Notifier] error pushing %s to room %d: %s\n", event, m.RoomID, err.Error())
		}
	}
	if event == types.MEETING_EVENT_CANCELLED {
		if _, err := n.supersedeReminder(ctx, m.ID, time.Time{}); err != nil {
			log.Printf("[Notifier] error dropping reminder for meeting %d: %s\n", m.ID, err.Error())
		}
	} else if err := n.scheduleReminder(ctx, m); err != nil {
		log.Printf("[Notifier] error scheduling reminder for meeting %d: %s\n", m.ID, err.Error())
	}
	if err := n.syncCalendar(ctx, m); err != nil {
		log.Printf("[Notifier] calendar sync failed for meeting %d: %s\n", m.ID, err.Error())
	}
}

type ReminderPayload struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	MeetingID uint   `json:"meeting_id"`
	StartTime string `json:"start_time"`
}

func (n *Notifier) scheduleReminder(ctx context.Context, m models.Meeting) error {
	if n.Schedule == nil {
		return nil
	}
	runsAt := m.StartTime.Add(-n.Lead)
	kept, err := n.supersedeReminder(ctx, m.ID, runsAt)
	if err != nil || kept {
		return err
	}
	if !runsAt.After(n.now()) {
		return nil
	}
	jobID := uuid.New()
	payload, err := json.Marshal(ReminderPayload{
		Type:      ReminderTaskType,
		JobID:     jobID.String(),
		MeetingID: m.ID,
		StartTime: m.StartTime.UTC().Format(config.TIME_PARSE_FORMAT),
	})
	if err != nil {
		return err
	}
	name := fmt.Sprintf("meeting-%d-reminder-%d", m.ID, m.StartTime.Unix())
	if n.Jobs != nil {
		job := &models.JobTask{
			ID:        jobID,
			Name:      name,
			JobType:   "OneTimeJobStartDateTime",
			RunsAt:    runsAt,
			MeetingID: m.ID,
			Payload:   string(payload),
			Status:    models.JOB_PENDING,
		}
		if err := n.Jobs.CreateJob(ctx, job); err != nil {
			return err
		}
	}
	id, err := n.Schedule(ctx, name, runsAt, string(payload))
	if err != nil {
		return err
	}
	log.Printf("[Notifier] reminder %s for meeting %d at %s\n", id, m.ID, runsAt.Format(time.RFC3339))
	return nil
}

// supersedeReminder retires the pending reminder of a meeting unless it already
// fires at runsAt, in which case it is kept and true is returned.
func (n *Notifier) supersedeReminder(ctx context.Context, meetingID uint, runsAt time.Time) (bool, error) {
	if n.Jobs == nil {
		return false, nil
	}
	pending, err := n.Jobs.PendingMeetingJob(ctx, meetingID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if pending.RunsAt.Equal(runsAt) {
		return true, nil
	}
	return false, n.Jobs.MarkJob(ctx, pending.ID, models.JOB_SUPERSEDED)
}

func (n *Notifier) syncCalendar(ctx context.Context, m models.Meeting) error {
	if n.Calendar == nil || n.Meetings == nil {
		return nil
	}
	details, err := n.Meetings.FindMeetingDetails(ctx, m.ID)
	if err != nil {
		return err
	}
	owner := details.Owner
	if owner == nil || !owner.CalendarSync || owner.GoogleRefreshToken == "" {
		return nil
	}
	if details.IsCancelled() {
		if details.GoogleEventID == "" {
			return nil
		}
		return n.Calendar.Remove(ctx, owner, details.GoogleEventID)
	}
	eventID, err := n.Calendar.Upsert(ctx, owner, details.ToCalendarMeeting(), details.GoogleEventID)
	if err != nil {
		return err
	}
	if eventID != details.GoogleEventID {
		return n.Meetings.SetGoogleEventID(ctx, details.ID, eventID)
	}
	return nil
}

// PublishMeetingEvent sends the event to SNS in production and to Kafka
// when a broker is configured.
func PublishMeetingEvent(ctx context.Context, event types.MeetingEvent) error {
	topic := config.Getenv("MEETING_EVENTS_TOPIC", MeetingEventsTopic)
	if config.IsProd() {
		body, err := json.Marshal(event)
		if err != nil {
			return err
		}
		_, err = awslib.SNSPublish(ctx, topic, string(event.Type), string(body))
		return err
	}
	if os.Getenv("KAFKA_BROKER") == "" {
		return nil
	}
	return lib.KafkaProduceMessage("meeting_events_producer", utils.WithSuffix(topic), &event)
}

type GoogleCalendar struct{}

func (GoogleCalendar) Upsert(ctx context.Context, owner *models.User, m types.CalendarMeeting, eventID string) (string, error) {
	svc, err := lib.GAPICreateCalendarService(ctx, owner.GoogleRefreshToken)
	if err != nil {
		return "", err
	}
	e := lib.CalendarEventFromMeeting(m, eventID)
	if eventID == "" {
		created, err := lib.GAPIAddEvent(owner.GoogleCalendarID, e, svc)
		if err != nil {
			return "", err
		}
		return created.Id, nil
	}
	updated, err := lib.GAPIUpdateEvent(owner.GoogleCalendarID, e, svc)
	if err != nil {
		return "", err
	}
	return updated.Id, nil
}

func (GoogleCalendar) Remove(ctx context.Context, owner *models.User, eventID string) error {
	svc, err := lib.GAPICreateCalendarService(ctx, owner.GoogleRefreshToken)
	if err != nil {
		return err
	}
	return lib.GAPIDeleteEvent(owner.GoogleCalendarID, eventID, svc)
}
