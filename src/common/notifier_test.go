package common

import (
	"context"
	"errors"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
)

type fakeMeetings struct {
	mu       sync.Mutex
	meetings map[uint]*models.Meeting
	eventIDs map[uint]string
}

func (f *fakeMeetings) FindMeetingDetails(ctx context.Context, id uint) (*models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMeetings) SetGoogleEventID(ctx context.Context, id uint, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eventIDs == nil {
		f.eventIDs = map[uint]string{}
	}
	f.eventIDs[id] = eventID
	return nil
}

type fakeJobs struct {
	mu     sync.Mutex
	jobs   []models.JobTask
	marked map[uuid.UUID]string
}

func (f *fakeJobs) CreateJob(ctx context.Context, job *models.JobTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, *job)
	return nil
}

func (f *fakeJobs) status(job models.JobTask) string {
	if st, ok := f.marked[job.ID]; ok {
		return st
	}
	return job.Status
}

func (f *fakeJobs) FindJob(ctx context.Context, id uuid.UUID) (*models.JobTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			j.Status = f.status(j)
			return &j, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeJobs) PendingMeetingJob(ctx context.Context, meetingID uint) (*models.JobTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.jobs) - 1; i >= 0; i-- {
		j := f.jobs[i]
		if j.MeetingID == meetingID && f.status(j) == models.JOB_PENDING {
			return &j, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeJobs) MarkJob(ctx context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marked == nil {
		f.marked = map[uuid.UUID]string{}
	}
	f.marked[id] = status
	return nil
}

type fakeCalendar struct {
	mu      sync.Mutex
	upserts []string
	removed []string
}

func (f *fakeCalendar) Upsert(ctx context.Context, owner *models.User, m types.CalendarMeeting, eventID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, m.Title)
	if eventID == "" {
		return "gcal-1", nil
	}
	return eventID, nil
}

func (f *fakeCalendar) Remove(ctx context.Context, owner *models.User, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, eventID)
	return nil
}

type fakeTrail struct {
	mu      sync.Mutex
	entries []models.TrailLog
}

func (f *fakeTrail) AppendTrail(ctx context.Context, entry *models.TrailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

type scheduled struct {
	name    string
	at      time.Time
	payload string
}

type NotifierSuite struct {
	suite.Suite
	now       time.Time
	meetings  *fakeMeetings
	jobs      *fakeJobs
	calendar  *fakeCalendar
	trail     *fakeTrail
	published []types.MeetingEvent
	pushed    []string
	scheduled []scheduled
	mu        sync.Mutex
	notifier  *Notifier
}

func (s *NotifierSuite) SetupTest() {
	s.now = time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	s.meetings = &fakeMeetings{meetings: map[uint]*models.Meeting{}}
	s.jobs = &fakeJobs{}
	s.calendar = &fakeCalendar{}
	s.trail = &fakeTrail{}
	s.published = nil
	s.pushed = nil
	s.scheduled = nil

	n := NewNotifier(s.meetings, s.jobs).WithClock(func() time.Time { return s.now })
	n.Lead = 15 * time.Minute
	n.Calendar = s.calendar
	n.Trail = s.trail
	n.Publish = func(ctx context.Context, event types.MeetingEvent) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.published = append(s.published, event)
		return nil
	}
	n.Realtime = func(roomID uint, event string, data any) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pushed = append(s.pushed, event)
		return errors.New("pusher down")
	}
	n.Schedule = func(ctx context.Context, name string, at time.Time, payload string) (*uuid.UUID, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.scheduled = append(s.scheduled, scheduled{name, at, payload})
		id := uuid.New()
		return &id, nil
	}
	s.notifier = n
}

func (s *NotifierSuite) meeting(status types.MeetingStatus, start time.Time, calSync bool) models.Meeting {
	m := models.Meeting{
		ID:        7,
		RoomID:    3,
		OwnerID:   1,
		Title:     "Planning",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
		Owner:     &models.User{ID: 1, Email: "ada@example.com", CalendarSync: calSync, GoogleRefreshToken: "refresh"},
		Room:      &models.Room{ID: 3, Name: "Orion"},
	}
	s.meetings.meetings[m.ID] = &m
	return m
}

func (s *NotifierSuite) TestConfirmedFansOut() {
	start := s.now.Add(2 * time.Hour)
	m := s.meeting(types.MEETING_CONFIRMED, start, true)

	s.notifier.MeetingChanged(context.Background(), types.MEETING_EVENT_CONFIRMED, m)
	s.notifier.Wait()

	require.Len(s.T(), s.published, 1)
	assert.Equal(s.T(), types.MEETING_EVENT_CONFIRMED, s.published[0].Type)
	assert.Equal(s.T(), uint(7), s.published[0].MeetingID)
	assert.Equal(s.T(), "2030-01-01T10:00:00Z", s.published[0].StartTime)
	assert.Equal(s.T(), []string{"meeting.confirmed"}, s.pushed)

	require.Len(s.T(), s.scheduled, 1)
	assert.Equal(s.T(), start.Add(-15*time.Minute), s.scheduled[0].at)
	assert.Equal(s.T(), ReminderTaskType, gjson.Get(s.scheduled[0].payload, "type").String())
	assert.Equal(s.T(), int64(7), gjson.Get(s.scheduled[0].payload, "meeting_id").Int())

	require.Len(s.T(), s.jobs.jobs, 1)
	assert.Equal(s.T(), models.JOB_PENDING, s.jobs.jobs[0].Status)
	assert.Equal(s.T(), s.jobs.jobs[0].ID.String(), gjson.Get(s.scheduled[0].payload, "job_id").String())

	assert.Equal(s.T(), []string{"Planning"}, s.calendar.upserts)
	assert.Equal(s.T(), "gcal-1", s.meetings.eventIDs[7])

	require.Len(s.T(), s.trail.entries, 1)
	assert.Equal(s.T(), uint(1), s.trail.entries[0].Initiator)
	assert.Equal(s.T(), uint(7), s.trail.entries[0].Reference)
}

func (s *NotifierSuite) TestCancelledRemovesCalendarEvent() {
	m := s.meeting(types.MEETING_CANCELLED, s.now.Add(2*time.Hour), true)
	s.meetings.meetings[7].GoogleEventID = "gcal-9"

	s.notifier.MeetingChanged(WithInitiator(context.Background(), 42), types.MEETING_EVENT_CANCELLED, m)
	s.notifier.Wait()

	require.Len(s.T(), s.trail.entries, 1)
	assert.Equal(s.T(), uint(42), s.trail.entries[0].Initiator)
	assert.Equal(s.T(), "meeting.cancelled", s.trail.entries[0].Type)

	assert.Empty(s.T(), s.scheduled)
	assert.Empty(s.T(), s.jobs.jobs)
	assert.Equal(s.T(), []string{"gcal-9"}, s.calendar.removed)
	assert.Empty(s.T(), s.calendar.upserts)
}

func (s *NotifierSuite) TestNoReminderInsideLeadWindow() {
	m := s.meeting(types.MEETING_CONFIRMED, s.now.Add(10*time.Minute), false)

	s.notifier.MeetingChanged(context.Background(), types.MEETING_EVENT_UPDATED, m)
	s.notifier.Wait()

	assert.Len(s.T(), s.published, 1)
	assert.Empty(s.T(), s.scheduled)
	assert.Empty(s.T(), s.calendar.upserts)
}

func (s *NotifierSuite) TestUpdatesReuseOrReplaceReminder() {
	start := s.now.Add(2 * time.Hour)
	m := s.meeting(types.MEETING_CONFIRMED, start, false)

	s.notifier.MeetingChanged(context.Background(), types.MEETING_EVENT_CONFIRMED, m)
	s.notifier.Wait()
	m.Title = "Planning v2"
	s.notifier.MeetingChanged(context.Background(), types.MEETING_EVENT_UPDATED, m)
	s.notifier.Wait()

	require.Len(s.T(), s.scheduled, 1, "same start keeps the pending reminder")
	require.Len(s.T(), s.jobs.jobs, 1)
	first := s.jobs.jobs[0].ID
	assert.Empty(s.T(), s.jobs.marked)

	m.StartTime = start.Add(time.Hour)
	m.EndTime = m.StartTime.Add(time.Hour)
	s.notifier.MeetingChanged(context.Background(), types.MEETING_EVENT_UPDATED, m)
	s.notifier.Wait()

	require.Len(s.T(), s.scheduled, 2)
	require.Len(s.T(), s.jobs.jobs, 2)
	assert.Equal(s.T(), models.JOB_SUPERSEDED, s.jobs.marked[first])
	assert.Equal(s.T(), m.StartTime.Add(-15*time.Minute), s.jobs.jobs[1].RunsAt)

	m.Status = types.MEETING_CANCELLED
	s.notifier.MeetingChanged(context.Background(), types.MEETING_EVENT_CANCELLED, m)
	s.notifier.Wait()

	assert.Len(s.T(), s.scheduled, 2)
	assert.Equal(s.T(), models.JOB_SUPERSEDED, s.jobs.marked[s.jobs.jobs[1].ID])
}

func TestNotifierSuite(t *testing.T) {
	suite.Run(t, new(NotifierSuite))
}
