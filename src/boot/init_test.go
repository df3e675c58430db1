package boot

import (
	"context"
	"meetingroom/src/config"
	"meetingroom/src/lib"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobStore struct {
	pending []models.JobTask
	expired time.Time
}

func (f *fakeJobStore) CreateJob(ctx context.Context, job *models.JobTask) error { return nil }

func (f *fakeJobStore) PendingJobs(ctx context.Context, from, to time.Time, limit int) ([]models.JobTask, error) {
	return f.pending, nil
}

func (f *fakeJobStore) FindJob(ctx context.Context, id uuid.UUID) (*models.JobTask, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeJobStore) PendingMeetingJob(ctx context.Context, meetingID uint) (*models.JobTask, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeJobStore) MarkJob(ctx context.Context, id uuid.UUID, status string) error { return nil }

func (f *fakeJobStore) ExpireJobs(ctx context.Context, now time.Time) (int64, error) {
	f.expired = now
	return 3, nil
}

func TestRecoverQueuedJobs(t *testing.T) {
	config.API_ENV = "local"
	t.Cleanup(config.Load)
	sched, err := gocron.NewScheduler()
	require.NoError(t, err)
	lib.NewScheduler(sched)
	t.Cleanup(func() { _ = sched.Shutdown() })

	jobs := &fakeJobStore{pending: []models.JobTask{
		{ID: uuid.New(), Name: "meeting-1-reminder", RunsAt: time.Now().Add(time.Hour), Payload: `{"type":"meeting.reminder"}`},
		{ID: uuid.New(), Name: "meeting-2-reminder", RunsAt: time.Now().Add(2 * time.Hour), Payload: `{"type":"meeting.reminder"}`},
	}}
	require.NoError(t, RecoverQueuedJobs(context.Background(), jobs))
	assert.Len(t, sched.Jobs(), 2)
}

func TestExpiredJobsSweep(t *testing.T) {
	jobs := &fakeJobStore{}
	sw := ExpiredJobsSweep(jobs)
	n, err := sw.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), jobs.expired, 5*time.Second)
	assert.Equal(t, "expired-jobs", sw.Name)
}
