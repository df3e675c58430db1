package lib

import (
	"context"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSchedulerRunsPayload(t *testing.T) {
	sched, err := gocron.NewScheduler()
	require.NoError(t, err)
	sched.Start()
	t.Cleanup(func() { _ = sched.Shutdown() })

	received := make(chan string, 1)
	SetTaskHandler(func(payload string) { received <- payload })
	t.Cleanup(func() { SetTaskHandler(nil) })

	local := &LocalScheduler{inner: sched}
	id, err := local.CreateScheduleWithStartDate(context.Background(), "reminder_1", time.Now().Add(50*time.Millisecond), `{"meeting_id":1}`)
	require.NoError(t, err)
	assert.NotNil(t, id)

	select {
	case p := <-received:
		assert.JSONEq(t, `{"meeting_id":1}`, p)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled task did not run")
	}
}

func TestLocalSchedulerWithoutScheduler(t *testing.T) {
	local := &LocalScheduler{}
	_, err := local.CreateScheduleWithStartDate(context.Background(), "x", time.Now(), "{}")
	assert.Error(t, err)
}
