package lib

import (
	"context"
	"fmt"
	"log"
	"meetingroom/src/config"
	"meetingroom/src/types"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsched "github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedulerTypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

var (
	scheduler   gocron.Scheduler
	schedMu     sync.Mutex
	taskHandler types.Handler
)

func NewScheduler(s gocron.Scheduler) {
	schedMu.Lock()
	defer schedMu.Unlock()
	scheduler = s
}

func GetScheduler() (gocron.Scheduler, error) {
	schedMu.Lock()
	defer schedMu.Unlock()
	if scheduler != nil {
		return scheduler, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	scheduler = sched
	return sched, nil
}

// SetTaskHandler registers the function that runs scheduled payloads. Local
// one-time jobs call it directly, EventBridge delivers through the queue consumer.
func SetTaskHandler(h types.Handler) {
	schedMu.Lock()
	defer schedMu.Unlock()
	taskHandler = h
}

func runTask(payload string) {
	schedMu.Lock()
	h := taskHandler
	schedMu.Unlock()
	if h == nil {
		log.Println("[Scheduler] no task handler registered, dropping payload")
		return
	}
	h(payload)
}

// CreateCronJob runs fn every interval on the local scheduler.
func CreateCronJob(name string, interval time.Duration, fn func()) (*string, error) {
	sched, err := GetScheduler()
	if err != nil {
		return nil, err
	}
	j, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	id := j.ID().String()
	return &id, nil
}

type Scheduler interface {
	Name() string
	CreateScheduleWithStartDate(ctx context.Context, name string, s time.Time, payload string) (*uuid.UUID, error)
}

type EventBridgeScheduler struct {
	inner *awsched.Client
}

func (e *EventBridgeScheduler) Name() string {
	return "EventBridge"
}

// CreateScheduleWithStartDate creates a one-shot schedule that drops the
// payload into the reminder queue.
func (e *EventBridgeScheduler) CreateScheduleWithStartDate(ctx context.Context, name string, s time.Time, payload string) (*uuid.UUID, error) {
	if e.inner == nil {
		return nil, ErrAWSUnavailable
	}
	sid := uuid.New()
	roleArn := os.Getenv("SCHEDULER_ROLE_ARN")
	queueArn := GetQueueArn(config.Getenv("REMINDER_QUEUE", "MeetingReminders"))
	sRunsAt := s.UTC().Format("2006-01-02T15:04:05")
	sched, err := e.inner.CreateSchedule(ctx, &awsched.CreateScheduleInput{
		Name:      aws.String(fmt.Sprintf("schedule_%s", name)),
		StartDate: aws.Time(s),
		Target: &schedulerTypes.Target{
			Arn:     aws.String(queueArn),
			RoleArn: aws.String(roleArn),
			Input:   aws.String(payload),
			RetryPolicy: &schedulerTypes.RetryPolicy{
				MaximumRetryAttempts: aws.Int32(3),
			},
		},
		FlexibleTimeWindow:    &schedulerTypes.FlexibleTimeWindow{Mode: schedulerTypes.FlexibleTimeWindowModeOff},
		ScheduleExpression:    aws.String(fmt.Sprintf("at(%s)", sRunsAt)),
		ActionAfterCompletion: schedulerTypes.ActionAfterCompletionDelete,
	})
	if err != nil {
		log.Printf("Failed to create Schedule: %s\n", err.Error())
		return nil, err
	}
	log.Printf("Created schedule at: %s\n", aws.ToString(sched.ScheduleArn))
	return &sid, nil
}

type LocalScheduler struct {
	inner gocron.Scheduler
}

func (l *LocalScheduler) Name() string {
	return "Local"
}

func (l *LocalScheduler) CreateScheduleWithStartDate(ctx context.Context, name string, s time.Time, payload string) (*uuid.UUID, error) {
	if l.inner == nil {
		return nil, fmt.Errorf("local scheduler is not running")
	}
	j, err := l.inner.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(s)),
		gocron.NewTask(func(p string) {
			log.Printf("[%s] Running scheduled task %s\n", l.Name(), name)
			runTask(p)
		}, payload),
		gocron.WithName(name),
	)
	if err != nil {
		log.Printf("Error creating job: %s\n", err.Error())
		return nil, err
	}
	log.Printf("[%s] New Job scheduled on: %s %s\n", l.Name(), j.ID().String(), s.Format(config.TIME_PARSE_FORMAT))
	jid := j.ID()
	return &jid, nil
}

func NewAwsScheduler() *EventBridgeScheduler {
	return &EventBridgeScheduler{inner: AWSGetSchedulerClient()}
}

func NewLocalScheduler() *LocalScheduler {
	inner, _ := GetScheduler()
	return &LocalScheduler{inner: inner}
}

// CreateScheduler returns either an instance of LocalScheduler or EventBridgeScheduler based on the app environment value
func CreateScheduler() Scheduler {
	env := config.API_ENV
	if env == string(types.Production) || env == string(types.Test) {
		return NewAwsScheduler()
	}
	return NewLocalScheduler()
}

// NewScheduledJob schedules payload for startDate on the scheduler matching the environment.
func NewScheduledJob(ctx context.Context, name string, startDate time.Time, payload string) (*uuid.UUID, error) {
	sch := CreateScheduler()
	return sch.CreateScheduleWithStartDate(ctx, name, startDate, payload)
}
