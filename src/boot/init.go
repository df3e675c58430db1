package boot

import (
	"context"
	"log"
	"meetingroom/src/common"
	"meetingroom/src/config"
	"meetingroom/src/db"
	"meetingroom/src/lib"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"meetingroom/src/utils"
	"os"
	"time"

	"gorm.io/gorm"
)

var Models = []any{
	&models.User{},
	&models.Room{},
	&models.Meeting{},
	&models.Device{},
	&models.MeetingDevice{},
	&models.Group{},
	&models.GroupMember{},
	&models.GroupInvite{},
	&models.VerificationCode{},
	&models.JobTask{},
	&models.TrailLog{},
}

func InitDb() *gorm.DB {
	db := db.GetDb()

	if err := db.AutoMigrate(Models...); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitSecrets exports AWS_SECRETS_ID into the environment outside local runs.
func InitSecrets() {
	secretID := os.Getenv("AWS_SECRETS_ID")
	if config.IsLocal() || secretID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := lib.LoadSecrets(ctx, secretID); err != nil {
		log.Printf("Error loading secrets: %s\n", err.Error())
		return
	}
	config.Load()
}

// Sweep is a periodic maintenance task.
type Sweep struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int64, error)
}

func InitScheduler(tasks types.Handler, sweeps ...Sweep) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	lib.SetTaskHandler(tasks)
	for _, sw := range sweeps {
		sw := sw
		id, err := lib.CreateCronJob(sw.Name, sw.Interval, func() {
			n, err := sw.Run(context.Background())
			if err != nil {
				log.Printf("[%s] sweep failed: %s\n", sw.Name, err.Error())
				return
			}
			if n > 0 {
				log.Printf("[%s] %d rows updated\n", sw.Name, n)
			}
		})
		if err != nil {
			log.Printf("Error scheduling %s: %s\n", sw.Name, err.Error())
			continue
		}
		log.Printf("Job ID: %s %s\n", sw.Name, *id)
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
	}
}

// RecoverQueuedJobs puts pending reminders back on the local scheduler after
// a restart. EventBridge keeps its own schedules.
func RecoverQueuedJobs(ctx context.Context, jobs repository.JobStore) error {
	if _, ok := lib.CreateScheduler().(*lib.LocalScheduler); !ok {
		return nil
	}
	today := time.Now()
	pending, err := jobs.PendingJobs(ctx, today, today.Add((24*30*3)*time.Hour), 100)
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(pending))
	for _, job := range pending {
		id, err := lib.NewScheduledJob(ctx, job.Name, job.RunsAt, job.Payload)
		if err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", job.ID.String(), err.Error())
			continue
		}
		log.Printf("Added job to scheduler: name=%s id=%s job=%s\n", job.Name, job.ID.String(), id.String())
	}
	return nil
}

// ExpiredJobsSweep marks reminders that never ran as expired.
func ExpiredJobsSweep(jobs repository.JobStore) Sweep {
	return Sweep{
		Name:     "expired-jobs",
		Interval: 30 * time.Minute,
		Run: func(ctx context.Context) (int64, error) {
			return jobs.ExpireJobs(ctx, time.Now().Add(-time.Hour))
		},
	}
}

func InitBroker(ctx context.Context, tasks types.Handler) {
	common.SQSConsumers(ctx, tasks)
	if config.IsProd() {
		go common.SNSSubscribes(ctx)
	}
	if os.Getenv("KAFKA_BROKER") != "" {
		topic := config.Getenv("MEETING_EVENTS_TOPIC", common.MeetingEventsTopic)
		go lib.KafkaCreateTopics(utils.WithSuffix(topic))
	}
}
