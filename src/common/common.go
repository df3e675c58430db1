package common

import (
	"context"
	"log"
	"meetingroom/src/config"
	awslib "meetingroom/src/lib/aws"
	"meetingroom/src/lib/mailer"
	"meetingroom/src/types"
	"meetingroom/src/utils"
	"os"
)

// SQSConsumers starts the queue listeners for queued mail and reminders
// delivered by EventBridge.
func SQSConsumers(ctx context.Context, tasks types.Handler) {
	if q := os.Getenv("EMAIL_QUEUE"); q != "" {
		awslib.NewSQSConsumer(utils.WithSuffix(q), mailer.HandleQueuedMail).Listen(ctx)
	}
	if q := os.Getenv("REMINDER_QUEUE"); q != "" {
		awslib.NewSQSConsumer(q, tasks).Listen(ctx)
	}
}

// SNSSubscribes attaches MEETING_EVENTS_QUEUE to the meeting events topic.
func SNSSubscribes(ctx context.Context) {
	q := os.Getenv("MEETING_EVENTS_QUEUE")
	if q == "" {
		return
	}
	topic := config.Getenv("MEETING_EVENTS_TOPIC", MeetingEventsTopic)
	if _, err := awslib.SNSSubscribeQueue(ctx, topic, utils.WithSuffix(q)); err != nil {
		log.Printf("Error subscribing %s to %s: %s\n", q, topic, err.Error())
	}
}
