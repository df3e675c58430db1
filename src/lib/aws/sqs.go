package aws

import (
	"context"
	"log"
	"meetingroom/src/lib"
	"meetingroom/src/types"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/tidwall/gjson"
)

type SQSConsumer struct {
	Name    string
	handler *types.Handler
}

func NewSQSConsumer(queue string, handler types.Handler) *SQSConsumer {
	new := SQSConsumer{
		Name:    queue,
		handler: &handler,
	}
	return &new
}

// Unwrap returns the inner message when body is an SNS notification envelope.
func Unwrap(body string) string {
	if gjson.Get(body, "Type").String() == "Notification" {
		if msg := gjson.Get(body, "Message"); msg.Exists() {
			return msg.String()
		}
	}
	return body
}

// Listen long-polls the queue until ctx is done. Each message is handed to
// the handler and deleted once the handler returns.
func (s *SQSConsumer) Listen(ctx context.Context) {
	go func() {
		qname := s.Name
		client := lib.AWSGetSQSClient()
		if client == nil {
			return
		}
		qurl, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
			QueueName: aws.String(qname),
		})
		if err != nil {
			log.Printf("Failed to retrieve queue URL for %s: %s\n", qname, err.Error())
			return
		}
		log.Printf("%s: Listening for messages...", qname)
		messagesChan := make(chan sqstypes.Message, 10)
		go func(chn chan<- sqstypes.Message) {
			defer close(chn)
			for ctx.Err() == nil {
				output, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
					QueueUrl:            qurl.QueueUrl,
					WaitTimeSeconds:     20,
					MaxNumberOfMessages: 10,
				})
				if err != nil {
					if ctx.Err() == nil {
						log.Printf("[SQS] Error receiving messages from %s: %s\n", qname, err.Error())
					}
					return
				}
				for _, m := range output.Messages {
					chn <- m
				}
			}
		}(messagesChan)

		h := *s.handler
		for m := range messagesChan {
			body := Unwrap(strings.Clone(aws.ToString(m.Body)))
			go func(m sqstypes.Message) {
				h(body)
				lib.SQSDeleteMessage(client, qurl.QueueUrl, &m)
			}(m)
		}
	}()
}
