package aws

import (
	"context"
	"log"
	"meetingroom/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublish sends message to the topic with an event_type attribute that
// subscribers can filter on.
func SNSPublish(ctx context.Context, topic string, eventType string, message string) (*string, error) {
	client := lib.AWSGetSNSClient()
	if client == nil {
		return nil, lib.ErrAWSUnavailable
	}
	out, err := client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(lib.GetTopicArn(topic)),
		Message:  aws.String(message),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
		},
	})
	if err != nil {
		log.Printf("[SNS] Error publishing to %s: %s\n", topic, err.Error())
		return nil, err
	}
	return out.MessageId, nil
}

// SNSSubscribeQueue subscribes an SQS queue to the topic.
func SNSSubscribeQueue(ctx context.Context, topic string, queue string) (*string, error) {
	client := lib.AWSGetSNSClient()
	if client == nil {
		return nil, lib.ErrAWSUnavailable
	}
	output, err := client.Subscribe(ctx, &sns.SubscribeInput{
		Protocol: aws.String("sqs"),
		TopicArn: aws.String(lib.GetTopicArn(topic)),
		Endpoint: aws.String(lib.GetQueueArn(queue)),
	})
	if err != nil {
		log.Printf("Error subscribing to topic [%s]: %s\n", topic, err.Error())
		return nil, err
	}
	return output.SubscriptionArn, nil
}
