package lib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsched "github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var (
	awsOnce sync.Once
	awsCfg  *aws.Config
	awsErr  error

	clientsMu       sync.Mutex
	s3Client        *s3.Client
	sqsClient       *sqs.Client
	snsClient       *sns.Client
	schedulerClient *awsched.Client
	sesClient       *ses.Client
	secretsClient   *secretsmanager.Client
	cognitoClient   *cip.Client
)

// AWSConfig loads the shared SDK configuration once per process. When
// AWS_IAM_ROLE_ARN is set the role is assumed and its session credentials used.
func AWSConfig() (*aws.Config, error) {
	awsOnce.Do(func() {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Printf("Error loading default config: %s\n", err.Error())
			awsErr = err
			return
		}
		iamRole := os.Getenv("AWS_IAM_ROLE_ARN")
		if iamRole == "" {
			awsCfg = &cfg
			return
		}
		stsClient := sts.NewFromConfig(cfg)
		output, err := stsClient.AssumeRole(context.Background(), &sts.AssumeRoleInput{
			RoleArn:         aws.String(iamRole),
			RoleSessionName: aws.String("meetingroom-api"),
		})
		if err != nil {
			log.Printf("Error configuring STS client: %s\n", err.Error())
			awsErr = err
			return
		}
		creds := output.Credentials
		cfg, err = config.LoadDefaultConfig(context.Background(), config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(*creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken),
		))
		if err != nil {
			log.Printf("Error configuration: %s\n", err.Error())
			awsErr = err
			return
		}
		awsCfg = &cfg
	})
	return awsCfg, awsErr
}

// NewAWSConfig replaces the shared configuration, e.g. to point clients at a local endpoint.
func NewAWSConfig(cfg aws.Config) {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	awsOnce.Do(func() {})
	awsCfg = &cfg
	awsErr = nil
	s3Client, sqsClient, snsClient, schedulerClient = nil, nil, nil, nil
	sesClient, secretsClient, cognitoClient = nil, nil, nil
}

func awsClient[T any](cached **T, build func(aws.Config) *T, name string) *T {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	if *cached != nil {
		return *cached
	}
	cfg, err := AWSConfig()
	if err != nil || cfg == nil {
		log.Printf("Failed to initialize %s client\n", name)
		return nil
	}
	*cached = build(*cfg)
	return *cached
}

func AWSGetS3Client() *s3.Client {
	return awsClient(&s3Client, func(c aws.Config) *s3.Client { return s3.NewFromConfig(c) }, "S3")
}

func AWSGetSQSClient() *sqs.Client {
	return awsClient(&sqsClient, func(c aws.Config) *sqs.Client { return sqs.NewFromConfig(c) }, "SQS")
}

func AWSGetSNSClient() *sns.Client {
	return awsClient(&snsClient, func(c aws.Config) *sns.Client { return sns.NewFromConfig(c) }, "SNS")
}

func AWSGetSchedulerClient() *awsched.Client {
	return awsClient(&schedulerClient, func(c aws.Config) *awsched.Client { return awsched.NewFromConfig(c) }, "Scheduler")
}

func AWSGetSESClient() *ses.Client {
	return awsClient(&sesClient, func(c aws.Config) *ses.Client { return ses.NewFromConfig(c) }, "SES")
}

func AWSGetSecretsClient() *secretsmanager.Client {
	return awsClient(&secretsClient, func(c aws.Config) *secretsmanager.Client { return secretsmanager.NewFromConfig(c) }, "SecretsManager")
}

func AWSGetCognitoClient() *cip.Client {
	return awsClient(&cognitoClient, func(c aws.Config) *cip.Client { return cip.NewFromConfig(c) }, "Cognito")
}

var ErrAWSUnavailable = errors.New("aws client unavailable")

func arn(service, name string) string {
	return fmt.Sprintf("arn:aws:%s:%s:%s:%s", service, os.Getenv("AWS_REGION"), os.Getenv("AWS_ACCOUNT_ID"), name)
}

func GetTopicArn(topic string) string {
	return arn("sns", topic)
}

func GetQueueArn(queue string) string {
	return arn("sqs", queue)
}

func SQSProduceMessage(queue string, body string) error {
	client := AWSGetSQSClient()
	if client == nil {
		return ErrAWSUnavailable
	}
	qurl, err := client.GetQueueUrl(context.Background(), &sqs.GetQueueUrlInput{
		QueueName: aws.String(queue),
	})
	if err != nil {
		log.Printf("Failed to retrieve queue URL for %s: %s\n", queue, err.Error())
		return err
	}
	_, err = client.SendMessage(context.Background(), &sqs.SendMessageInput{
		QueueUrl:    qurl.QueueUrl,
		MessageBody: aws.String(body),
	})
	return err
}

func SQSDeleteMessage(c *sqs.Client, qurl *string, msg *sqsTypes.Message) {
	_, err := c.DeleteMessage(context.Background(), &sqs.DeleteMessageInput{
		QueueUrl:      qurl,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("Error deleting message from queue: %s\n", err.Error())
	}
}
