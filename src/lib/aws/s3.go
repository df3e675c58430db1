package aws

import (
	"bytes"
	"context"
	"log"
	"meetingroom/src/lib"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const PresignTTL = time.Hour

// S3UploadExport stores body under name in the exports bucket and returns a
// presigned GET URL valid for PresignTTL.
func S3UploadExport(ctx context.Context, name string, contentType string, body []byte) (*string, error) {
	bucket := os.Getenv("S3_EXPORTS_BUCKET")
	client := lib.AWSGetS3Client()
	if client == nil {
		return nil, lib.ErrAWSUnavailable
	}
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return nil, err
	}
	pre := s3.NewPresignClient(client)
	r, err := pre.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(name),
	}, func(po *s3.PresignOptions) {
		po.Expires = PresignTTL
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", name, err.Error())
		return nil, err
	}
	return &r.URL, nil
}

// S3UploadFile uploads a local file, e.g. a rendered QR code.
func S3UploadFile(ctx context.Context, name string, contentType string, path string) (*string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Could not open file to upload: %s\n", err.Error())
		return nil, err
	}
	return S3UploadExport(ctx, name, contentType, b)
}
