package lib

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/tidwall/gjson"
)

// LoadSecrets exports the key/value pairs of a JSON secret into the process
// environment. Variables that are already set win.
func LoadSecrets(ctx context.Context, secretID string) error {
	client := AWSGetSecretsClient()
	if client == nil {
		return ErrAWSUnavailable
	}
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		log.Printf("[Secrets] could not read %s: %s\n", secretID, err.Error())
		return err
	}
	n := ExportSecrets(aws.ToString(out.SecretString))
	log.Printf("[Secrets] exported %d values from %s\n", n, secretID)
	return nil
}

func ExportSecrets(secret string) int {
	exported := 0
	gjson.Parse(secret).ForEach(func(key, value gjson.Result) bool {
		if _, set := os.LookupEnv(key.String()); set {
			return true
		}
		if err := os.Setenv(key.String(), value.String()); err == nil {
			exported++
		}
		return true
	})
	return exported
}
