// Package lambdaboot holds the cold-start bootstrap of the recording Lambda:
// AWS config, S3, DynamoDB and startup logging. Each helper fatals on a
// missing required setting so misconfiguration shows up at init, not on the
// first request.
package lambdaboot

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/web-gif-recorder/internal/logging"
	"github.com/fpang/web-gif-recorder/internal/store"
)

// S3Clients holds the S3 client, presigner and bucket name.
type S3Clients struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
}

// InitAWS loads the default AWS config.
func InitAWS() aws.Config {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return cfg
}

// InitS3 creates an S3 client and presigner and reads the bucket name from
// bucketEnvVar. Fatals if the variable is empty.
func InitS3(cfg aws.Config, bucketEnvVar string) S3Clients {
	bucket := RequireEnv(bucketEnvVar, "Bucket environment variable is required")
	client := s3.NewFromConfig(cfg)
	return S3Clients{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// InitDynamo creates the job store for the table named by tableEnvVar.
// Fatals if the variable is empty.
func InitDynamo(cfg aws.Config, tableEnvVar string) (*store.DynamoStore, string) {
	tableName := RequireEnv(tableEnvVar, "DynamoDB table environment variable is required")
	return store.NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName), tableName
}

// RequireEnv returns the value of envVar or fatals with msg.
func RequireEnv(envVar, msg string) string {
	v := os.Getenv(envVar)
	if v == "" {
		log.Fatal().Str("envVar", envVar).Msg(msg)
	}
	return v
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
