// Package main provides the Lambda entry point for recording jobs.
//
// Each invocation records one page into /tmp, uploads the result to
// recordings/{jobId}/ in the output bucket, presigns a download URL and
// keeps the job record in DynamoDB up to date.
//
// Container: Chrome headless shell + ffmpeg
// Memory: 3 GB
// Timeout: 5 minutes
package main

import (
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/fpang/web-gif-recorder/internal/browser"
	"github.com/fpang/web-gif-recorder/internal/config"
	"github.com/fpang/web-gif-recorder/internal/lambdaboot"
	"github.com/fpang/web-gif-recorder/internal/logging"
	"github.com/fpang/web-gif-recorder/internal/recorder"
)

// Set at build time with -ldflags "-X main.commitHash=... -X main.buildTime=...".
var (
	commitHash string
	buildTime  string
)

var app *handler

func init() {
	initStart := time.Now()
	logging.InitJSON(os.Stdout)

	cfg, err := config.Load("")
	if err != nil {
		cfg = config.Default()
	}

	awsCfg := lambdaboot.InitAWS()
	s3s := lambdaboot.InitS3(awsCfg, "OUTPUT_BUCKET_NAME")
	jobStore, tableName := lambdaboot.InitDynamo(awsCfg, "DYNAMO_TABLE_NAME")

	app = &handler{
		recorder:  recorder.New(),
		store:     jobStore,
		s3:        s3s.Client,
		presigner: s3s.Presigner,
		bucket:    s3s.Bucket,
		workDir:   os.TempDir(),
		defaults:  cfg,
	}

	lambdaboot.StartupLog("record-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		S3Bucket("output", s3s.Bucket).
		DynamoTable("jobs", tableName).
		Tool("chrome", browser.ResolveChromePath(cfg.Browser.ChromePath)).
		Tool("ffmpeg", ffmpegPath()).
		Config("fps", strconv.Itoa(cfg.Capture.FPS)).
		Config("durationSeconds", strconv.Itoa(cfg.Capture.DurationSeconds)).
		Log()
}

func main() {
	lambda.Start(app.Handle)
}
