package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// Key constants of the single-table design.
const (
	pkPrefix = "JOB#"
	skMeta   = "META"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore implements JobStore on DynamoDB.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

var _ JobStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

func jobPK(jobID string) string {
	return pkPrefix + jobID
}

func jobKey(jobID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: jobPK(jobID)},
		"SK": &types.AttributeValueMemberS{Value: skMeta},
	}
}

func (s *DynamoStore) expiresAt() string {
	return strconv.FormatInt(s.now().Add(JobTTL).Unix(), 10)
}

// PutJob writes job with PK, SK and TTL. CreatedAt is set when zero;
// UpdatedAt is always refreshed.
func (s *DynamoStore) PutJob(ctx context.Context, job *Job) error {
	now := s.now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	for k, v := range jobKey(job.ID) {
		item[k] = v
	}
	item["expiresAt"] = &types.AttributeValueMemberN{Value: s.expiresAt()}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put job %s: %w", job.ID, err)
	}

	log.Debug().
		Str("jobId", job.ID).
		Str("status", job.Status).
		Str("url", job.URL).
		Msg("Job persisted")
	return nil
}

// GetJob reads a job. Returns nil, nil if the job does not exist.
func (s *DynamoStore) GetJob(ctx context.Context, jobID string) (*Job, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       jobKey(jobID),
	})
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if result.Item == nil {
		log.Debug().Str("jobId", jobID).Bool("found", false).Msg("GetJob: job not found")
		return nil, nil
	}

	var job Job
	if err := attributevalue.UnmarshalMap(result.Item, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", jobID, err)
	}
	job.ID = jobID
	log.Debug().Str("jobId", jobID).Str("status", job.Status).Bool("found", true).Msg("GetJob: job retrieved")
	return &job, nil
}

// UpdateJobStatus sets status, error and updatedAt in place. An empty
// errMsg removes a previous error.
func (s *DynamoStore) UpdateJobStatus(ctx context.Context, jobID, status, errMsg string) error {
	values := map[string]types.AttributeValue{
		":s": &types.AttributeValueMemberS{Value: status},
		":u": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339Nano)},
	}
	names := map[string]string{
		"#s": "status", // reserved word
	}
	update := "SET #s = :s, updatedAt = :u"
	if errMsg != "" {
		update += ", #e = :e"
		names["#e"] = "error"
		values[":e"] = &types.AttributeValueMemberS{Value: errMsg}
	} else {
		update += " REMOVE #e"
		names["#e"] = "error"
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       jobKey(jobID),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("update job status %s -> %s: %w", jobID, status, err)
	}

	log.Debug().Str("jobId", jobID).Str("status", status).Msg("Job status updated")
	return nil
}
