package sigaudit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store archives batch records as one JSON object per batch id, for
// operators who run the collector across many hosts and want a shared,
// durable audit trail rather than per-host SQLite files.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3StoreConfig configures an S3Store.
type S3StoreConfig struct {
	Bucket   string
	Region   string
	Endpoint string // custom endpoint, e.g. for MinIO
	Prefix   string
}

// NewS3Store builds an S3-backed audit store.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("sigaudit: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

type s3Envelope struct {
	BatchID      string      `json:"batch_id"`
	CollectedAt  time.Time   `json:"collected_at"`
	SuccessCount int         `json:"success_count"`
	FailCount    int         `json:"fail_count"`
	Outcome      wireOutcome `json:"outcome"`
}

func (s *S3Store) key(batchID string) string {
	return s.prefix + batchID + ".json"
}

// Put uploads rec as a JSON object keyed by its batch id.
func (s *S3Store) Put(ctx context.Context, rec BatchRecord) error {
	payload, err := marshalOutcome(rec.Outcome)
	if err != nil {
		return fmt.Errorf("sigaudit: marshaling outcome for batch %s: %w", rec.BatchID, err)
	}
	var wo wireOutcome
	if err := json.Unmarshal(payload, &wo); err != nil {
		return fmt.Errorf("sigaudit: re-decoding outcome for batch %s: %w", rec.BatchID, err)
	}
	env := s3Envelope{
		BatchID:      rec.BatchID,
		CollectedAt:  rec.CollectedAt,
		SuccessCount: rec.SuccessCount,
		FailCount:    rec.FailCount,
		Outcome:      wo,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("sigaudit: encoding envelope for batch %s: %w", rec.BatchID, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(rec.BatchID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("sigaudit: s3 put for batch %s: %w", rec.BatchID, err)
	}
	return nil
}

// Get downloads and decodes the record for batchID.
func (s *S3Store) Get(ctx context.Context, batchID string) (BatchRecord, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(batchID)),
	})
	if err != nil {
		return BatchRecord{}, fmt.Errorf("sigaudit: s3 get for batch %s: %w", batchID, err)
	}
	defer func() { _ = result.Body.Close() }()

	raw, err := io.ReadAll(result.Body)
	if err != nil {
		return BatchRecord{}, fmt.Errorf("sigaudit: reading s3 body for batch %s: %w", batchID, err)
	}

	var env s3Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return BatchRecord{}, fmt.Errorf("sigaudit: decoding envelope for batch %s: %w", batchID, err)
	}
	skipped, err := unmarshalSkipped(env.Outcome)
	if err != nil {
		return BatchRecord{}, fmt.Errorf("sigaudit: decoding skip list for batch %s: %w", batchID, err)
	}

	return BatchRecord{
		BatchID:      env.BatchID,
		CollectedAt:  env.CollectedAt,
		SuccessCount: env.SuccessCount,
		FailCount:    env.FailCount,
		Skipped:      skipped,
	}, nil
}
