// Package storage holds the S3 client used for conversation transcripts.
// Every finished execution archives its full event log as one NDJSON
// object so clients can replay it later.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/quorum-ai/quorum/backend/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client
}

// TranscriptKey returns the object key for a conversation's event log.
func TranscriptKey(conversationID string) string {
	return fmt.Sprintf("transcripts/%s.ndjson", conversationID)
}

// PutTranscript uploads the NDJSON event log of one conversation and
// returns the object key.
func PutTranscript(ctx context.Context, client *s3.Client, conversationID string, transcript []byte) (string, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	key := TranscriptKey(conversationID)
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(transcript),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload transcript to S3: %v", err)
	}

	return key, nil
}

// GetTranscript downloads the NDJSON event log stored under key.
func GetTranscript(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript from S3: %v", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read transcript contents: %v", err)
	}

	return buf.Bytes(), nil
}

// DeleteTranscript removes the event log stored under key.
func DeleteTranscript(ctx context.Context, client *s3.Client, key string) error {
	bucket := util.GetEnv("AWS_BUCKET")
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete transcript from S3: %v", err)
	}

	return nil
}
