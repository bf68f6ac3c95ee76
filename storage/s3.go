package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"research-verifier/config"
	"research-verifier/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Settings describe an S3-compatible endpoint (AWS, MinIO, Strato HiDrive, ...).
type S3Settings struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Client creates a path-style S3 client with static credentials.
func NewS3Client(ctx context.Context, s S3Settings) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// ReportArchive writes finished verifications as JSON documents to a bucket.
type ReportArchive struct {
	Client  *s3.Client
	Bucket  string
	BaseURL string
}

func NewReportArchive(ctx context.Context, cfg *config.Config) (*ReportArchive, error) {
	client, err := NewS3Client(ctx, S3Settings{
		Endpoint:  cfg.ReportS3URL,
		Region:    cfg.ReportS3Region,
		AccessKey: cfg.ReportS3Key,
		SecretKey: cfg.ReportS3Secret,
	})
	if err != nil {
		return nil, err
	}
	return &ReportArchive{Client: client, Bucket: cfg.ReportS3Bucket, BaseURL: cfg.ReportS3URL}, nil
}

// ReportKey is the object key of one archived report.
func ReportKey(messageID uint, id string) string {
	return fmt.Sprintf("reports/%d/%s.json", messageID, id)
}

// Store uploads mv and returns the object link.
func (a *ReportArchive) Store(ctx context.Context, mv *models.MessageVerification) (string, error) {
	data, err := json.Marshal(mv)
	if err != nil {
		return "", err
	}
	return UploadFile(ctx, a.Client, a.Bucket, ReportKey(mv.MessageID, uuid.NewString()), data, a.BaseURL)
}

// UploadFile uploads data and returns its path-style link below baseURL.
func UploadFile(ctx context.Context, client *s3.Client, bucket, key string, data []byte, baseURL string) (string, error) {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(key)),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), bucket, key), nil
}

func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	}
	return "application/octet-stream"
}
