package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3ClientConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

type S3ObjectStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3ClientConfig
}

var _ ObjectStore = (*S3ObjectStore)(nil)

func NewS3ObjectStore(ctx context.Context, cfg S3ClientConfig) (*S3ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	client, err := initializeS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	return &S3ObjectStore{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
	}, nil
}

func initializeS3Client(ctx context.Context, cfg S3ClientConfig) (*s3.Client, error) {
	opts := []func(*aws_config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, aws_config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// path-style addressing for MinIO
		o.UsePathStyle = true
	}), nil
}

// EnsureBucket creates the bucket unless it already exists and opens the
// profile image prefix for public reads.
func (s *S3ObjectStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err != nil {
		var existErr *types.BucketAlreadyExists
		var ownedErr *types.BucketAlreadyOwnedByYou
		if errors.As(err, &existErr) || errors.As(err, &ownedErr) {
			slog.Info("Bucket already exists", "bucket", s.cfg.Bucket)
			return s.allowPublicImageReads(ctx)
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.cfg.Bucket, err)
	}

	slog.Info("Bucket created successfully", "bucket", s.cfg.Bucket)
	return s.allowPublicImageReads(ctx)
}

// allowPublicImageReads lets anonymous clients GET profile images so the
// URLs handed out by PutObject resolve. Everything else stays private.
func (s *S3ObjectStore) allowPublicImageReads(ctx context.Context) error {
	policy, err := profileImagePolicy(s.cfg.Bucket)
	if err != nil {
		return err
	}
	_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(s.cfg.Bucket),
		Policy: aws.String(policy),
	})
	if err != nil {
		return fmt.Errorf("failed to set read policy on bucket %s (is Block Public Access enabled?): %w", s.cfg.Bucket, err)
	}
	slog.Info("Bucket policy applied", "bucket", s.cfg.Bucket, "prefix", profileImagePrefix)
	return nil
}

type policyStatement struct {
	Sid       string `json:"Sid"`
	Effect    string `json:"Effect"`
	Principal string `json:"Principal"`
	Action    string `json:"Action"`
	Resource  string `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

func profileImagePolicy(bucket string) (string, error) {
	b, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid:       "PublicReadProfileImages",
			Effect:    "Allow",
			Principal: "*",
			Action:    "s3:GetObject",
			Resource:  fmt.Sprintf("arn:aws:s3:::%s/%s*", bucket, profileImagePrefix),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode bucket policy: %w", err)
	}
	return string(b), nil
}

func (s *S3ObjectStore) PutObject(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   data,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object to s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}
	slog.Info("Object uploaded successfully", "bucket", s.cfg.Bucket, "key", key)

	return s.ObjectURL(key), nil
}

func (s *S3ObjectStore) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}
	slog.Info("Object deleted successfully", "bucket", s.cfg.Bucket, "key", key)
	return nil
}

// ObjectURL is the public URL of key: path-style under a custom endpoint,
// virtual-hosted on AWS.
func (s *S3ObjectStore) ObjectURL(key string) string {
	return objectURL(s.cfg, key)
}

func objectURL(cfg S3ClientConfig, key string) string {
	if cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket, key)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, region, key)
}
