package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Source reads corpus files (laws.json, cases.json) for the ingestion batch
type Source interface {
	// Open returns the named corpus file for reading
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// SourceType represents the corpus source backend
type SourceType string

const (
	SourceTypeLocal SourceType = "local"
	SourceTypeS3    SourceType = "s3"
)

// SourceConfig holds configuration for a corpus source
type SourceConfig struct {
	Type         SourceType
	LocalPath    string // For local sources
	S3Bucket     string // For S3 sources
	S3Prefix     string // Optional key prefix inside the bucket
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// NewSource creates a corpus source based on configuration
func NewSource(cfg SourceConfig) (Source, error) {
	switch cfg.Type {
	case SourceTypeLocal:
		return NewLocalSource(cfg.LocalPath)
	case SourceTypeS3:
		return NewS3Source(cfg)
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}

// NewSourceFromEnv creates a corpus source from environment variables
func NewSourceFromEnv() (Source, error) {
	sourceType := os.Getenv("CORPUS_SOURCE")
	if sourceType == "" {
		sourceType = "local" // Default to local for development
	}

	switch SourceType(sourceType) {
	case SourceTypeLocal:
		localPath := os.Getenv("CORPUS_LOCAL_PATH")
		if localPath == "" {
			localPath = "./data"
		}
		return NewLocalSource(localPath)

	case SourceTypeS3:
		cfg := SourceConfig{
			Type:         SourceTypeS3,
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Prefix:     os.Getenv("AWS_S3_PREFIX"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for the s3 corpus source")
		}
		return NewS3Source(cfg)

	default:
		return nil, fmt.Errorf("unknown source type: %s", sourceType)
	}
}
