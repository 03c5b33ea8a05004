package publish

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/lumenmedia/mediacenter/internal/config"
	"github.com/lumenmedia/mediacenter/internal/domain/pipeline"
)

// s3API is the slice of the S3 client the publisher needs.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads a local directory tree to an S3-compatible object
// store with public-read visibility, then removes the local copy. With
// uploads disabled it is a no-op that leaves the directory in place.
type S3Publisher struct {
	client        s3API
	bucket        string
	uploadEnabled bool
	logger        *zap.Logger
}

// NewS3Publisher builds a publisher from storage configuration. A custom
// endpoint switches the client to path-style addressing, which Spaces-style
// stores expect.
func NewS3Publisher(cfg config.StorageConfig, logger *zap.Logger) (*S3Publisher, error) {
	log := logger.Named("publisher")

	if !cfg.UploadEnabled {
		return &S3Publisher{uploadEnabled: false, logger: log}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Publisher{
		client:        client,
		bucket:        cfg.S3.Bucket,
		uploadEnabled: true,
		logger:        log,
	}, nil
}

// Publish walks localDir, uploading every file under destPrefix. Once the
// whole tree has been uploaded the local directory is deleted; a deletion
// failure is logged and does not fail the job.
func (p *S3Publisher) Publish(ctx context.Context, localDir, destPrefix string) error {
	if !p.uploadEnabled {
		p.logger.Info("uploads disabled, keeping local directory",
			zap.String("dir", localDir))
		return nil
	}

	err := filepath.WalkDir(localDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(localDir, filePath)
		if err != nil {
			return err
		}
		key := path.Join(destPrefix, filepath.ToSlash(rel))

		if err := p.uploadFile(ctx, filePath, key); err != nil {
			return &pipeline.UploadError{Key: key, Err: err}
		}

		p.logger.Debug("uploaded", zap.String("key", key))
		return nil
	})
	if err != nil {
		return err
	}

	if err := os.RemoveAll(localDir); err != nil {
		p.logger.Warn("failed to delete local directory",
			zap.String("dir", localDir),
			zap.Error(err))
	} else {
		p.logger.Info("local directory deleted", zap.String("dir", localDir))
	}

	return nil
}

func (p *S3Publisher) uploadFile(ctx context.Context, filePath, key string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentTypeFor(filePath)),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	return err
}

// contentTypeFor infers a content type from the file extension, covering the
// HLS types the platform mime database usually misses.
func contentTypeFor(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	}
	if ct := mime.TypeByExtension(filepath.Ext(filePath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
