package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/SteelMorgan/ufwlog/internal/config"
	"github.com/SteelMorgan/ufwlog/internal/retry"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// objectPutter is the part of *s3.Client the uploader needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader copies a finished export file to a bucket
type S3Uploader struct {
	cfg      config.S3Config
	client   objectPutter
	retryCfg retry.Config
}

// NewS3Uploader loads the default AWS credential chain for the configured region
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Retries are driven by the uploader so the file can be rewound between attempts
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
	})
	return newS3Uploader(cfg, client), nil
}

func newS3Uploader(cfg config.S3Config, client objectPutter) *S3Uploader {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Retries
	retryCfg.InitialDelay = 200 * time.Millisecond
	retryCfg.MaxDelay = 2 * time.Second
	return &S3Uploader{
		cfg:      cfg,
		client:   client,
		retryCfg: retryCfg,
	}
}

// ObjectKey returns the key a local file is stored under: prefix + base name
func ObjectKey(prefix, localPath string) string {
	name := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// UploadFile uploads the file at localPath and returns its object key
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	key := ObjectKey(u.cfg.Prefix, localPath)
	startTime := time.Now()

	err = retry.Do(ctx, u.retryCfg, func() error {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		return u.putObject(ctx, key, f, info.Size())
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", localPath, u.cfg.Bucket, key, err)
	}

	log.Info().
		Str("bucket", u.cfg.Bucket).
		Str("key", key).
		Int64("size", info.Size()).
		Dur("duration", time.Since(startTime)).
		Msg("Export uploaded to S3")
	return key, nil
}

// putObject performs a single PutObject call bounded by the configured timeout
func (u *S3Uploader) putObject(ctx context.Context, key string, body io.Reader, size int64) error {
	if u.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.Timeout)
		defer cancel()
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	return err
}
