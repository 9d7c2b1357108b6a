package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"cloudvault/internal/config"
)

// S3Provider stores bytes in an S3-compatible bucket (AWS, MinIO, Localstack).
// PutObject is atomic: an object is either fully written or absent.
type S3Provider struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3Provider builds a client from cfg. Static credentials override the
// default chain when both halves are set.
func NewS3Provider(ctx context.Context, cfg config.S3StorageConfig, logger *slog.Logger) (*S3Provider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return NewS3ProviderWithClient(client, cfg.Bucket, logger), nil
}

// NewS3ProviderWithClient wraps an existing client.
func NewS3ProviderWithClient(client *s3.Client, bucket string, logger *slog.Logger) *S3Provider {
	return &S3Provider{client: client, bucket: bucket, logger: logger}
}

func (p *S3Provider) Kind() Kind { return KindS3 }

func (p *S3Provider) GenerateKey(originalName, ownerID string) string {
	return GenerateKey(originalName, ownerID)
}

// Upload streams content to the bucket. PutObject needs an exact length, so
// a seekable body is hashed in one pass and rewound; anything else is first
// spooled to a temp file. Memory use stays flat either way.
func (p *S3Provider) Upload(ctx context.Context, originalName string, content io.Reader, mimeType, ownerID string) (*UploadResult, error) {
	key := p.GenerateKey(originalName, ownerID)

	body, cleanup, err := seekableBody(content)
	if err != nil {
		return nil, backendError("upload", KindS3, key, fmt.Errorf("read upload body: %w", err))
	}
	defer cleanup()

	start, err := body.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, backendError("upload", KindS3, key, err)
	}
	measured := newMeasuringReader(body)
	if _, err := io.Copy(io.Discard, measured); err != nil {
		return nil, backendError("upload", KindS3, key, fmt.Errorf("read upload body: %w", err))
	}
	if _, err := body.Seek(start, io.SeekStart); err != nil {
		return nil, backendError("upload", KindS3, key, err)
	}
	result := measured.result(key)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(result.Size),
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return nil, p.mapError("upload", key, err)
	}

	return result, nil
}

// seekableBody returns content itself when it can seek, or a temp file
// holding a copy of it. cleanup removes the temp file.
func seekableBody(content io.Reader) (io.ReadSeeker, func(), error) {
	if rs, ok := content.(io.ReadSeeker); ok {
		return rs, func() {}, nil
	}

	spool, err := os.CreateTemp("", "cloudvault-upload-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}
	if _, err := io.Copy(spool, content); err != nil {
		cleanup()
		return nil, nil, err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, err
	}
	return spool, cleanup, nil
}

func (p *S3Provider) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, p.mapError("download", key, err)
	}
	return resp.Body, nil
}

func (p *S3Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		mapped := p.mapError("delete", key, err)
		if isNotFound(mapped) {
			return nil
		}
		return mapped
	}
	return nil
}

func (p *S3Provider) Exists(ctx context.Context, key string) bool {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if !isNotFound(p.mapError("exists", key, err)) {
			p.logger.Warn("storage exists check failed", "provider", KindS3, "key", key, "error", err)
		}
		return false
	}
	return true
}

// mapError flattens SDK errors into the storage error taxonomy.
func (p *S3Provider) mapError(op, key string, err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return notFound(op, KindS3, key)
	}

	// HEAD responses carry no body, so some servers only expose the code
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return notFound(op, KindS3, key)
		}
	}

	return backendError(op, KindS3, key, err)
}
