// Package s3 reads exchange rate snapshots stored as JSON objects in S3.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"cargoledger/internal/config"
	"cargoledger/internal/domain"
	"cargoledger/internal/fxrate"
	"cargoledger/internal/port"
)

// ObjectGetter is the subset of the S3 client used by the provider.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type provider struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewClient creates an S3 client from the FX settings. A custom endpoint
// switches to path-style addressing for S3-compatible stores.
func NewClient(ctx context.Context, cfg *config.FXConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.S3Region))

	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// NewProvider creates a RateSnapshotProvider reading bucket/key.
func NewProvider(client ObjectGetter, bucket, key string) port.RateSnapshotProvider {
	return &provider{client: client, bucket: bucket, key: key}
}

// GetSnapshot downloads the object. When the document has no taken_at the
// object's LastModified time is used.
func (p *provider) GetSnapshot(ctx context.Context) (*domain.RateSnapshot, error) {
	result, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s not found", domain.ErrSnapshotMissing, p.bucket, p.key)
		}
		return nil, fmt.Errorf("s3 snapshot download: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 snapshot read: %w", err)
	}

	var modified time.Time
	if result.LastModified != nil {
		modified = *result.LastModified
	}
	snap, err := fxrate.Decode(data, modified)
	if err != nil {
		return nil, fmt.Errorf("s3 snapshot s3://%s/%s: %w", p.bucket, p.key, err)
	}
	return snap, nil
}
