package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"cargoledger/internal/domain"
	"cargoledger/internal/fxrate"
)

// ObjectPutter is the subset of the S3 client used by the publisher.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type publisher struct {
	client ObjectPutter
	bucket string
	key    string
}

// NewPublisher creates a Publisher writing bucket/key.
func NewPublisher(client ObjectPutter, bucket, key string) fxrate.Publisher {
	return &publisher{client: client, bucket: bucket, key: key}
}

func (p *publisher) Publish(ctx context.Context, snap *domain.RateSnapshot) error {
	raw, err := fxrate.Encode(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(p.key),
		Body:          bytes.NewReader(raw),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(raw))),
	})
	if err != nil {
		return fmt.Errorf("s3 publish s3://%s/%s: %w", p.bucket, p.key, err)
	}
	return nil
}
