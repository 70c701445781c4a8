package s3_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargoledger/internal/domain"
	fxs3 "cargoledger/internal/fxrate/s3"
)

type fakeS3 struct {
	body     string
	modified *time.Time
	err      error
	input    *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{
		Body:         io.NopCloser(strings.NewReader(f.body)),
		LastModified: f.modified,
	}, nil
}

func TestProvider_GetSnapshot(t *testing.T) {
	modified := time.Date(2026, 4, 3, 6, 0, 0, 0, time.UTC)
	client := &fakeS3{body: `{"base":"EUR","rates":{"USD":"1.08","JPY":"162"}}`, modified: &modified}
	p := fxs3.NewProvider(client, "rates-bucket", "fx/latest.json")

	snap, err := p.GetSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "rates-bucket", aws.ToString(client.input.Bucket))
	assert.Equal(t, "fx/latest.json", aws.ToString(client.input.Key))
	assert.Equal(t, "EUR", snap.Base)
	assert.Equal(t, modified, snap.TakenAt)
	assert.Contains(t, snap.Rates, "EUR")
}

func TestProvider_NoSuchKey(t *testing.T) {
	p := fxs3.NewProvider(&fakeS3{err: &types.NoSuchKey{}}, "b", "k")

	_, err := p.GetSnapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotMissing)
}

func TestProvider_BadDocument(t *testing.T) {
	modified := time.Now()
	p := fxs3.NewProvider(&fakeS3{body: `{"base":"EUR"`, modified: &modified}, "b", "k")

	_, err := p.GetSnapshot(context.Background())
	assert.Error(t, err)
}
