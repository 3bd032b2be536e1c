// Package vault reports how much object storage an account's vault uses.
package vault

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/vaultkeeper/internal/server/config"
)

// UsageReporter returns the number of bytes stored for an account.
type UsageReporter interface {
	UsedBytes(ctx context.Context, accountID string) (int64, error)
}

// KeyPrefix is where objects of accountID live inside the bucket.
func KeyPrefix(accountID string) string {
	return "users/" + accountID + "/"
}

// seams for tests
var (
	loadDefaultConfig     = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

type S3UsageReporter struct {
	client s3.ListObjectsV2APIClient
	bucket string
}

// NewS3UsageReporter builds an S3 client for the configured endpoint.
// Path-style addressing is used so MinIO works without DNS buckets.
func NewS3UsageReporter(ctx context.Context, c *sc.Config) (*S3UsageReporter, error) {
	cfg, err := loadDefaultConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading s3 config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3UsageReporter{client: client, bucket: c.S3Bucket}, nil
}

func (r *S3UsageReporter) UsedBytes(ctx context.Context, accountID string) (int64, error) {
	p := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(KeyPrefix(accountID)),
	})

	var total int64
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("listing vault objects: %w", err)
		}
		for _, obj := range page.Contents {
			total += aws.ToInt64(obj.Size)
		}
	}

	return total, nil
}
