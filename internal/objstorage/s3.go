package objstorage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/canonica-labs/dagplan/internal/planir"
)

// s3Lister is the subset of the AWS SDK v2 S3 client this backend needs,
// narrowed so it can be faked in tests without a real client.
type s3Lister interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Backend lists objects in an S3 bucket. The same backend serves MinIO,
// which is S3-API compatible, by pointing the client's BaseEndpoint at the
// MinIO endpoint; scheme is set by the caller when registering the
// backend.
type S3Backend struct {
	client s3Lister
	bucket string
	scheme planir.Scheme
}

// NewS3Backend constructs an S3Backend for the given bucket. scheme is
// planir.SchemeS3 or planir.SchemeMinio depending on which StorageInfo
// this backend is registered to serve.
func NewS3Backend(client *s3.Client, bucket string, scheme planir.Scheme) *S3Backend {
	return &S3Backend{client: client, bucket: bucket, scheme: scheme}
}

// Scheme implements Storage.
func (b *S3Backend) Scheme() planir.Scheme { return b.scheme }

// ListPaths implements Storage by paginating ListObjectsV2 under prefix.
func (b *S3Backend) ListPaths(ctx context.Context, pathPrefix string) ([]string, error) {
	var out []string
	var continuationToken *string
	for {
		resp, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.bucket),
			Prefix:            aws.String(pathPrefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range resp.Contents {
			if obj.Key != nil {
				out = append(out, *obj.Key)
			}
		}
		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		continuationToken = resp.NextContinuationToken
	}
	return out, nil
}
