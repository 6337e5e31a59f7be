// Package s3store wraps the AWS S3 client with the small set of object
// operations the sync pipeline needs: existence checks, server-side copy,
// requester-pays reads, and single-stream uploads.
package s3store

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rotisserie/eris"
)

// API is the subset of the S3 client used by Client. It matches the SDK
// method signatures so *s3.Client satisfies it directly.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Uploader is the subset of the transfer manager used for file uploads.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Tag is one object tag, order-preserving.
type Tag struct {
	Key   string
	Value string
}

// Client exposes object-store operations against one S3 endpoint/region.
type Client struct {
	api      API
	uploader Uploader
}

// New creates a Client from an API and Uploader. Used directly by tests.
func New(api API, uploader Uploader) *Client {
	return &Client{api: api, uploader: uploader}
}

// NewFromS3 creates a Client backed by a real *s3.Client. The uploader is
// deliberately single-stream: one goroutine, fixed part size, so transfer
// cost stays predictable against metered endpoints.
func NewFromS3(client *s3.Client, partSizeMB int) *Client {
	if partSizeMB <= 0 {
		partSizeMB = 25
	}
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.Concurrency = 1
		u.PartSize = int64(partSizeMB) << 20
	})
	return New(client, uploader)
}

// Exists checks object presence with a metadata-only HEAD request.
// A NotFound response is not an error; anything else is returned to the
// caller for classification.
func (c *Client) Exists(ctx context.Context, bucket, key string, requesterPays bool) (bool, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if requesterPays {
		input.RequestPayer = types.RequestPayerRequester
	}

	_, err := c.api.HeadObject(ctx, input)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, eris.Wrapf(err, "s3store: head s3://%s/%s", bucket, key)
	}
	return true, nil
}

// Copy performs a server-side copy from a requester-pays source into the
// destination bucket. No object bytes pass through this process.
func (c *Client) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := c.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(dstBucket),
		Key:               aws.String(dstKey),
		CopySource:        aws.String(srcBucket + "/" + srcKey),
		RequestPayer:      types.RequestPayerRequester,
		MetadataDirective: types.MetadataDirectiveCopy,
	})
	return eris.Wrapf(err, "s3store: copy s3://%s/%s to s3://%s/%s", srcBucket, srcKey, dstBucket, dstKey)
}

// Tag replaces the tag set on an object.
func (c *Client) Tag(ctx context.Context, bucket, key string, tags []Tag) error {
	tagSet := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		tagSet = append(tagSet, types.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}
	_, err := c.api.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket:  aws.String(bucket),
		Key:     aws.String(key),
		Tagging: &types.Tagging{TagSet: tagSet},
	})
	return eris.Wrapf(err, "s3store: tag s3://%s/%s", bucket, key)
}

// Download reads a full object into memory.
func (c *Client) Download(ctx context.Context, bucket, key string, requesterPays bool) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if requesterPays {
		input.RequestPayer = types.RequestPayerRequester
	}

	out, err := c.api.GetObject(ctx, input)
	if err != nil {
		return nil, eris.Wrapf(err, "s3store: get s3://%s/%s", bucket, key)
	}
	defer out.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "s3store: read s3://%s/%s", bucket, key)
	}
	return data, nil
}

// Put writes a small object in a single request.
func (c *Client) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := c.api.PutObject(ctx, input)
	return eris.Wrapf(err, "s3store: put s3://%s/%s", bucket, key)
}

// UploadFile streams a local file to the bucket through the single-stream
// uploader.
func (c *Client) UploadFile(ctx context.Context, bucket, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "s3store: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	_, err = c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	return eris.Wrapf(err, "s3store: upload %s to s3://%s/%s", path, bucket, key)
}

// ListPrefixes lists the common prefixes one level below prefix.
func (c *Client) ListPrefixes(ctx context.Context, bucket, prefix string, requesterPays bool) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(1000),
	}
	if requesterPays {
		input.RequestPayer = types.RequestPayerRequester
	}

	out, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, eris.Wrapf(err, "s3store: list prefixes s3://%s/%s", bucket, prefix)
	}

	prefixes := make([]string, 0, len(out.CommonPrefixes))
	for _, p := range out.CommonPrefixes {
		prefixes = append(prefixes, aws.ToString(p.Prefix))
	}
	return prefixes, nil
}

// ListKeys lists up to max keys under prefix in a single request.
func (c *Client) ListKeys(ctx context.Context, bucket, prefix string, max int32, requesterPays bool) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(max),
	}
	if requesterPays {
		input.RequestPayer = types.RequestPayerRequester
	}

	out, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, eris.Wrapf(err, "s3store: list keys s3://%s/%s", bucket, prefix)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

// ListAllKeys walks every page of keys under prefix.
func (c *Client) ListAllKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, eris.Wrapf(err, "s3store: list s3://%s/%s", bucket, prefix)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}
