package naip

import (
	"context"

	"github.com/sells-group/naip-sync/internal/model"
	"github.com/sells-group/naip-sync/internal/s3store"
)

// ObjectStore is the object-store capability the pipeline needs. It is
// satisfied by *s3store.Client; tests substitute fakes.
type ObjectStore interface {
	// Exists checks object presence via a metadata-only request.
	Exists(ctx context.Context, bucket, key string, requesterPays bool) (bool, error)

	// Copy performs a server-side copy; no bytes pass through this process.
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error

	// Tag replaces the tag set on an object.
	Tag(ctx context.Context, bucket, key string, tags []s3store.Tag) error

	// Download reads a full object into memory (requester-pays capable).
	Download(ctx context.Context, bucket, key string, requesterPays bool) ([]byte, error)

	// UploadFile streams a local file into the bucket.
	UploadFile(ctx context.Context, bucket, key, path string) error

	// Put writes a small object in one request.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// RunRecorder persists run history locally. Implemented by the sqlite store.
type RunRecorder interface {
	CreateRun(ctx context.Context, zip string) (*model.SyncRun, error)
	CompleteRun(ctx context.Context, id string, status model.RunStatus, summary *model.RunSummary) error
}
