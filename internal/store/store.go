// Package store persists local sync run history.
package store

import (
	"context"

	"github.com/sells-group/naip-sync/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	ZipCode string
	Status  model.RunStatus
	Limit   int
}

// Store defines the persistence interface for run history.
type Store interface {
	CreateRun(ctx context.Context, zip string) (*model.SyncRun, error)
	CompleteRun(ctx context.Context, id string, status model.RunStatus, summary *model.RunSummary) error
	GetRun(ctx context.Context, id string) (*model.SyncRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.SyncRun, error)

	Migrate(ctx context.Context) error
	Close() error
}
