// Package store persists the history of leansched runs.
package store

import (
	"context"

	"github.com/nacansino/lean-scheduler/pkg/model"
)

// Store defines the persistence layer for run history.
type Store interface {
	// CreateRun inserts a run and its per-task stats.
	CreateRun(ctx context.Context, run *model.Run) error
	// GetRun returns nil, nil when no run has the given id.
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns the newest runs first.
	ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
