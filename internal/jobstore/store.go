// Package jobstore holds the registry of reel render jobs. Each job has
// exactly one writer (the worker goroutine running it) and any number of
// concurrent readers (the poll endpoint).
package jobstore

import (
	"context"
	"errors"

	"github.com/eventlens/api/internal/model"
)

// ErrNotFound is returned when no record exists for a job ID.
var ErrNotFound = errors.New("job not found")

// Store is the job registry. Put overwrites the record for a job ID;
// Get returns the latest snapshot. Records for terminal jobs stay
// readable for the store's retention period and then expire.
type Store interface {
	Put(ctx context.Context, job *model.ReelJob) error
	Get(ctx context.Context, jobID string) (*model.ReelJob, error)
}
