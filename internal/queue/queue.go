package queue

import (
	"context"
	"errors"
)

// ErrEmpty is returned by a consumer whose wait timed out without a run.
var ErrEmpty = errors.New("queue is empty")

// RunQueuer hands failed pipeline runs over for cleanup.
type RunQueuer interface {
	InsertRun(ctx context.Context, runID string) error
}

type RunFetcher interface {
	ConsumeRun(ctx context.Context) (string, error)
}
