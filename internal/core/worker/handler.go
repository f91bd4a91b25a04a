// Package worker contains the single-worker lock, the stage handlers, and
// the polling loop that ties them together. One worker process runs per
// operating mode; modes pull disjoint item-type subsets of the queue.
package worker

import (
	"context"

	"github.com/hay-kot/foreman/internal/core/queue"
)

// Handler processes one queue item type. Implementations own all task-record
// mutation for their item type: domain failures (bad exit codes, missing
// identifiers, unsupported task types) are recorded on the task, and only
// unexpected conditions are returned as errors for the loop to log.
type Handler interface {
	Handle(ctx context.Context, item queue.Item) error
}
