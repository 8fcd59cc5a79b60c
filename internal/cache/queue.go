package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ImportJob describes a background playlist import task.
type ImportJob struct {
	URL     string `json:"url"`
	Section string `json:"section,omitempty"` // fixed section name; empty = use group-title
}

// ImportQueue is the Redis list key used for the import job queue.
const ImportQueue = "guide:jobs:imports"

// EnqueueImport pushes a job onto the left side of the queue list.
func EnqueueImport(ctx context.Context, r *Redis, job ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return r.client.LPush(ctx, ImportQueue, data).Err()
}

// DequeueImport blocks until a job is available on the right side of the
// list or the timeout expires. When the timeout elapses without a job,
// (nil, nil) is returned so the caller can loop and check for shutdown.
func DequeueImport(ctx context.Context, r *Redis, timeout time.Duration) (*ImportJob, error) {
	result, err := r.client.BRPop(ctx, timeout, ImportQueue).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // timeout, no job available
		}
		// Context cancelled (shutdown) — not an error.
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	var job ImportJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &job, nil
}
