package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job statuses tracked in JobCache.
const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// JobStatus is the live state of one asynchronous evolve job, as
// tracked in Redis and streamed to pkg/api's WebSocket hub.
type JobStatus struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CurrentGeneration int    `json:"current_generation"`
	BestMakespanSoFar int    `json:"best_makespan_so_far"`
	Error             string `json:"error,omitempty"`
}

// jobTTL bounds how long a finished job's status lingers in Redis.
const jobTTL = time.Hour

// JobCache tracks in-flight evolve jobs in Redis and publishes
// per-generation progress on a pub/sub channel per job.
type JobCache struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewJobCache constructs a JobCache over an existing Redis client.
func NewJobCache(client *redis.Client, logger *slog.Logger) *JobCache {
	return &JobCache{redis: client, logger: logger}
}

func jobKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}

func jobChannel(id string) string {
	return fmt.Sprintf("job:%s:progress", id)
}

// Put writes status to Redis, overwriting any prior state for the
// same job ID.
func (c *JobCache) Put(ctx context.Context, status JobStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("store: marshaling job status: %w", err)
	}
	if err := c.redis.Set(ctx, jobKey(status.ID), data, jobTTL).Err(); err != nil {
		return fmt.Errorf("store: writing job status: %w", err)
	}
	return nil
}

// Get retrieves the current status of jobID.
func (c *JobCache) Get(ctx context.Context, jobID string) (*JobStatus, error) {
	data, err := c.redis.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("store: job not found: %s", jobID)
		}
		return nil, fmt.Errorf("store: reading job status: %w", err)
	}

	var status JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("store: unmarshaling job status: %w", err)
	}
	return &status, nil
}

// PublishProgress writes the job's current status and broadcasts it
// on the job's pub/sub channel, so any subscribed WebSocket client
// sees the update immediately without polling Get.
func (c *JobCache) PublishProgress(ctx context.Context, status JobStatus) error {
	if err := c.Put(ctx, status); err != nil {
		return err
	}
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("store: marshaling progress: %w", err)
	}
	if err := c.redis.Publish(ctx, jobChannel(status.ID), data).Err(); err != nil {
		return fmt.Errorf("store: publishing progress: %w", err)
	}
	return nil
}

// Subscribe returns a Redis subscription to jobID's progress channel;
// the caller must close it when done.
func (c *JobCache) Subscribe(ctx context.Context, jobID string) *redis.PubSub {
	return c.redis.Subscribe(ctx, jobChannel(jobID))
}
