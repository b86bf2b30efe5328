package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lyzr/genstore/common/logger"
)

// RedisEmitter publishes progress events on a per-project pub/sub channel
// so streaming front-ends can fan them out to subscribers
type RedisEmitter struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

// NewRedisEmitter creates a redis-backed emitter
func NewRedisEmitter(client *redis.Client, prefix string, log *logger.Logger) *RedisEmitter {
	return &RedisEmitter{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

// Channel returns the pub/sub channel for a project
func (e *RedisEmitter) Channel(projectID string) string {
	return fmt.Sprintf("%s:%s", e.prefix, projectID)
}

// Emit publishes the event. Errors are logged and swallowed; the engine
// must not depend on delivery succeeding.
func (e *RedisEmitter) Emit(ctx context.Context, event ProgressEvent) {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		e.log.Warn("failed to marshal progress event", "stage", event.Stage, "error", err)
		return
	}

	channel := e.Channel(event.ProjectID.String())
	if err := e.client.Publish(ctx, channel, payload).Err(); err != nil {
		e.log.Warn("failed to publish progress event",
			"channel", channel,
			"stage", event.Stage,
			"error", err,
		)
		return
	}

	e.log.Debug("published progress event",
		"channel", channel,
		"stage", event.Stage,
		"progress", event.Progress,
	)
}

// Close closes the underlying redis client
func (e *RedisEmitter) Close() error {
	return e.client.Close()
}
