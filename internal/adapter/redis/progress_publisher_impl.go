package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/alt-audit-service/internal/progress"
	"github.com/user/alt-audit-service/internal/repository"
)

const ProgressChannel = "altaudit:progress"

// ProgressPublisherImpl publishes every progress event as JSON on a Redis
// pub/sub channel.
type ProgressPublisherImpl struct {
	client  redis.Cmdable
	channel string
}

var _ repository.ProgressPublisher = (*ProgressPublisherImpl)(nil)

// NewProgressPublisher publishes on channel, or ProgressChannel when empty.
func NewProgressPublisher(client redis.Cmdable, channel string) *ProgressPublisherImpl {
	if channel == "" {
		channel = ProgressChannel
	}
	return &ProgressPublisherImpl{client: client, channel: channel}
}

func (p *ProgressPublisherImpl) Publish(ctx context.Context, event progress.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode progress event: %w", err)
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Close is a no-op; the client belongs to the caller.
func (p *ProgressPublisherImpl) Close() error {
	return nil
}
