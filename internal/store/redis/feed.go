// Package redis carries the live event feed: committed outbox records are
// published to per-workspace pub/sub channels for WebSocket streaming. The
// feed is best effort — durability lives in the Postgres event log, never
// here.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tasklift/tasklift/internal/domain"
)

type Feed struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Feed, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Feed{client: client}, nil
}

func (f *Feed) Close() error {
	if err := f.client.Close(); err != nil {
		return fmt.Errorf("redis.Feed.Close: %w", err)
	}
	return nil
}

// PublishEvent broadcasts a committed outbox record to the workspace channel.
func (f *Feed) PublishEvent(ctx context.Context, workspaceID string, e *domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis.Feed.PublishEvent: marshal: %w", err)
	}

	channel := WorkspaceChannel(e.TenantID, workspaceID)
	if err := f.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.Feed.PublishEvent: %w", err)
	}

	return nil
}

// Subscribe streams raw feed payloads for a channel until ctx is cancelled.
// The returned cleanup closes the underlying subscription.
func (f *Feed) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := f.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.Feed.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// WorkspaceChannel returns the feed channel name for a workspace.
func WorkspaceChannel(tenantID, workspaceID string) string {
	return "events:" + tenantID + ":" + workspaceID
}
