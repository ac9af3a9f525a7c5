package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StreamPublisher publishes domain events to a Redis Stream for the
// downstream automation engine. One stream per tenant keeps consumers
// isolated the same way the rest of the data is.
type StreamPublisher struct {
	client    *redis.Client
	streamFmt string
	maxLen    int64
}

func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{
		client:    client,
		streamFmt: "events:agenda:%s",
		maxLen:    10000,
	}
}

func (p *StreamPublisher) Publish(ctx context.Context, eventType, tenantID string, entityID uuid.UUID, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: fmt.Sprintf(p.streamFmt, tenantID),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_type":  eventType,
			"entity_id":   entityID.String(),
			"payload":     string(data),
			"occurred_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
