package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nexusclinic/clinic-scheduling/internal/scheduling"
)

const queueKey = "notifications:outbox"

// RedisQueue hands notification requests to the delivery collaborator via a
// Redis list. The delivery worker on the other side owns transport and
// retries; the engine only drops the request off.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, n scheduling.NotificationRequest) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification request: %w", err)
	}
	if err := q.client.LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue notification %s: %w", n.Type, err)
	}
	return nil
}
