package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamPublisherPerTenantStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub := NewStreamPublisher(client)
	entityID := uuid.New()

	err := pub.Publish(context.Background(), "appointment.scheduled", "t1", entityID,
		map[string]any{"status": "awaiting_payment"})
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "appointment.confirmed", "t2", entityID, nil)
	require.NoError(t, err)

	ctx := context.Background()
	t1Msgs, err := client.XRange(ctx, "events:agenda:t1", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, t1Msgs, 1)

	t2Msgs, err := client.XRange(ctx, "events:agenda:t2", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, t2Msgs, 1)

	msg := t1Msgs[0]
	assert.Equal(t, "appointment.scheduled", msg.Values["event_type"])
	assert.Equal(t, entityID.String(), msg.Values["entity_id"])
	assert.NotEmpty(t, msg.Values["occurred_at"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.Values["payload"].(string)), &payload))
	assert.Equal(t, "awaiting_payment", payload["status"])
}
