package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusclinic/clinic-scheduling/internal/scheduling"
)

func TestRedisQueueEnqueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q := NewRedisQueue(client)
	n := scheduling.NotificationRequest{
		ID:            uuid.New(),
		AppointmentID: uuid.New(),
		TenantID:      "t1",
		Type:          scheduling.NotifyCreated,
		Channel:       scheduling.ChannelWhatsApp,
		Status:        scheduling.NotificationPending,
		Recipient:     uuid.NewString(),
		Message:       "Appointment scheduled for 10/01/2024 10:00 at moema",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	require.NoError(t, q.Enqueue(context.Background(), n))

	raw, err := client.RPop(context.Background(), "notifications:outbox").Result()
	require.NoError(t, err)

	var got scheduling.NotificationRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, scheduling.NotifyCreated, got.Type)
	assert.Equal(t, "t1", got.TenantID)
}
