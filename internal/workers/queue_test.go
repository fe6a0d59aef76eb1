package workers

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueDedupAndDrain(t *testing.T) {
	q := NewMemoryQueue(1, 10)
	var runs atomic.Int32
	q.Register("count", func(ctx context.Context, task Task) error {
		runs.Add(1)
		return nil
	})

	ctx := context.Background()
	a, err := NewTask("count", AddonPayload{AddonID: 1})
	require.NoError(t, err)
	b, err := NewTask("count", AddonPayload{AddonID: 2})
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, a))
	require.NoError(t, q.Enqueue(ctx, a))
	require.NoError(t, q.Enqueue(ctx, b))
	assert.Equal(t, 2, q.Len())

	assert.Equal(t, 2, q.Drain(ctx))
	assert.EqualValues(t, 2, runs.Load())

	// Once run, the same task can be queued again.
	require.NoError(t, q.Enqueue(ctx, a))
	assert.Equal(t, 1, q.Drain(ctx))
}

func TestMemoryQueueFullAndUnknown(t *testing.T) {
	q := NewMemoryQueue(1, 1)
	ctx := context.Background()

	first, _ := NewTask("missing", AddonPayload{AddonID: 1})
	second, _ := NewTask("missing", AddonPayload{AddonID: 2})
	require.NoError(t, q.Enqueue(ctx, first))
	assert.ErrorIs(t, q.Enqueue(ctx, second), ErrQueueFull)

	err := q.Run(ctx, first)
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestMemoryQueueWorkers(t *testing.T) {
	q := NewMemoryQueue(2, 10)
	done := make(chan uint, 3)
	q.Register("echo", func(ctx context.Context, task Task) error {
		done <- uint(len(task.Payload))
		return errors.New("handler errors are logged, not fatal")
	})

	q.Start(context.Background())
	for i := 1; i <= 3; i++ {
		task, _ := NewTask("echo", AddonPayload{AddonID: uint(i)})
		require.NoError(t, q.Enqueue(context.Background(), task))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task was not processed")
		}
	}
	q.Stop()

	task, _ := NewTask("echo", AddonPayload{AddonID: 9})
	assert.ErrorIs(t, q.Enqueue(context.Background(), task), ErrQueueStopped)
}

func TestRedisQueue(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	key := "addons:test:" + time.Now().Format("150405.000000")
	defer client.Del(ctx, key)

	q := NewRedisQueue(client, key, 1)
	var got AddonPayload
	q.Register(TaskAddonIndex, func(ctx context.Context, task Task) error {
		return decode(task, &got)
	})

	task, err := NewTask(TaskAddonIndex, AddonPayload{AddonID: 42})
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, task))
	require.NoError(t, q.Enqueue(ctx, task))
	n, err := client.LLen(ctx, key).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	popped, err := q.Next(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, TaskAddonIndex, popped.Name)
	assert.EqualValues(t, 42, got.AddonID)
}
