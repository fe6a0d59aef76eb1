package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"addons_backend/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	redisPopTimeout = time.Second
	redisPendingTTL = time.Hour
)

// RedisQueue keeps tasks in a Redis list so they survive restarts and can be
// consumed by several processes.
type RedisQueue struct {
	*Registry

	client  *redis.Client
	key     string
	workers int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRedisQueue(client *redis.Client, key string, workers int) *RedisQueue {
	if workers < 1 {
		workers = 1
	}
	return &RedisQueue{
		Registry: NewRegistry(),
		client:   client,
		key:      key,
		workers:  workers,
	}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unavailable: %w", err)
	}
	return client, nil
}

func (q *RedisQueue) pendingKey(task Task) string {
	return q.key + ":pending:" + task.Key()
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	fresh, err := q.client.SetNX(ctx, q.pendingKey(task), 1, redisPendingTTL).Result()
	if err != nil {
		return fmt.Errorf("mark task pending: %w", err)
	}
	if !fresh {
		return nil
	}

	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		q.client.Del(ctx, q.pendingKey(task))
		return fmt.Errorf("push task: %w", err)
	}
	return nil
}

func (q *RedisQueue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
	logger.Info("Task queue started", "backend", "redis", "key", q.key, "workers", q.workers)
}

func (q *RedisQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := q.Next(ctx, redisPopTimeout); err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.WorkerLog("redis-queue", "pop", err)
			time.Sleep(redisPopTimeout)
		}
	}
}

// Next pops one task, waiting up to timeout, and runs it. It returns redis.Nil
// when nothing arrived.
func (q *RedisQueue) Next(ctx context.Context, timeout time.Duration) (*Task, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		return nil, err
	}
	// res is [key, value]
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	q.client.Del(ctx, q.pendingKey(task))
	return &task, q.Run(ctx, task)
}

func (q *RedisQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	logger.Info("Task queue stopped", "backend", "redis")
}
