package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"dronepartpicker/scraper/internal/config"
	"dronepartpicker/scraper/internal/domain/task"
)

// StreamPrefix namespaces this service's streams in redis.
const StreamPrefix = "dpp:stream:"

// taskTypes lists every stream the workers consume.
var taskTypes = []string{"CrawlTask", "SplitTask"}

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error)
	AckTask(ctx context.Context, stream, group, msgID string) error
	CreateGroup(ctx context.Context, stream, group string) error
	AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error)
	EnsureStreamsExist(ctx context.Context) error
}

type RedisQueue struct {
	redisClient *redis.Client
	groupName   string
}

func NewRedisQueue(redisClient *redis.Client, cfg config.RedisConfig) (Queue, error) {
	q := &RedisQueue{
		redisClient: redisClient,
		groupName:   cfg.ConsumerGroup,
	}

	// Ensure all streams and consumer groups exist before workers start
	if err := q.EnsureStreamsExist(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

func (q *RedisQueue) CreateGroup(ctx context.Context, stream, group string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists" {
		log.Infof("Group %s already exists for stream %s", group, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) AddTask(ctx context.Context, task task.Task) (string, error) {
	taskType := task.TaskType()
	streamName := StreamPrefix + taskType

	taskValue, err := task.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"task_type": taskType,
			"task_data": string(taskValue),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

func (q *RedisQueue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    5 * time.Second,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			return nil, nil // No new messages
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil // No new messages
	}

	return &result[0].Messages[0], nil
}

func (q *RedisQueue) AckTask(ctx context.Context, stream, group, msgID string) error {
	return q.redisClient.XAck(ctx, stream, group, msgID).Err()
}

func (q *RedisQueue) AutoClaim(
	ctx context.Context,
	group,
	consumer,
	stream string,
	minIdleTime time.Duration,
) ([]redis.XMessage, error) {
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    1,
	}).Result()

	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}

	return result, nil
}

func (q *RedisQueue) Close() error {
	if q.redisClient != nil {
		return q.redisClient.Close()
	}
	return nil
}

// EnsureStreamsExist creates all required streams and consumer groups upfront
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	log.Info("🔧 Creating Redis streams and consumer groups...")

	for _, taskType := range taskTypes {
		streamName := StreamPrefix + taskType

		// XGroupCreateMkStream needs the stream to exist before a group
		// can start at 0; seed it with a throwaway entry.
		dummyID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: streamName,
			Values: map[string]interface{}{
				"init": "dummy",
			},
		}).Result()

		if err != nil {
			log.Warnf("⚠️ Failed to create stream %s with dummy entry: %v", streamName, err)
		}

		if err := q.CreateGroup(ctx, streamName, q.groupName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}

		if dummyID != "" {
			if err := q.redisClient.XDel(ctx, streamName, dummyID).Err(); err != nil {
				log.Warnf("⚠️ Failed to delete dummy entry from %s: %v", streamName, err)
			}
		}

		log.Infof("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}

	return nil
}
