package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dronepartpicker/scraper/internal/domain"
)

// RunStateManager records crawl run state in redis for status queries.
// The running marker is informational only; overlapping runs for the
// same vendor are allowed because catalog writes are idempotent upserts.
type RunStateManager interface {
	SetLastRun(ctx context.Context, vendor string, mode domain.JobMode, at time.Time) error
	GetLastRun(ctx context.Context, vendor string, mode domain.JobMode) (time.Time, error)
	MarkRunning(ctx context.Context, vendor string, jobID int64) error
	ClearRunning(ctx context.Context, vendor string) error
	IsRunning(ctx context.Context, vendor string) (bool, error)
}

type redisRunStateManager struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisRunStateManager(redisClient *redis.Client) RunStateManager {
	return &redisRunStateManager{
		redisClient: redisClient,
		keyPrefix:   "dpp:runs:",
	}
}

func (s *redisRunStateManager) lastRunKey(vendor string, mode domain.JobMode) string {
	return fmt.Sprintf("%slast:%s:%s", s.keyPrefix, vendor, mode)
}

func (s *redisRunStateManager) runningKey(vendor string) string {
	return s.keyPrefix + "running:" + vendor
}

func (s *redisRunStateManager) SetLastRun(ctx context.Context, vendor string, mode domain.JobMode, at time.Time) error {
	err := s.redisClient.Set(ctx, s.lastRunKey(vendor, mode), at.UTC().Format(time.RFC3339), 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set last run for %s/%s: %w", vendor, mode, err)
	}
	return nil
}

func (s *redisRunStateManager) GetLastRun(ctx context.Context, vendor string, mode domain.JobMode) (time.Time, error) {
	val, err := s.redisClient.Get(ctx, s.lastRunKey(vendor, mode)).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, nil // No run recorded yet
		}
		return time.Time{}, fmt.Errorf("failed to get last run for %s/%s: %w", vendor, mode, err)
	}

	at, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last run timestamp for %s/%s: %w", vendor, mode, err)
	}
	return at, nil
}

func (s *redisRunStateManager) MarkRunning(ctx context.Context, vendor string, jobID int64) error {
	// Expires on its own so a crashed worker does not pin the marker.
	err := s.redisClient.Set(ctx, s.runningKey(vendor), jobID, 6*time.Hour).Err()
	if err != nil {
		return fmt.Errorf("failed to mark %s running: %w", vendor, err)
	}
	return nil
}

func (s *redisRunStateManager) ClearRunning(ctx context.Context, vendor string) error {
	if err := s.redisClient.Del(ctx, s.runningKey(vendor)).Err(); err != nil {
		return fmt.Errorf("failed to clear running marker for %s: %w", vendor, err)
	}
	return nil
}

func (s *redisRunStateManager) IsRunning(ctx context.Context, vendor string) (bool, error) {
	_, err := s.redisClient.Get(ctx, s.runningKey(vendor)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check running marker for %s: %w", vendor, err)
	}
	return true, nil
}
