package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/redis/go-redis/v9"
)

// HeartbeatRepository keeps the latest device heartbeat in Redis under a
// TTL equal to the online threshold. Presence of the key means the
// device is online; the Postgres row is the durable fallback.
type HeartbeatRepository struct {
	client *redis.Client
}

func NewHeartbeatRepository(redisClient *redis.Client) (*HeartbeatRepository, error) {

	ctx := context.Background()

	// Проверка подключения
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &HeartbeatRepository{
		client: redisClient,
	}, nil
}

func heartbeatKey(deviceID int64) string {
	return fmt.Sprintf("device:%d:heartbeat", deviceID)
}

// Touch records a heartbeat; the key expires after the online threshold
func (r *HeartbeatRepository) Touch(ctx context.Context, deviceID int64, seen time.Time) error {
	key := heartbeatKey(deviceID)
	return r.client.Set(ctx, key, seen.Format(time.RFC3339Nano), entity.OnlineThreshold).Err()
}

// LastSeen returns the cached heartbeat time and whether one is present
func (r *HeartbeatRepository) LastSeen(ctx context.Context, deviceID int64) (time.Time, bool, error) {
	key := heartbeatKey(deviceID)
	raw, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	seen, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt heartbeat value for device %d: %w", deviceID, err)
	}
	return seen, true, nil
}

// Forget drops the heartbeat key, forcing the device offline immediately
func (r *HeartbeatRepository) Forget(ctx context.Context, deviceID int64) error {
	return r.client.Del(ctx, heartbeatKey(deviceID)).Err()
}
