package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisUploadProgressRepository struct {
	redis *redis.Client
}

func NewRedisUploadProgressRepository(redisClient *redis.Client) *RedisUploadProgressRepository {
	return &RedisUploadProgressRepository{redis: redisClient}
}

func uploadPercentKey(uploadID string) string {
	return fmt.Sprintf("upload:%s:percent", uploadID)
}

func (r *RedisUploadProgressRepository) SetPercent(ctx context.Context, uploadID string, percent float64, expireSeconds int) error {
	expire := time.Duration(expireSeconds) * time.Second
	return r.redis.Set(ctx, uploadPercentKey(uploadID), percent, expire).Err()
}

func (r *RedisUploadProgressRepository) GetPercent(ctx context.Context, uploadID string) (float64, error) {
	val, err := r.redis.Get(ctx, uploadPercentKey(uploadID)).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func (r *RedisUploadProgressRepository) Clear(ctx context.Context, uploadID string) error {
	return r.redis.Del(ctx, uploadPercentKey(uploadID)).Err()
}
