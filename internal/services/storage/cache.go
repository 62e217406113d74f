package storage

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

// TemplateCacheKey identifies the template object across buckets.
func (s *StorageService) TemplateCacheKey() string {
	return TemplateCacheKey(s.bucket, s.object)
}

func TemplateCacheKey(bucket, object string) string {
	hash := md5.Sum([]byte(bucket + "/" + object))
	return fmt.Sprintf("flyer_template:%x", hash)
}
