package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

func (s *StorageService) Download(ctx context.Context, path string) ([]byte, error) {
	data, err := s.sbClient.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s/%s: %w", s.bucket, path, err)
	}
	return data, nil
}

// FetchTemplate returns the template bytes, preferring the Redis copy. Cache
// errors are logged and otherwise ignored.
func (s *StorageService) FetchTemplate(ctx context.Context) ([]byte, error) {
	cacheKey := s.TemplateCacheKey()

	cached, err := s.GetFromCache(ctx, cacheKey)
	if err != nil {
		s.logger.Warn("Template cache unavailable", zap.Error(err))
	} else if cached != nil {
		s.logger.Info("Template cache hit", zap.String("cache_key", cacheKey))
		return cached, nil
	}

	data, err := s.Download(ctx, s.object)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("template %s/%s is empty", s.bucket, s.object)
	}

	if err := s.SetCache(ctx, cacheKey, data); err != nil {
		s.logger.Warn("Failed to cache template", zap.String("cache_key", cacheKey), zap.Error(err))
	}

	return data, nil
}
