package storage

import (
	"time"

	"github.com/phambaophuc/flyer-maker/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

// StorageService serves the flyer template asset from Supabase Storage,
// caching its bytes in Redis. User photos never pass through it.
type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	object        string
	cacheDuration time.Duration
	logger        *zap.Logger
}

func NewStorageService(cfg *config.Config, logger *zap.Logger) (*StorageService, error) {
	sbClient := storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return &StorageService{
		sbClient:      sbClient,
		redisClient:   redisClient,
		bucket:        cfg.Supabase.BUCKET,
		object:        cfg.Storage.TemplateObject,
		cacheDuration: cfg.Storage.CacheDuration,
		logger:        logger,
	}, nil
}

func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
