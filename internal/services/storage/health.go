package storage

import (
	"context"
	"path"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// HealthCheck checks Redis and that the template object is still listed
// in its Supabase bucket.
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	status["supabase"] = s.templateStatus()

	return status
}

func (s *StorageService) templateStatus() string {
	dir, name := path.Split(s.object)

	files, err := s.sbClient.ListFiles(s.bucket, strings.TrimSuffix(dir, "/"), storage_go.FileSearchOptions{
		Limit:  100,
		Offset: 0,
	})
	if err != nil {
		return "unhealthy: " + err.Error()
	}

	for _, f := range files {
		if f.Name == name {
			return "healthy"
		}
	}
	return "unhealthy: template " + s.object + " not found"
}
