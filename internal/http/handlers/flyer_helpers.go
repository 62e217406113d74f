package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/flyer-maker/internal/models"
	"github.com/phambaophuc/flyer-maker/internal/services/processor"
	"github.com/phambaophuc/flyer-maker/internal/services/session"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

const (
	maxCacheAge        = 3600
	memoryLimitPercent = 95.0
	notConfigured      = "not configured"
)

// === SESSION LOOKUP ===

func (h *FlyerHandler) lookupSession(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err)
		return nil, false
	}
	return s, true
}

// === RESPONSE HANDLING ===

func (h *FlyerHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *FlyerHandler) respondSessionError(c *gin.Context, err error) {
	h.respondError(c, statusForError(err), err.Error())
}

func (h *FlyerHandler) respondView(c *gin.Context, s *session.Session) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    s.View(),
	})
}

func (h *FlyerHandler) respondImage(c *gin.Context, img image.Image, format string, cacheable bool) {
	var buf bytes.Buffer
	if err := h.processor.Encode(&buf, img, format, processor.DefaultQuality); err != nil {
		h.logger.Error("Failed to encode image", zap.String("format", format), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to encode image")
		return
	}

	if cacheable {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxCacheAge))
	} else {
		c.Header("Cache-Control", "no-store")
	}
	c.Data(http.StatusOK, processor.ContentType(format), buf.Bytes())
}

// statusForError maps session error kinds to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, session.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrInvalidFileType), errors.Is(err, session.ErrImageDecode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// === HEALTH ===

func (h *FlyerHandler) serviceStatus(ctx context.Context) map[string]string {
	services := make(map[string]string)

	if h.storage != nil {
		for name, status := range h.storage.HealthCheck(ctx) {
			services[name] = status
		}
	} else {
		services["redis"] = notConfigured
		services["supabase"] = notConfigured
	}

	if h.events != nil {
		services["rabbitmq"] = h.events.HealthCheck()
	} else {
		services["rabbitmq"] = notConfigured
	}

	services["template"] = h.templates.HealthCheck()

	if status, ok := h.memoryStatus(ctx); ok {
		services["memory"] = status
	}

	return services
}

func (h *FlyerHandler) memoryStatus(ctx context.Context) (string, bool) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		h.logger.Debug("Memory stats unavailable", zap.Error(err))
		return "", false
	}
	if vm.UsedPercent > memoryLimitPercent {
		return fmt.Sprintf("unhealthy: memory usage %.1f%%", vm.UsedPercent), true
	}
	return "healthy", true
}

// calculateOverallHealth treats the fallback template as healthy; the
// flyer can still be generated on it.
func (h *FlyerHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		switch status {
		case "healthy", notConfigured, "fallback":
		default:
			return "unhealthy"
		}
	}
	return "healthy"
}

// === EVENTS ===

func (h *FlyerHandler) publishGenerated(ctx context.Context, s *session.Session) {
	if h.events == nil {
		return
	}

	artifact, err := s.Artifact()
	if err != nil {
		return
	}

	event := &models.FlyerEvent{
		SessionID:   s.ID(),
		Width:       artifact.Width,
		Height:      artifact.Height,
		Size:        len(artifact.Data),
		Format:      artifact.Format,
		GeneratedAt: artifact.GeneratedAt,
	}
	if err := h.events.PublishFlyerGenerated(ctx, event); err != nil {
		h.logger.Warn("Failed to publish flyer event", zap.String("session_id", s.ID()), zap.Error(err))
	}
}
