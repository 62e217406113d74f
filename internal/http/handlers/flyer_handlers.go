package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/phambaophuc/flyer-maker/internal/config"
	"github.com/phambaophuc/flyer-maker/internal/models"
	"github.com/phambaophuc/flyer-maker/internal/services/crop"
	"github.com/phambaophuc/flyer-maker/internal/services/processor"
	"github.com/phambaophuc/flyer-maker/internal/services/queue"
	"github.com/phambaophuc/flyer-maker/internal/services/session"
	"github.com/phambaophuc/flyer-maker/pkg/utils"
	"go.uber.org/zap"
)

const (
	imageParamKey = "image"
	// multipart framing allowance on top of the file size limit
	formOverhead = 1 << 20
)

// TemplateSource is the loaded flyer background.
type TemplateSource interface {
	session.TemplateProvider
	HealthCheck() string
}

// StorageHealth reports the template storage backends.
type StorageHealth interface {
	HealthCheck(ctx context.Context) map[string]string
}

// EventPublisher announces generated flyers.
type EventPublisher interface {
	PublishFlyerGenerated(ctx context.Context, event *models.FlyerEvent) error
	GetQueueStats() (*queue.QueueStats, error)
	HealthCheck() string
}

type FlyerHandler struct {
	sessions  *session.Manager
	processor *processor.ImageProcessor
	templates TemplateSource
	storage   StorageHealth
	events    EventPublisher
	logger    *zap.Logger
	config    *config.Config
	upgrader  websocket.Upgrader
}

// NewFlyerHandler wires the handler. storage and events may be nil when
// Supabase or RabbitMQ are not configured.
func NewFlyerHandler(
	sessions *session.Manager,
	processor *processor.ImageProcessor,
	templates TemplateSource,
	storage StorageHealth,
	events EventPublisher,
	logger *zap.Logger,
	config *config.Config,
) *FlyerHandler {
	return &FlyerHandler{
		sessions:  sessions,
		processor: processor,
		templates: templates,
		storage:   storage,
		events:    events,
		logger:    logger,
		config:    config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// === SESSION LIFECYCLE ===

func (h *FlyerHandler) CreateSession(c *gin.Context) {
	s, err := h.sessions.Create()
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Info("Session created", zap.String("session_id", s.ID()))
	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    s.View(),
	})
}

func (h *FlyerHandler) GetSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	h.respondView(c, s)
}

func (h *FlyerHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true})
}

// === PHOTO SELECTION ===

func (h *FlyerHandler) UploadPhoto(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.processor.MaxFileSize()+formOverhead)

	file, header, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: request body exceeds %d bytes", session.ErrFileTooLarge, maxErr.Limit)
		} else {
			err = fmt.Errorf("%w: no image file provided", session.ErrInvalidFileType)
		}
		h.respondSessionError(c, s.RejectUpload(err))
		return
	}
	defer file.Close()

	err = s.SelectFile(session.Upload{
		FileName:  header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Size:      header.Size,
		Body:      file,
	})
	if err != nil {
		h.logger.Warn("Photo rejected",
			zap.String("session_id", s.ID()),
			zap.String("file_name", header.Filename),
			zap.Error(err),
		)
		h.respondSessionError(c, err)
		return
	}

	h.respondView(c, s)
}

// === CROP INPUT ===

func (h *FlyerHandler) Pointer(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req models.PointerEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid pointer event: %v", err))
		return
	}

	if _, err := s.Pointer(session.PointerKind(req.Type), crop.Point{X: req.X, Y: req.Y}); err != nil {
		h.respondSessionError(c, err)
		return
	}

	h.respondView(c, s)
}

// PointerStream answers every pointer event read from the websocket with
// the session view. The stream ends when the client closes it.
func (h *FlyerHandler) PointerStream(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.String("session_id", s.ID()), zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		var req models.PointerEvent
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("Pointer stream closed", zap.String("session_id", s.ID()), zap.Error(err))
			}
			return
		}

		resp := models.APIResponse{Success: true}
		if _, err := s.Pointer(session.PointerKind(req.Type), crop.Point{X: req.X, Y: req.Y}); err != nil {
			resp.Success = false
			resp.Error = err.Error()
		}
		resp.Data = s.View()

		if err := conn.WriteJSON(resp); err != nil {
			h.logger.Warn("Pointer stream write failed", zap.String("session_id", s.ID()), zap.Error(err))
			return
		}
	}
}

func (h *FlyerHandler) SetScale(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req models.ScaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid scale: %v", err))
		return
	}

	if _, err := s.SetScale(req.Scale); err != nil {
		h.respondSessionError(c, err)
		return
	}

	h.respondView(c, s)
}

func (h *FlyerHandler) Preview(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	img, err := s.Preview()
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	h.respondImage(c, img, processor.FormatPNG, false)
}

// === TRANSITIONS ===

func (h *FlyerHandler) Confirm(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	start := time.Now()
	if err := s.Confirm(); err != nil {
		h.logger.Error("Flyer generation failed", zap.String("session_id", s.ID()), zap.Error(err))
		h.respondSessionError(c, err)
		return
	}

	h.logger.Info("Flyer generated",
		zap.String("session_id", s.ID()),
		zap.Duration("duration", time.Since(start)),
	)
	h.publishGenerated(c.Request.Context(), s)
	h.respondView(c, s)
}

func (h *FlyerHandler) Cancel(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	if err := s.Cancel(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	h.respondView(c, s)
}

func (h *FlyerHandler) Reset(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	if err := s.Reset(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	h.respondView(c, s)
}

// === DOWNLOADS ===

func (h *FlyerHandler) DownloadFlyer(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	format, err := processor.ParseFormat(c.Query("format"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := s.Export(&buf, format); err != nil {
		h.respondSessionError(c, err)
		return
	}

	fileName := utils.ReplaceExt(h.config.Layout.Flyer.FileName, format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, processor.ContentType(format), buf.Bytes())
}

// CroppedPhoto serves the circle crop that went into the current flyer.
func (h *FlyerHandler) CroppedPhoto(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	img := s.Cropped()
	if img == nil {
		h.respondSessionError(c, fmt.Errorf("%w: no cropped photo while %s", session.ErrInvalidTransition, s.State()))
		return
	}

	h.respondImage(c, img, processor.FormatPNG, false)
}

func (h *FlyerHandler) Template(c *gin.Context) {
	img, err := h.templates.Template()
	if err != nil {
		h.respondError(c, http.StatusServiceUnavailable, session.ErrTemplateUnavailable.Error())
		return
	}

	h.respondImage(c, img, processor.FormatPNG, true)
}

// HealthCheck
func (h *FlyerHandler) HealthCheck(c *gin.Context) {
	services := h.serviceStatus(c.Request.Context())
	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
			Sessions:  h.sessions.Len(),
		},
	})
}

func (h *FlyerHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"sessions":  h.sessions.Len(),
		"template":  h.templates.HealthCheck(),
		"timestamp": time.Now(),
	}

	if h.events != nil {
		queueStats, err := h.events.GetQueueStats()
		if err != nil {
			h.logger.Error("Failed to get queue stats", zap.Error(err))
		} else {
			stats["queue"] = queueStats
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
