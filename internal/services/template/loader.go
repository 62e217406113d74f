package template

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"github.com/phambaophuc/flyer-maker/internal/services/compositor"
	"go.uber.org/zap"
)

var ErrTemplateUnavailable = errors.New("background template unavailable")

// Source fetches the raw template asset.
type Source interface {
	FetchTemplate(ctx context.Context) ([]byte, error)
}

type Decoder interface {
	Decode(r io.Reader) (image.Image, error)
}

// FileSource reads the template from the local filesystem.
type FileSource struct {
	Path string
}

func (f FileSource) FetchTemplate(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return data, nil
}

// Loader holds the flyer background. It is loaded once; until then
// Template reports ErrTemplateUnavailable.
type Loader struct {
	source  Source
	decoder Decoder
	layout  compositor.Layout
	logger  *zap.Logger

	mu       sync.RWMutex
	img      image.Image
	fallback bool
}

func NewLoader(source Source, decoder Decoder, layout compositor.Layout, logger *zap.Logger) *Loader {
	return &Loader{
		source:  source,
		decoder: decoder,
		layout:  layout,
		logger:  logger,
	}
}

// Load fetches and decodes the template, installing the synthesized
// fallback when that fails.
func (l *Loader) Load(ctx context.Context) error {
	img, err := l.fetch(ctx)
	if err == nil {
		b := img.Bounds()
		l.logger.Info("Background template loaded", zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
		l.install(img, false)
		return nil
	}

	l.logger.Warn("Failed to load background template, using fallback", zap.Error(err))

	fallback, ferr := compositor.Fallback(l.layout)
	if ferr != nil {
		l.logger.Error("Failed to synthesize fallback template", zap.Error(ferr))
		return fmt.Errorf("%w: %w", ErrTemplateUnavailable, ferr)
	}

	l.install(fallback, true)
	return nil
}

func (l *Loader) fetch(ctx context.Context) (image.Image, error) {
	if l.source == nil {
		return nil, errors.New("no template source configured")
	}

	data, err := l.source.FetchTemplate(ctx)
	if err != nil {
		return nil, err
	}

	return l.decoder.Decode(bytes.NewReader(data))
}

func (l *Loader) install(img image.Image, fallback bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.img = img
	l.fallback = fallback
}

func (l *Loader) Template() (image.Image, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.img == nil {
		return nil, ErrTemplateUnavailable
	}
	return l.img, nil
}

func (l *Loader) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.img != nil
}

func (l *Loader) Fallback() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fallback
}

// HealthCheck reports "loading", "fallback" or "healthy".
func (l *Loader) HealthCheck() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch {
	case l.img == nil:
		return "loading"
	case l.fallback:
		return "fallback"
	default:
		return "healthy"
	}
}
