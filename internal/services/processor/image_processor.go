package processor

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultQuality = 90
	MaxFileSize    = 10 << 20 // 10MB
)

var (
	ErrInvalidFileType = errors.New("file is not an image")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrImageDecode     = errors.New("failed to decode image")
)

type ImageProcessor struct {
	maxFileSize int64
}

func NewImageProcessor(maxFileSize int64) *ImageProcessor {
	if maxFileSize <= 0 {
		maxFileSize = MaxFileSize
	}
	return &ImageProcessor{maxFileSize: maxFileSize}
}

func (p *ImageProcessor) MaxFileSize() int64 { return p.maxFileSize }

// Decode reads an uploaded photo, applying its EXIF orientation.
func (p *ImageProcessor) Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrImageDecode)
	}

	return img, nil
}
