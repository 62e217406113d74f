package processor

import (
	"fmt"

	"github.com/phambaophuc/flyer-maker/pkg/utils"
)

// ValidateUpload checks the declared media type and size of an upload
// before any bytes are decoded.
func (p *ImageProcessor) ValidateUpload(mediaType string, size int64) error {
	if !utils.IsImageMediaType(mediaType) {
		return fmt.Errorf("%w: %q", ErrInvalidFileType, mediaType)
	}

	if size > p.maxFileSize {
		return fmt.Errorf("%w: size %d exceeds maximum allowed size %d", ErrFileTooLarge, size, p.maxFileSize)
	}

	return nil
}
