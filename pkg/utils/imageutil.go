package utils

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"strings"
)

// IsImageMediaType checks if a declared media type names an image.
func IsImageMediaType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// ReplaceExt swaps the extension of filename for format.
func ReplaceExt(filename, format string) string {
	if format == "" {
		return filename
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + "." + format
}

// FillRect paints r with a solid color.
func FillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}
