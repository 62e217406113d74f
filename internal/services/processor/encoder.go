package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/jung-kurt/gofpdf"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
	FormatPDF  = "pdf"
)

// ParseFormat normalizes a requested output format. Empty selects PNG.
func ParseFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func ContentType(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Encode writes img to w in the given format.
func (p *ImageProcessor) Encode(w io.Writer, img image.Image, format string, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: true})
	case FormatPDF:
		return encodePDF(w, img)
	default:
		return png.Encode(w, img)
	}
}

// encodePDF places img on a single page sized to its pixel dimensions in points.
func encodePDF(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode page image: %w", err)
	}

	b := img.Bounds()
	width, height := float64(b.Dx()), float64(b.Dy())

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("flyer", opts, &buf)
	pdf.ImageOptions("flyer", 0, 0, width, height, false, opts, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
