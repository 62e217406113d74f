package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/phambaophuc/flyer-maker/pkg/utils"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Fallback artwork is authored on a 1080px square and scaled to the layout.
const fallbackBase = 1080.0

var (
	gradientTop    = color.NRGBA{0x1a, 0x36, 0x5d, 0xff}
	gradientBottom = color.NRGBA{0x2d, 0x37, 0x48, 0xff}
	gold           = color.NRGBA{0xfb, 0xbf, 0x24, 0xff}
	white          = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

// Fallback synthesizes a stand-in background when the template asset cannot
// be loaded: a vertical gradient, a title, a placeholder ring and a caption.
func Fallback(l Layout) (image.Image, error) {
	if l.Width <= 0 || l.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d", ErrInvalidLayout, l.Width, l.Height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, l.Width, l.Height))
	fillGradient(img, gradientTop, gradientBottom)

	f := math.Min(float64(l.Width), float64(l.Height)) / fallbackBase
	cx := float64(l.Width) / 2

	if err := drawCentered(img, gobold.TTF, 60*f, l.Title, cx, 200*f, gold); err != nil {
		return nil, err
	}

	ring := utils.RingMask(img.Bounds(), cx, 450*f, 180*f, 4*f)
	draw.DrawMask(img, img.Bounds(), image.NewUniform(gold), image.Point{}, ring, image.Point{}, draw.Over)

	if err := drawCentered(img, goregular.TTF, 30*f, l.Caption, cx, 700*f, white); err != nil {
		return nil, err
	}

	return img, nil
}

func fillGradient(img *image.NRGBA, top, bottom color.NRGBA) {
	b := img.Bounds()
	h := float64(b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		t := float64(y-b.Min.Y) / h
		c := color.NRGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 0xff,
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// drawCentered draws text horizontally centred on cx with its baseline at y.
func drawCentered(dst draw.Image, ttf []byte, size float64, text string, cx, y float64, c color.Color) error {
	if text == "" {
		return nil
	}

	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	width := font.MeasureString(face, text)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(int(math.Round(cx))) - width/2, Y: fixed.I(int(math.Round(y)))},
	}
	d.DrawString(text)
	return nil
}
