package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/flyer-maker/internal/config"
	"github.com/phambaophuc/flyer-maker/pkg/utils"
)

var (
	ErrInvalidLayout = errors.New("invalid flyer layout")
	ErrMissingInput  = errors.New("missing background or photo")
	ErrDrawFailed    = errors.New("failed to draw flyer")
)

// Layout fixes where the photo sits on the flyer.
type Layout struct {
	Width        int
	Height       int
	CircleX      int
	CircleY      int
	CircleRadius int
	FileName     string
	Title        string
	Caption      string
}

func LayoutFromConfig(l config.FlyerLayout) Layout {
	return Layout{
		Width:        l.Width,
		Height:       l.Height,
		CircleX:      l.CircleX,
		CircleY:      l.CircleY,
		CircleRadius: l.CircleRadius,
		FileName:     l.FileName,
		Title:        l.Title,
		Caption:      l.Caption,
	}
}

func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidLayout, l.Width, l.Height)
	}
	if l.CircleRadius <= 0 ||
		l.CircleX-l.CircleRadius < 0 || l.CircleX+l.CircleRadius > l.Width ||
		l.CircleY-l.CircleRadius < 0 || l.CircleY+l.CircleRadius > l.Height {
		return fmt.Errorf("%w: circle (%d,%d) r=%d outside canvas", ErrInvalidLayout, l.CircleX, l.CircleY, l.CircleRadius)
	}
	return nil
}

func (l Layout) Diameter() float64 { return float64(2 * l.CircleRadius) }

type Compositor struct {
	layout Layout
}

func New(layout Layout) (*Compositor, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Compositor{layout: layout}, nil
}

func (c *Compositor) Layout() Layout { return c.layout }

// CoverFit scales a width x height image so its longer side equals diameter,
// keeping the aspect ratio.
func CoverFit(width, height int, diameter float64) (float64, float64) {
	aspect := float64(width) / float64(height)
	if aspect > 1 {
		return diameter, diameter / aspect
	}
	return diameter * aspect, diameter
}

// Compose stretches background over the canvas and draws photo fitted and
// centred inside the layout circle.
func (c *Compositor) Compose(background, photo image.Image) (out *image.NRGBA, err error) {
	if background == nil || photo == nil {
		return nil, ErrMissingInput
	}
	pb := photo.Bounds()
	if pb.Empty() || background.Bounds().Empty() {
		return nil, ErrMissingInput
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrDrawFailed, r)
		}
	}()

	l := c.layout
	out = imaging.Resize(background, l.Width, l.Height, imaging.Lanczos)

	dw, dh := CoverFit(pb.Dx(), pb.Dy(), l.Diameter())
	fitted := imaging.Resize(photo, max(1, int(math.Round(dw))), max(1, int(math.Round(dh))), imaging.Lanczos)

	cx, cy := float64(l.CircleX), float64(l.CircleY)
	x0 := int(math.Round(cx - dw/2))
	y0 := int(math.Round(cy - dh/2))
	rect := fitted.Bounds().Add(image.Pt(x0, y0))

	clip := utils.CircleMask(out.Bounds(), cx, cy, float64(l.CircleRadius), false)
	draw.DrawMask(out, rect, fitted, image.Point{}, clip, rect.Min, draw.Over)

	return out, nil
}
