package crop

import (
	"errors"
	"fmt"
	"math"

	"github.com/phambaophuc/flyer-maker/internal/config"
)

var ErrInvalidViewport = errors.New("invalid viewport geometry")

// Point is a position in viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Placement maps native image pixels into the viewport:
// viewport = offset + native * scale.
type Placement struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Scale   float64 `json:"scale"`
}

func (p Placement) Offset() Point { return Point{p.OffsetX, p.OffsetY} }

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Region is a square area in native source pixels.
type Region struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// Viewport describes the interactive preview surface and its crop circle.
type Viewport struct {
	Width             int
	Height            int
	CropSize          int
	HandleSize        int
	MinScale          float64
	MaxScale          float64
	ResizeSensitivity float64
}

// ViewportFromConfig converts the configured layout.
func ViewportFromConfig(l config.ViewportLayout) Viewport {
	return Viewport{
		Width:             l.Width,
		Height:            l.Height,
		CropSize:          l.CropSize,
		HandleSize:        l.HandleSize,
		MinScale:          l.MinScale,
		MaxScale:          l.MaxScale,
		ResizeSensitivity: l.ResizeSensitivity,
	}
}

func (v Viewport) Validate() error {
	switch {
	case v.Width <= 0 || v.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidViewport, v.Width, v.Height)
	case v.CropSize <= 0 || v.CropSize > v.Width || v.CropSize > v.Height:
		return fmt.Errorf("%w: crop circle %d does not fit %dx%d", ErrInvalidViewport, v.CropSize, v.Width, v.Height)
	case v.HandleSize <= 0:
		return fmt.Errorf("%w: handle size %d", ErrInvalidViewport, v.HandleSize)
	case v.MinScale <= 0 || v.MaxScale < v.MinScale:
		return fmt.Errorf("%w: scale bounds [%v, %v]", ErrInvalidViewport, v.MinScale, v.MaxScale)
	}
	return nil
}

func (v Viewport) Center() Point {
	return Point{float64(v.Width) / 2, float64(v.Height) / 2}
}

func (v Viewport) Radius() float64 {
	return float64(v.CropSize) / 2
}

// Handles returns the resize hit zones centred on the corners of the crop
// circle's bounding box: top-right, bottom-right, bottom-left, top-left.
func (v Viewport) Handles() [4]Rect {
	c, r := v.Center(), v.Radius()
	half := float64(v.HandleSize) / 2
	corners := [4]Point{
		{c.X + r, c.Y - r},
		{c.X + r, c.Y + r},
		{c.X - r, c.Y + r},
		{c.X - r, c.Y - r},
	}

	var zones [4]Rect
	for i, p := range corners {
		zones[i] = Rect{p.X - half, p.Y - half, p.X + half, p.Y + half}
	}
	return zones
}

// OnHandle reports whether p falls inside any resize hit zone.
func (v Viewport) OnHandle(p Point) bool {
	for _, zone := range v.Handles() {
		if zone.Contains(p) {
			return true
		}
	}
	return false
}

// ClampScale bounds s to [MinScale, MaxScale].
func (v Viewport) ClampScale(s float64) float64 {
	return math.Max(v.MinScale, math.Min(v.MaxScale, s))
}
