package crop

import (
	"errors"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var ErrNoSource = errors.New("no source image loaded")

// Mode is the current pointer interaction.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
)

func (m Mode) String() string {
	switch m {
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	default:
		return "idle"
	}
}

type resizeAnchor struct {
	scale float64
	y     float64
}

// Engine positions a source image inside the circular crop viewport and
// extracts the pixels under the circle. It is not safe for concurrent use.
type Engine struct {
	viewport    Viewport
	source      image.Image
	placement   Placement
	mode        Mode
	dragStart   Point
	resizeStart resizeAnchor
}

func NewEngine(viewport Viewport) (*Engine, error) {
	if err := viewport.Validate(); err != nil {
		return nil, err
	}
	return &Engine{viewport: viewport}, nil
}

func (e *Engine) Viewport() Viewport   { return e.viewport }
func (e *Engine) Placement() Placement { return e.placement }
func (e *Engine) Mode() Mode           { return e.mode }
func (e *Engine) Source() image.Image  { return e.source }

// Load installs img and fits its shorter side to the crop circle, centred.
func (e *Engine) Load(img image.Image) {
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	scale := float64(e.viewport.CropSize) / math.Min(w, h)
	center := e.viewport.Center()

	e.source = img
	e.mode = ModeIdle
	e.placement = Placement{
		OffsetX: center.X - w*scale/2,
		OffsetY: center.Y - h*scale/2,
		Scale:   scale,
	}
}

func (e *Engine) PointerDown(p Point) {
	if e.source == nil {
		return
	}

	if e.viewport.OnHandle(p) {
		e.mode = ModeResizing
		e.resizeStart = resizeAnchor{scale: e.placement.Scale, y: p.Y}
		return
	}

	e.mode = ModeDragging
	e.dragStart = p.Sub(e.placement.Offset())
}

// PointerMove pans or resizes depending on the active mode. Panning is not
// bounded; the image may leave the crop circle entirely.
func (e *Engine) PointerMove(p Point) {
	switch e.mode {
	case ModeDragging:
		offset := p.Sub(e.dragStart)
		e.placement.OffsetX = offset.X
		e.placement.OffsetY = offset.Y
	case ModeResizing:
		factor := 1 + (p.Y-e.resizeStart.y)*e.viewport.ResizeSensitivity
		e.placement.Scale = e.viewport.ClampScale(e.resizeStart.scale * factor)
	}
}

func (e *Engine) PointerUp() { e.mode = ModeIdle }

func (e *Engine) PointerLeave() { e.PointerUp() }

// SetScale applies an absolute scale from the slider control.
func (e *Engine) SetScale(scale float64) {
	if e.source == nil {
		return
	}
	e.placement.Scale = e.viewport.ClampScale(scale)
}

// CropRegion maps the crop circle's bounding square back to native pixels.
func (e *Engine) CropRegion() Region {
	c, r := e.viewport.Center(), e.viewport.Radius()
	s := e.placement.Scale
	return Region{
		X:    (c.X - e.placement.OffsetX - r) / s,
		Y:    (c.Y - e.placement.OffsetY - r) / s,
		Size: 2 * r / s,
	}
}

// Extract resamples the crop region into a new square image with the
// circle's diameter as its side. Parts of the region outside the source
// stay transparent.
func (e *Engine) Extract() (image.Image, error) {
	if e.source == nil {
		return nil, ErrNoSource
	}

	side := e.viewport.CropSize
	dst := image.NewNRGBA(image.Rect(0, 0, side, side))

	region := e.CropRegion()
	s := e.placement.Scale
	bounds := e.source.Bounds()
	m := f64.Aff3{
		s, 0, -(float64(bounds.Min.X) + region.X) * s,
		0, s, -(float64(bounds.Min.Y) + region.Y) * s,
	}
	xdraw.CatmullRom.Transform(dst, m, e.source, bounds, xdraw.Src, nil)

	return dst, nil
}

// Reset drops the source and placement.
func (e *Engine) Reset() {
	e.source = nil
	e.placement = Placement{}
	e.mode = ModeIdle
	e.dragStart = Point{}
	e.resizeStart = resizeAnchor{}
}
