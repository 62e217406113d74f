package crop

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/phambaophuc/flyer-maker/pkg/utils"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var (
	scrimColor  = color.NRGBA{0, 0, 0, 128}
	accentColor = color.NRGBA{0x3b, 0x82, 0xf6, 0xff}
	handleInset = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

const (
	outlineWidth = 3.0
	dashLength   = 10.0
	gapLength    = 5.0
	insetWidth   = 2
)

// Render draws the viewport preview: placed image, scrim outside the crop
// circle, dashed outline and resize handles.
func (e *Engine) Render() *image.RGBA {
	v := e.viewport
	dst := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))

	if e.source != nil {
		s := e.placement.Scale
		b := e.source.Bounds()
		m := f64.Aff3{
			s, 0, e.placement.OffsetX - float64(b.Min.X)*s,
			0, s, e.placement.OffsetY - float64(b.Min.Y)*s,
		}
		xdraw.ApproxBiLinear.Transform(dst, m, e.source, b, xdraw.Over, nil)
	}

	c, r := v.Center(), v.Radius()
	bounds := dst.Bounds()
	scrim := utils.CircleMask(bounds, c.X, c.Y, r, true)
	draw.DrawMask(dst, bounds, image.NewUniform(scrimColor), image.Point{}, scrim, bounds.Min, draw.Over)

	ring := utils.DashedRingMask(bounds, c.X, c.Y, r, outlineWidth, dashLength, gapLength)
	draw.DrawMask(dst, bounds, image.NewUniform(accentColor), image.Point{}, ring, bounds.Min, draw.Over)

	for _, zone := range v.Handles() {
		rect := image.Rect(
			int(math.Round(zone.MinX)), int(math.Round(zone.MinY)),
			int(math.Round(zone.MaxX)), int(math.Round(zone.MaxY)),
		)
		utils.FillRect(dst, rect, accentColor)
		utils.FillRect(dst, rect.Inset(insetWidth), handleInset)
	}

	return dst
}
