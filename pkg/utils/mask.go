package utils

import (
	"image"
	"math"

	"golang.org/x/image/vector"
)

// CircleMask rasterizes an anti-aliased circle into an alpha mask covering
// bounds. With outside set the mask covers everything but the circle.
func CircleMask(bounds image.Rectangle, cx, cy, r float64, outside bool) *image.Alpha {
	if bounds.Empty() {
		return image.NewAlpha(bounds)
	}
	z, ox, oy := newRasterizer(bounds)
	if outside {
		w, h := float32(bounds.Dx()), float32(bounds.Dy())
		z.MoveTo(0, 0)
		z.LineTo(w, 0)
		z.LineTo(w, h)
		z.LineTo(0, h)
		z.ClosePath()
	}
	circle(z, cx-ox, cy-oy, r, outside)
	return rasterize(z, bounds)
}

// RingMask rasterizes an annulus of half-width half around radius r.
func RingMask(bounds image.Rectangle, cx, cy, r, half float64) *image.Alpha {
	if bounds.Empty() {
		return image.NewAlpha(bounds)
	}
	z, ox, oy := newRasterizer(bounds)
	circle(z, cx-ox, cy-oy, r+half, false)
	if inner := r - half; inner > 0 {
		circle(z, cx-ox, cy-oy, inner, true)
	}
	return rasterize(z, bounds)
}

// DashedRingMask rasterizes a ring of the given stroke width broken into
// dashes measured along the arc, starting at angle zero.
func DashedRingMask(bounds image.Rectangle, cx, cy, r, width, dash, gap float64) *image.Alpha {
	if bounds.Empty() || r <= 0 || dash <= 0 {
		return image.NewAlpha(bounds)
	}
	z, ox, oy := newRasterizer(bounds)
	cx, cy = cx-ox, cy-oy
	outer, inner := r+width/2, math.Max(0, r-width/2)

	step := (dash + gap) / r
	for a0 := 0.0; a0 < 2*math.Pi; a0 += step {
		a1 := math.Min(a0+dash/r, 2*math.Pi)
		moveTo(z, cx+outer*math.Cos(a0), cy+outer*math.Sin(a0))
		arc(z, cx, cy, outer, a0, a1)
		lineTo(z, cx+inner*math.Cos(a1), cy+inner*math.Sin(a1))
		arc(z, cx, cy, inner, a1, a0)
		z.ClosePath()
	}
	return rasterize(z, bounds)
}

func newRasterizer(bounds image.Rectangle) (*vector.Rasterizer, float64, float64) {
	return vector.NewRasterizer(bounds.Dx(), bounds.Dy()), float64(bounds.Min.X), float64(bounds.Min.Y)
}

func rasterize(z *vector.Rasterizer, bounds image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(bounds)
	z.Draw(mask, bounds, image.Opaque, image.Point{})
	return mask
}

// circle adds a closed circular subpath. Reversed subpaths cancel coverage
// of forward ones, which is how holes are cut.
func circle(z *vector.Rasterizer, cx, cy, r float64, reverse bool) {
	moveTo(z, cx+r, cy)
	if reverse {
		arc(z, cx, cy, r, 2*math.Pi, 0)
	} else {
		arc(z, cx, cy, r, 0, 2*math.Pi)
	}
	z.ClosePath()
}

// arc appends cubic Béziers approximating the arc from a0 to a1, starting at
// the pen's current position. Each segment spans at most a quarter turn.
func arc(z *vector.Rasterizer, cx, cy, r, a0, a1 float64) {
	sweep := a1 - a0
	n := int(math.Ceil(math.Abs(sweep) / (math.Pi / 2)))
	if n == 0 {
		return
	}
	step := sweep / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4) * r

	for i := 0; i < n; i++ {
		s := a0 + float64(i)*step
		e := s + step
		sx, sy := math.Cos(s), math.Sin(s)
		ex, ey := math.Cos(e), math.Sin(e)
		z.CubeTo(
			float32(cx+r*sx-k*sy), float32(cy+r*sy+k*sx),
			float32(cx+r*ex+k*ey), float32(cy+r*ey-k*ex),
			float32(cx+r*ex), float32(cy+r*ey),
		)
	}
}

func moveTo(z *vector.Rasterizer, x, y float64) { z.MoveTo(float32(x), float32(y)) }

func lineTo(z *vector.Rasterizer, x, y float64) { z.LineTo(float32(x), float32(y)) }
