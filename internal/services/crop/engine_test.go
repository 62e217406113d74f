package crop

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

const tolerance = 1e-9

func testViewport() Viewport {
	return Viewport{
		Width:             600,
		Height:            400,
		CropSize:          300,
		HandleSize:        20,
		MinScale:          0.5,
		MaxScale:          3.0,
		ResizeSensitivity: 0.01,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testViewport())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

// createSplitImage returns an image whose left half is red and right half blue.
func createSplitImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 255, 255})
			}
		}
	}
	return img
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestNewEngineRejectsInvalidViewport(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Viewport)
	}{
		{"circle taller than viewport", func(v *Viewport) { v.CropSize = 500 }},
		{"zero size", func(v *Viewport) { v.Width = 0 }},
		{"no handles", func(v *Viewport) { v.HandleSize = 0 }},
		{"inverted scale bounds", func(v *Viewport) { v.MinScale, v.MaxScale = 3, 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testViewport()
			tt.mutate(&v)
			if _, err := NewEngine(v); !errors.Is(err, ErrInvalidViewport) {
				t.Errorf("Expected ErrInvalidViewport, got %v", err)
			}
		})
	}
}

func TestLoadFitsShorterSide(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantScale     float64
		wantOffset    Point
	}{
		{"landscape", 2000, 1000, 0.3, Point{0, 50}},
		{"portrait", 1000, 2000, 0.3, Point{150, -100}},
		{"square", 400, 400, 0.75, Point{150, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			e.Load(image.NewNRGBA(image.Rect(0, 0, tt.width, tt.height)))

			p := e.Placement()
			if !almostEqual(p.Scale, tt.wantScale) {
				t.Errorf("Expected scale %v, got %v", tt.wantScale, p.Scale)
			}
			if !almostEqual(p.OffsetX, tt.wantOffset.X) || !almostEqual(p.OffsetY, tt.wantOffset.Y) {
				t.Errorf("Expected offset %+v, got (%v, %v)", tt.wantOffset, p.OffsetX, p.OffsetY)
			}

			shorter := math.Min(float64(tt.width), float64(tt.height))
			if !almostEqual(shorter*p.Scale, 300) {
				t.Errorf("Expected shorter side to cover crop side, got %v", shorter*p.Scale)
			}
		})
	}
}

func TestPan(t *testing.T) {
	e := newTestEngine(t)
	e.Load(image.NewNRGBA(image.Rect(0, 0, 400, 400)))

	e.PointerDown(Point{100, 100})
	if e.Mode() != ModeDragging {
		t.Fatalf("Expected dragging, got %s", e.Mode())
	}

	e.PointerMove(Point{130, 80})
	p := e.Placement()
	if !almostEqual(p.OffsetX, 180) || !almostEqual(p.OffsetY, 30) {
		t.Errorf("Expected offset (180, 30), got (%v, %v)", p.OffsetX, p.OffsetY)
	}

	// No clamping: the image may leave the viewport.
	e.PointerMove(Point{5000, -5000})
	p = e.Placement()
	if !almostEqual(p.OffsetX, 5050) || !almostEqual(p.OffsetY, -5050) {
		t.Errorf("Expected unclamped offset, got (%v, %v)", p.OffsetX, p.OffsetY)
	}

	e.PointerUp()
	e.PointerMove(Point{0, 0})
	if e.Placement() != p {
		t.Error("Expected pointer move after release to be ignored")
	}
}

func TestHandleResize(t *testing.T) {
	e := newTestEngine(t)
	e.Load(image.NewNRGBA(image.Rect(0, 0, 400, 400)))

	// Top-right corner of the crop circle's bounding box.
	e.PointerDown(Point{450, 50})
	if e.Mode() != ModeResizing {
		t.Fatalf("Expected resizing, got %s", e.Mode())
	}
	offset := e.Placement().Offset()

	e.PointerMove(Point{450, 150})
	if got := e.Placement().Scale; !almostEqual(got, 1.5) {
		t.Errorf("Expected scale 1.5, got %v", got)
	}
	if e.Placement().Offset() != offset {
		t.Error("Expected resize to keep the offset")
	}

	e.PointerLeave()
	if e.Mode() != ModeIdle {
		t.Errorf("Expected idle after leave, got %s", e.Mode())
	}
}

func TestResizeIsClamped(t *testing.T) {
	deltas := []float64{-100000, -500, -99, -50, -1, 0, 1, 25, 100, 250, 1000, 100000}

	for _, delta := range deltas {
		e := newTestEngine(t)
		e.Load(image.NewNRGBA(image.Rect(0, 0, 400, 400)))
		e.PointerDown(Point{150, 350})
		e.PointerMove(Point{150, 350 + delta})

		if s := e.Placement().Scale; s < 0.5 || s > 3.0 {
			t.Errorf("delta %v: scale %v outside [0.5, 3.0]", delta, s)
		}
	}
}

func TestHandleZonesCentredOnCorners(t *testing.T) {
	v := testViewport()

	for _, p := range []Point{{450, 50}, {459, 59}, {141, 341}, {150, 350}, {441, 350}} {
		if !v.OnHandle(p) {
			t.Errorf("Expected %+v to hit a handle", p)
		}
	}
	for _, p := range []Point{{300, 200}, {461, 50}, {150, 339.5}, {0, 0}} {
		if v.OnHandle(p) {
			t.Errorf("Expected %+v to miss every handle", p)
		}
	}
}

func TestSetScale(t *testing.T) {
	e := newTestEngine(t)

	e.SetScale(2)
	if e.Placement().Scale != 0 {
		t.Error("Expected SetScale without a source to be ignored")
	}

	e.Load(image.NewNRGBA(image.Rect(0, 0, 400, 400)))
	for _, tt := range []struct{ in, want float64 }{{2, 2}, {10, 3}, {0.1, 0.5}, {0.5, 0.5}} {
		e.SetScale(tt.in)
		if got := e.Placement().Scale; got != tt.want {
			t.Errorf("SetScale(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestCropRegionAndOutputSize(t *testing.T) {
	e := newTestEngine(t)
	e.Load(createSplitImage(400, 400))

	region := e.CropRegion()
	if !almostEqual(region.X, 0) || !almostEqual(region.Y, 0) || !almostEqual(region.Size, 400) {
		t.Errorf("Expected region {0 0 400}, got %+v", region)
	}

	for _, scale := range []float64{0.5, 0.75, 1, 1.7, 2.25, 3} {
		e.SetScale(scale)
		e.PointerDown(Point{300, 200})
		e.PointerMove(Point{300 + scale*13, 200 - scale*7})
		e.PointerUp()

		if got := e.CropRegion().Size; !almostEqual(got, 300/scale) {
			t.Errorf("scale %v: expected region size %v, got %v", scale, 300/scale, got)
		}

		out, err := e.Extract()
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if b := out.Bounds(); b.Dx() != 300 || b.Dy() != 300 {
			t.Errorf("scale %v: expected 300x300 output, got %dx%d", scale, b.Dx(), b.Dy())
		}
	}
}

func TestExtractPixels(t *testing.T) {
	e := newTestEngine(t)
	e.Load(createSplitImage(400, 400))

	out, err := e.Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	left := color.NRGBAModel.Convert(out.At(75, 150)).(color.NRGBA)
	if left.R < 240 || left.B > 15 || left.A != 255 {
		t.Errorf("Expected red on the left, got %+v", left)
	}
	right := color.NRGBAModel.Convert(out.At(225, 150)).(color.NRGBA)
	if right.B < 240 || right.R > 15 || right.A != 255 {
		t.Errorf("Expected blue on the right, got %+v", right)
	}

	if got := e.Source(); got == nil {
		t.Error("Expected extraction to keep the source")
	}
}

func TestExtractPannedOutside(t *testing.T) {
	e := newTestEngine(t)
	e.Load(createSplitImage(400, 400))
	e.PointerDown(Point{300, 200})
	e.PointerMove(Point{3000, 200})
	e.PointerUp()

	out, err := e.Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if _, _, _, a := out.At(150, 150).RGBA(); a != 0 {
		t.Errorf("Expected blank pixel when panned away, got alpha %d", a)
	}
}

func TestExtractWithoutSource(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Extract(); !errors.Is(err, ErrNoSource) {
		t.Errorf("Expected ErrNoSource, got %v", err)
	}
}

func TestReset(t *testing.T) {
	e := newTestEngine(t)
	e.Load(createSplitImage(40, 40))
	e.PointerDown(Point{10, 10})
	e.Reset()

	if e.Source() != nil {
		t.Error("Expected source to be dropped")
	}
	if e.Placement() != (Placement{}) {
		t.Errorf("Expected zero placement, got %+v", e.Placement())
	}
	if e.Mode() != ModeIdle {
		t.Errorf("Expected idle, got %s", e.Mode())
	}
}
