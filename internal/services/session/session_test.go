package session

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/phambaophuc/flyer-maker/internal/services/compositor"
	"github.com/phambaophuc/flyer-maker/internal/services/crop"
	"github.com/phambaophuc/flyer-maker/internal/services/processor"
)

type stubTemplates struct {
	img image.Image
	err error
}

func (s stubTemplates) Template() (image.Image, error) { return s.img, s.err }

func testDependencies(t *testing.T, templates TemplateProvider) Dependencies {
	t.Helper()
	comp, err := compositor.New(compositor.Layout{
		Width: 1080, Height: 1080, CircleX: 540, CircleY: 415, CircleRadius: 240,
		FileName: "CCIC-Camp-Meeting-2025-Flyer.png",
	})
	if err != nil {
		t.Fatalf("compositor.New failed: %v", err)
	}
	return Dependencies{
		Viewport: crop.Viewport{
			Width: 600, Height: 400, CropSize: 300, HandleSize: 20,
			MinScale: 0.5, MaxScale: 3, ResizeSensitivity: 0.01,
		},
		Compositor: comp,
		Processor:  processor.NewImageProcessor(10 * 1024 * 1024),
		Templates:  templates,
	}
}

func background() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 1080, 1080))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func newTestManager(t *testing.T, templates TemplateProvider) *Manager {
	t.Helper()
	m, err := NewManager(testDependencies(t, templates), time.Minute)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := newTestManager(t, stubTemplates{img: background()}).Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return s
}

func jpegUpload(t *testing.T, width, height int) Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), 90, uint8(y % 256), 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return Upload{FileName: "me.jpg", MediaType: "image/jpeg", Size: int64(buf.Len()), Body: &buf}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{StateInitial, TriggerSelectFile, StateCropping, false},
		{StateCropping, TriggerConfirm, StateCompositing, false},
		{StateCompositing, TriggerComposed, StateReady, false},
		{StateCompositing, TriggerFail, StateInitial, false},
		{StateCropping, TriggerCancel, StateInitial, false},
		{StateReady, TriggerReset, StateInitial, false},
		{StateInitial, TriggerConfirm, StateInitial, true},
		{StateCropping, TriggerSelectFile, StateCropping, true},
		{StateReady, TriggerCancel, StateReady, true},
		{StateCropping, TriggerReset, StateCropping, true},
	}

	for _, tt := range tests {
		got, err := tt.from.Next(tt.trigger)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s --%s--> error = %v, wantErr %v", tt.from, tt.trigger, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition, got %v", err)
		}
		if got != tt.want {
			t.Errorf("%s --%s--> %s, want %s", tt.from, tt.trigger, got, tt.want)
		}
	}
}

func TestEndToEnd(t *testing.T) {
	s := newTestSession(t)

	if err := s.SelectFile(jpegUpload(t, 2000, 1000)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	view := s.View()
	if view.State != StateCropping {
		t.Fatalf("Expected cropping, got %s", view.State)
	}
	if view.Placement == nil || math.Abs(view.Placement.Scale-0.3) > 1e-9 {
		t.Fatalf("Expected initial scale 0.3, got %+v", view.Placement)
	}

	if err := s.Confirm(); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if s.State() != StateReady {
		t.Fatalf("Expected ready, got %s", s.State())
	}

	if b := s.Cropped().Bounds(); b.Dx() != 300 || b.Dy() != 300 {
		t.Errorf("Expected 300x300 crop, got %dx%d", b.Dx(), b.Dy())
	}

	artifact, err := s.Artifact()
	if err != nil {
		t.Fatalf("Artifact failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(artifact.Data))
	if err != nil {
		t.Fatalf("artifact is not a PNG: %v", err)
	}
	if cfg.Width != 1080 || cfg.Height != 1080 {
		t.Errorf("Expected 1080x1080 flyer, got %dx%d", cfg.Width, cfg.Height)
	}
	if artifact.Width != 1080 || artifact.Height != 1080 {
		t.Errorf("Expected artifact size 1080x1080, got %dx%d", artifact.Width, artifact.Height)
	}
	if s.engine.Source() != nil {
		t.Error("Expected source to be released after compositing")
	}
}

func TestSelectFileRejections(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{
			name:    "not an image",
			upload:  Upload{FileName: "notes.txt", MediaType: "text/plain", Size: 10, Body: strings.NewReader("hello")},
			wantErr: ErrInvalidFileType,
		},
		{
			name:    "too large",
			upload:  Upload{FileName: "big.jpg", MediaType: "image/jpeg", Size: 10*1024*1024 + 1, Body: strings.NewReader("")},
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "undecodable",
			upload:  Upload{FileName: "broken.png", MediaType: "image/png", Size: 5, Body: strings.NewReader("nope!")},
			wantErr: ErrImageDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			err := s.SelectFile(tt.upload)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}

			view := s.View()
			if view.State != StateInitial {
				t.Errorf("Expected initial, got %s", view.State)
			}
			if view.Error == "" {
				t.Error("Expected error to be surfaced on the view")
			}
			if view.Upload != nil {
				t.Error("Expected no upload to be retained")
			}
		})
	}
}

func TestCancel(t *testing.T) {
	s := newTestSession(t)
	if err := s.SelectFile(jpegUpload(t, 400, 300)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}

	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	view := s.View()
	if view.State != StateInitial {
		t.Errorf("Expected initial, got %s", view.State)
	}
	if view.Placement != nil || view.Upload != nil {
		t.Errorf("Expected cleared view, got %+v", view)
	}
	if s.engine.Source() != nil {
		t.Error("Expected source image reference to be dropped")
	}
	if err := s.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second cancel, got %v", err)
	}
}

func TestReset(t *testing.T) {
	s := newTestSession(t)
	if err := s.SelectFile(jpegUpload(t, 400, 300)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if err := s.Reset(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected reset during cropping to be rejected, got %v", err)
	}
	if err := s.Confirm(); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	view := s.View()
	if view.State != StateInitial || view.HasArtifact || view.Upload != nil {
		t.Errorf("Expected clean initial session, got %+v", view)
	}
	if _, err := s.Artifact(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected no artifact after reset, got %v", err)
	}
	if s.Cropped() != nil {
		t.Error("Expected cropped image to be dropped")
	}

	// A new pipeline can start again.
	if err := s.SelectFile(jpegUpload(t, 100, 100)); err != nil {
		t.Errorf("Expected new selection after reset, got %v", err)
	}
}

func TestConfirmWithoutTemplate(t *testing.T) {
	m := newTestManager(t, stubTemplates{err: errors.New("still loading")})
	s, _ := m.Create()

	if err := s.SelectFile(jpegUpload(t, 400, 300)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}

	err := s.Confirm()
	if !errors.Is(err, ErrTemplateUnavailable) {
		t.Fatalf("Expected ErrTemplateUnavailable, got %v", err)
	}

	view := s.View()
	if view.State != StateInitial {
		t.Errorf("Expected initial after failure, got %s", view.State)
	}
	if view.Error == "" {
		t.Error("Expected failure to be surfaced")
	}
	if s.engine.Source() != nil {
		t.Error("Expected source to be dropped after failure")
	}
}

func TestInputOutsideCropping(t *testing.T) {
	s := newTestSession(t)

	if _, err := s.Pointer(PointerDown, crop.Point{X: 1, Y: 1}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for pointer, got %v", err)
	}
	if _, err := s.SetScale(1); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for scale, got %v", err)
	}
	if _, err := s.Preview(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for preview, got %v", err)
	}
	if err := s.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for confirm, got %v", err)
	}
	if s.State() != StateInitial {
		t.Errorf("Expected state to stay initial, got %s", s.State())
	}
}

func TestPointerAndScale(t *testing.T) {
	s := newTestSession(t)
	if err := s.SelectFile(jpegUpload(t, 400, 400)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}

	if _, err := s.Pointer(PointerDown, crop.Point{X: 300, Y: 200}); err != nil {
		t.Fatalf("Pointer down failed: %v", err)
	}
	if mode := s.View().Mode; mode != "dragging" {
		t.Errorf("Expected dragging, got %q", mode)
	}

	p, err := s.Pointer(PointerMove, crop.Point{X: 310, Y: 220})
	if err != nil {
		t.Fatalf("Pointer move failed: %v", err)
	}
	if p.OffsetX != 160 || p.OffsetY != 70 {
		t.Errorf("Expected offset (160, 70), got (%v, %v)", p.OffsetX, p.OffsetY)
	}

	if _, err := s.Pointer(PointerKind("wheel"), crop.Point{}); err == nil {
		t.Error("Expected unknown pointer event to fail")
	}
	if _, err := s.Pointer(PointerUp, crop.Point{}); err != nil {
		t.Fatalf("Pointer up failed: %v", err)
	}

	p, err = s.SetScale(5)
	if err != nil {
		t.Fatalf("SetScale failed: %v", err)
	}
	if p.Scale != 3 {
		t.Errorf("Expected clamped scale 3, got %v", p.Scale)
	}

	preview, err := s.Preview()
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if b := preview.Bounds(); b.Dx() != 600 || b.Dy() != 400 {
		t.Errorf("Expected 600x400 preview, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestExport(t *testing.T) {
	s := newTestSession(t)

	var buf bytes.Buffer
	if err := s.Export(&buf, processor.FormatPDF); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected export before ready to fail, got %v", err)
	}

	if err := s.SelectFile(jpegUpload(t, 300, 500)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if err := s.Confirm(); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	if err := s.Export(&buf, processor.FormatPDF); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("Expected PDF output")
	}
}

func TestRejectUploadKeepsState(t *testing.T) {
	s := newTestSession(t)

	err := s.RejectUpload(fmt.Errorf("%w: request body exceeds %d bytes", ErrFileTooLarge, 11<<20))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Expected ErrFileTooLarge, got %v", err)
	}

	view := s.View()
	if view.State != StateInitial {
		t.Errorf("Expected initial, got %s", view.State)
	}
	if !strings.Contains(view.Error, ErrFileTooLarge.Error()) {
		t.Errorf("Expected recorded error, got %q", view.Error)
	}
}
