package session

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/phambaophuc/flyer-maker/internal/services/compositor"
	"github.com/phambaophuc/flyer-maker/internal/services/crop"
	"github.com/phambaophuc/flyer-maker/internal/services/processor"
)

// TemplateProvider supplies the flyer background.
type TemplateProvider interface {
	Template() (image.Image, error)
}

// Upload is a user-selected photo.
type Upload struct {
	FileName  string
	MediaType string
	Size      int64
	Body      io.Reader
}

type UploadInfo struct {
	FileName  string `json:"file_name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
}

// Artifact is the encoded flyer held for download.
type Artifact struct {
	Data        []byte
	Format      string
	Width       int
	Height      int
	GeneratedAt time.Time
}

type PointerKind string

const (
	PointerDown  PointerKind = "down"
	PointerMove  PointerKind = "move"
	PointerUp    PointerKind = "up"
	PointerLeave PointerKind = "leave"
)

// View is a read-only snapshot of a session.
type View struct {
	ID          string          `json:"id"`
	State       State           `json:"state"`
	Placement   *crop.Placement `json:"placement,omitempty"`
	Mode        string          `json:"mode,omitempty"`
	MinScale    float64         `json:"min_scale"`
	MaxScale    float64         `json:"max_scale"`
	Upload      *UploadInfo     `json:"upload,omitempty"`
	HasArtifact bool            `json:"has_artifact"`
	Error       string          `json:"error,omitempty"`
	LastActive  time.Time       `json:"last_active"`
}

// Session owns one user's pipeline. All methods serialize on the session,
// so only one operation is ever in flight.
type Session struct {
	mu sync.Mutex

	id         string
	state      State
	engine     *crop.Engine
	compositor *compositor.Compositor
	processor  *processor.ImageProcessor
	templates  TemplateProvider
	now        func() time.Time

	upload     *UploadInfo
	cropped    image.Image
	flyer      image.Image
	artifact   *Artifact
	lastErr    string
	lastActive time.Time
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	vp := s.engine.Viewport()
	v := View{
		ID:          s.id,
		State:       s.state,
		MinScale:    vp.MinScale,
		MaxScale:    vp.MaxScale,
		Upload:      s.upload,
		HasArtifact: s.artifact != nil,
		Error:       s.lastErr,
		LastActive:  s.lastActive,
	}
	if s.state == StateCropping {
		p := s.engine.Placement()
		v.Placement = &p
		v.Mode = s.engine.Mode().String()
	}
	return v
}

// SelectFile validates and decodes an upload and starts cropping it.
func (s *Session) SelectFile(u Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if _, err := s.state.Next(TriggerSelectFile); err != nil {
		return s.record(err)
	}

	if err := s.processor.ValidateUpload(u.MediaType, u.Size); err != nil {
		switch {
		case errors.Is(err, processor.ErrFileTooLarge):
			return s.record(fmt.Errorf("%w: %w", ErrFileTooLarge, err))
		default:
			return s.record(fmt.Errorf("%w: %w", ErrInvalidFileType, err))
		}
	}

	img, err := s.processor.Decode(u.Body)
	if err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrImageDecode, err))
	}

	s.engine.Load(img)
	s.upload = &UploadInfo{FileName: u.FileName, MediaType: u.MediaType, Size: u.Size}
	s.lastErr = ""
	return s.transition(TriggerSelectFile)
}

// RejectUpload records an upload refused before its bytes could be read.
// The state is left unchanged.
func (s *Session) RejectUpload(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	return s.record(err)
}

// Pointer feeds a pointer event to the crop engine.
func (s *Session) Pointer(kind PointerKind, p crop.Point) (crop.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateCropping {
		return crop.Placement{}, s.record(fmt.Errorf("%w: pointer input while %s", ErrInvalidTransition, s.state))
	}

	switch kind {
	case PointerDown:
		s.engine.PointerDown(p)
	case PointerMove:
		s.engine.PointerMove(p)
	case PointerUp:
		s.engine.PointerUp()
	case PointerLeave:
		s.engine.PointerLeave()
	default:
		return s.engine.Placement(), fmt.Errorf("unknown pointer event %q", kind)
	}

	return s.engine.Placement(), nil
}

// SetScale applies the slider value.
func (s *Session) SetScale(scale float64) (crop.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateCropping {
		return crop.Placement{}, s.record(fmt.Errorf("%w: scale input while %s", ErrInvalidTransition, s.state))
	}

	s.engine.SetScale(scale)
	return s.engine.Placement(), nil
}

// Preview renders the crop viewport.
func (s *Session) Preview() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateCropping {
		return nil, fmt.Errorf("%w: no preview while %s", ErrInvalidTransition, s.state)
	}
	return s.engine.Render(), nil
}

// Confirm extracts the crop and composites the flyer. On any failure the
// session returns to StateInitial with its images dropped.
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.transition(TriggerConfirm); err != nil {
		return s.record(err)
	}

	cropped, err := s.engine.Extract()
	if err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrCompositeFailure, err))
	}

	background, err := s.templates.Template()
	if err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrTemplateUnavailable, err))
	}

	flyer, err := s.compositor.Compose(background, cropped)
	if err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrCompositeFailure, err))
	}

	var buf bytes.Buffer
	if err := s.processor.Encode(&buf, flyer, processor.FormatPNG, 0); err != nil {
		return s.fail(fmt.Errorf("%w: %w", ErrCompositeFailure, err))
	}

	s.engine.Reset()
	s.cropped = cropped
	s.flyer = flyer
	s.artifact = &Artifact{
		Data:        buf.Bytes(),
		Format:      processor.FormatPNG,
		Width:       flyer.Bounds().Dx(),
		Height:      flyer.Bounds().Dy(),
		GeneratedAt: s.now(),
	}
	s.lastErr = ""
	return s.transition(TriggerComposed)
}

// Cancel abandons cropping and drops the source image.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.transition(TriggerCancel); err != nil {
		return s.record(err)
	}
	s.clear()
	return nil
}

// Reset discards the generated flyer and returns to StateInitial.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.transition(TriggerReset); err != nil {
		return s.record(err)
	}
	s.clear()
	return nil
}

// Cropped returns the crop result kept alongside the flyer.
func (s *Session) Cropped() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cropped
}

// Artifact returns the encoded PNG flyer.
func (s *Session) Artifact() (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady || s.artifact == nil {
		return Artifact{}, fmt.Errorf("%w: no flyer while %s", ErrInvalidTransition, s.state)
	}
	return *s.artifact, nil
}

// Export encodes the generated flyer in another format.
func (s *Session) Export(w io.Writer, format string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateReady || s.flyer == nil {
		return fmt.Errorf("%w: no flyer while %s", ErrInvalidTransition, s.state)
	}
	if format == processor.FormatPNG {
		_, err := w.Write(s.artifact.Data)
		return err
	}
	return s.processor.Encode(w, s.flyer, format, 0)
}

func (s *Session) transition(t Trigger) error {
	next, err := s.state.Next(t)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Session) fail(err error) error {
	s.clear()
	s.state = StateInitial
	return s.record(err)
}

func (s *Session) record(err error) error {
	s.lastErr = err.Error()
	return err
}

func (s *Session) clear() {
	s.engine.Reset()
	s.upload = nil
	s.cropped = nil
	s.flyer = nil
	s.artifact = nil
	s.lastErr = ""
}

func (s *Session) touch() {
	s.lastActive = s.now()
}
