package analyzer

import (
	"context"
	"errors"
	"sync"
)

type Source string

const (
	SourceCamera  Source = "camera"
	SourceGallery Source = "gallery"
)

// Permissions are probed once when the screen opens.
type Permissions struct {
	Camera  bool `json:"camera"`
	Gallery bool `json:"gallery"`
}

func (p Permissions) allows(s Source) bool {
	switch s {
	case SourceCamera:
		return p.Camera
	case SourceGallery:
		return p.Gallery
	}
	return false
}

type PermissionError struct{ Source Source }

func (e *PermissionError) Error() string {
	if e.Source == SourceCamera {
		return "Please grant camera permissions to use this feature"
	}
	return "Please grant media library permissions to use this feature"
}

var (
	ErrNoImage       = errors.New("Please capture or select an image first")
	ErrBusy          = errors.New("analysis already in progress")
	ErrDiscarded     = errors.New("analysis result discarded")
	ErrSessionClosed = errors.New("analysis session has ended")
)

type Phase string

const (
	PhaseSelectImage Phase = "select-image"
	PhaseReady       Phase = "ready"
	PhaseAnalyzing   Phase = "analyzing"
	PhaseComplete    Phase = "complete"
)

type SessionState struct {
	ID          string      `json:"id"`
	Product     string      `json:"product"`
	Permissions Permissions `json:"permissions"`
	Phase       Phase       `json:"phase"`
	HasImage    bool        `json:"has_image"`
	Result      *Result     `json:"result,omitempty"`
}

// Session is one analyzer screen. Its context lives until Close, and any
// result that arrives after the image changed or the session closed is dropped.
type Session struct {
	mu sync.Mutex

	id       string
	product  ProductDetails
	perms    Permissions
	analyzer *Analyzer

	ctx    context.Context
	cancel context.CancelFunc

	image  *Image
	result *Result
	phase  Phase
	gen    int
	closed bool
}

func (a *Analyzer) NewSession(id string, p ProductDetails, perms Permissions) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:       id,
		product:  p,
		perms:    perms,
		analyzer: a,
		ctx:      ctx,
		cancel:   cancel,
		phase:    PhaseSelectImage,
	}
}

func (s *Session) ID() string { return s.id }

// SetImage replaces the current image and clears any previous result.
func (s *Session) SetImage(src Source, img Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if !s.perms.allows(src) {
		return &PermissionError{Source: src}
	}
	s.image = &img
	s.result = nil
	s.phase = PhaseReady
	s.gen++
	return nil
}

// Analyze runs on the session's context; reqCtx ending also cancels the call.
func (s *Session) Analyze(reqCtx context.Context) (Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{}, ErrSessionClosed
	}
	if s.image == nil {
		s.mu.Unlock()
		return Result{}, ErrNoImage
	}
	if s.phase == PhaseAnalyzing {
		s.mu.Unlock()
		return Result{}, ErrBusy
	}
	img, gen := *s.image, s.gen
	s.phase = PhaseAnalyzing
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(reqCtx, cancel)
	defer stop()

	res := s.analyzer.Analyze(ctx, img, s.product)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen {
		return Result{}, ErrDiscarded
	}
	s.result = &res
	s.phase = PhaseComplete
	return res, nil
}

// Discard drops the image and result and returns to image selection.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
	s.result = nil
	s.phase = PhaseSelectImage
	s.gen++
}

// Close cancels any in-flight call. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.image = nil
	s.result = nil
	s.cancel()
}

func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SessionState{
		ID:          s.id,
		Product:     s.product.Name,
		Permissions: s.perms,
		Phase:       s.phase,
		HasImage:    s.image != nil,
	}
	if s.result != nil {
		r := *s.result
		st.Result = &r
	}
	return st
}
