package ar

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	applog "roomfit/internal/log"
)

var ErrPoseDelegated = errors.New("pose is controlled by the model viewer's built-in controls")

// ModelSigner turns an asset bucket key into a fetchable URL.
type ModelSigner interface {
	PresignModel(ctx context.Context, key string) (string, error)
}

var reObjectKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9!_.*'()/-]*$`)

type ModelResolver struct {
	Signer   ModelSigner // nil without an asset bucket
	Fallback string
}

// Resolve keeps http(s) URLs, presigns bare bucket keys and falls back to
// the bundled model for everything else.
func (r ModelResolver) Resolve(ctx context.Context, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return r.Fallback
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https") {
		return raw
	}
	if strings.Contains(raw, "://") || strings.Contains(raw, "..") || !reObjectKey.MatchString(raw) {
		return r.Fallback
	}
	if r.Signer == nil {
		return r.Fallback
	}
	signed, err := r.Signer.PresignModel(ctx, raw)
	if err != nil {
		applog.Fail("ar.web.presign", err, map[string]any{"key": raw})
		return r.Fallback
	}
	return signed
}

// Viewer is one configured <model-viewer> element.
type Viewer struct {
	Src string
	Alt string
}

var viewerTmpl = template.Must(template.New("model-viewer").Parse(
	`<model-viewer src="{{.Src}}" alt="{{.Alt}}" ar ar-modes="webxr scene-viewer quick-look" camera-controls auto-rotate shadow-intensity="1" loading="eager" exposure="1">` +
		`<button slot="ar-button" class="ar-button">View in Your Space</button>` +
		`</model-viewer>`))

func (v Viewer) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := viewerTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Library registers the model-viewer custom element once per process.
type Library struct {
	Src   string
	once  sync.Once
	count atomic.Int32
}

func NewLibrary(src string) *Library { return &Library{Src: src} }

// Register is idempotent and returns the script source to load.
func (l *Library) Register() string {
	l.once.Do(func() {
		l.count.Add(1)
		applog.Event("ar.web.library_registered", map[string]any{"src": l.Src})
	})
	return l.Src
}

func (l *Library) Registered() bool   { return l.count.Load() > 0 }
func (l *Library) Registrations() int { return int(l.count.Load()) }

// Stage holds the mounted viewer elements, one per web session.
type Stage struct {
	mu      sync.Mutex
	mounted map[string]Viewer
}

func NewStage() *Stage { return &Stage{mounted: map[string]Viewer{}} }

func (s *Stage) Mount(id string, v Viewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted[id] = v
}

func (s *Stage) Unmount(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mounted[id]
	delete(s.mounted, id)
	return ok
}

func (s *Stage) Element(id string) (Viewer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.mounted[id]
	return v, ok
}

func (s *Stage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mounted)
}

type WebState struct {
	ID       string   `json:"id"`
	Platform Platform `json:"platform"`
	Product  string   `json:"product"`
	ModelURL string   `json:"model_url"`
	Mounted  bool     `json:"mounted"`
	Closed   bool     `json:"closed"`
}

// WebPage is what the model-viewer page template needs.
type WebPage struct {
	Title  string
	Script string
	Viewer template.HTML
}

type WebSession struct {
	mu sync.Mutex

	id      string
	product string
	viewer  Viewer
	lib     *Library
	stage   *Stage
	mounted bool
	closed  bool
}

func NewWebSession(id, productName, modelURL string, lib *Library, stage *Stage) *WebSession {
	return &WebSession{
		id:      id,
		product: productName,
		viewer:  Viewer{Src: modelURL, Alt: productName},
		lib:     lib,
		stage:   stage,
	}
}

func (s *WebSession) ID() string         { return s.id }
func (s *WebSession) Platform() Platform { return PlatformWeb }

// PlaceObject mounts the viewer after the library is registered. The
// position is ignored; the element places itself.
func (s *WebSession) PlaceObject(Vec3) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrSessionClosed
	}
	if s.mounted {
		return false, nil
	}
	s.lib.Register()
	s.stage.Mount(s.id, s.viewer)
	s.mounted = true
	return true, nil
}

func (s *WebSession) MutatePose(Mutation) (Pose, error) { return Pose{}, ErrPoseDelegated }

// Page mounts on first use and renders the element for the page template.
func (s *WebSession) Page() (WebPage, error) {
	if _, err := s.PlaceObject(Vec3{}); err != nil {
		return WebPage{}, err
	}
	h, err := s.viewer.HTML()
	if err != nil {
		return WebPage{}, err
	}
	return WebPage{Title: s.product, Script: s.lib.Register(), Viewer: h}, nil
}

func (s *WebSession) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WebState{
		ID:       s.id,
		Platform: PlatformWeb,
		Product:  s.product,
		ModelURL: s.viewer.Src,
		Mounted:  s.mounted,
		Closed:   s.closed,
	}
}

// Teardown detaches the element from the stage.
func (s *WebSession) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.stage.Unmount(s.id)
	s.mounted = false
	s.closed = true
	return nil
}
