package ar

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	applog "roomfit/internal/log"
)

type TrackingState int

const (
	TrackingUnknown TrackingState = iota
	TrackingLimited
	TrackingRelocalizing
	TrackingNormal
)

func (t TrackingState) String() string {
	switch t {
	case TrackingLimited:
		return "limited"
	case TrackingRelocalizing:
		return "relocalizing"
	case TrackingNormal:
		return "normal"
	default:
		return "unknown"
	}
}

func ParseTracking(s string) TrackingState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "limited":
		return TrackingLimited
	case "relocalizing":
		return TrackingRelocalizing
	case "normal":
		return TrackingNormal
	default:
		return TrackingUnknown
	}
}

type PlacementState string

const (
	Unplaced PlacementState = "unplaced"
	Placed   PlacementState = "placed"
)

// Screen is what the native client should show for the session.
type Screen string

const (
	ScreenScene         Screen = "scene"
	ScreenModuleMissing Screen = "module-missing"
	ScreenLoadFailed    Screen = "load-failed"
)

// GestureContinuous is the rotate gesture phase between begin and end.
const GestureContinuous = 2

type LoadState string

const (
	LoadPending   LoadState = "pending"
	LoadSucceeded LoadState = "succeeded"
	LoadFailed    LoadState = "failed"
)

var (
	ErrSceneUnavailable = errors.New("AR scene is not available on this device")
	ErrNotPlaced        = errors.New("select a surface to place the object first")
	ErrSessionClosed    = errors.New("AR session has ended")
)

// RequiredBindings are the native modules the AR scene needs; any one of
// them being present counts as available.
var RequiredBindings = []string{"VRTARSceneNavigator", "VRTARSceneNavigatorModule", "VRTRenderingModule"}

// Capabilities is what the native client reports about itself at launch.
type Capabilities struct {
	Bindings      []string `json:"bindings"`
	LibraryLoaded bool     `json:"library_loaded"`
	LoadError     string   `json:"load_error,omitempty"`
}

// Probe picks the initial screen. A missing binding is terminal for the session.
func (c Capabilities) Probe() Screen {
	have := false
	for _, b := range c.Bindings {
		for _, r := range RequiredBindings {
			if b == r {
				have = true
			}
		}
	}
	if !have {
		return ScreenModuleMissing
	}
	if !c.LibraryLoaded {
		return ScreenLoadFailed
	}
	return ScreenScene
}

// LoadHooks fire at most once per session.
type LoadHooks struct {
	OnSuccess func(sessionID string)
	OnFailure func(sessionID, msg string)
}

// NativeState is a point-in-time copy of a native session.
type NativeState struct {
	ID         string         `json:"id"`
	Platform   Platform       `json:"platform"`
	Product    string         `json:"product"`
	Asset      AssetChoice    `json:"asset"`
	Screen     Screen         `json:"screen"`
	LoadError  string         `json:"load_error,omitempty"`
	Tracking   string         `json:"tracking"`
	Placement  PlacementState `json:"placement"`
	Pose       *Pose          `json:"pose,omitempty"`
	ModelLoad  LoadState      `json:"model_load"`
	ErrorLabel string         `json:"error_label,omitempty"`
	Closed     bool           `json:"closed"`
}

type NativeSession struct {
	mu sync.Mutex

	id        string
	product   string
	choice    AssetChoice
	screen    Screen
	libErr    string
	tracking  TrackingState
	placement PlacementState
	pose      Pose
	load      LoadState
	label     string
	closed    bool
	hooks     LoadHooks
}

func NewNativeSession(id, productName string, caps Capabilities, hooks LoadHooks) *NativeSession {
	s := &NativeSession{
		id:        id,
		product:   productName,
		choice:    SelectAsset(productName),
		screen:    caps.Probe(),
		tracking:  TrackingUnknown,
		placement: Unplaced,
		load:      LoadPending,
		hooks:     hooks,
	}
	if s.screen == ScreenLoadFailed {
		s.libErr = caps.LoadError
	}
	applog.Event("ar.native.launch", map[string]any{
		"session": id, "product": productName, "asset": s.choice.Asset, "scale": s.choice.Scale, "screen": s.screen,
	})
	return s
}

func (s *NativeSession) ID() string         { return s.id }
func (s *NativeSession) Platform() Platform { return PlatformNative }

func (s *NativeSession) usable() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.screen != ScreenScene {
		return ErrSceneUnavailable
	}
	return nil
}

// UpdateTracking records the reported state. Nothing is gated on it.
func (s *NativeSession) UpdateTracking(t TrackingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if t != s.tracking {
		applog.Event("ar.native.tracking", map[string]any{"session": s.id, "from": s.tracking.String(), "to": t.String()})
	}
	s.tracking = t
	return nil
}

// PlaceObject anchors the object at a selected plane position. Only the
// first selection places; later ones report false.
func (s *NativeSession) PlaceObject(at Vec3) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return false, err
	}
	if s.placement == Placed {
		return false, nil
	}
	s.placement = Placed
	s.pose = Pose{Position: at, Scale: uniform(s.choice.Scale)}
	applog.Event("ar.native.placed", map[string]any{"session": s.id, "position": at, "tracking": s.tracking.String()})
	return true, nil
}

func (s *NativeSession) MutatePose(m Mutation) (Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return Pose{}, err
	}
	if s.placement != Placed {
		return Pose{}, ErrNotPlaced
	}

	switch m := m.(type) {
	case Rotate:
		if m.GestureState == GestureContinuous {
			s.pose.Rotation[1] += m.Factor
		}
	case SetScale:
		s.pose.Scale = uniform(clampScale(m.Value))
	case StepScale:
		v := s.pose.Scale[0]
		switch {
		case m.Dir > 0:
			v += ScaleStep
		case m.Dir < 0:
			v -= ScaleStep
		}
		s.pose.Scale = uniform(clampScale(math.Round(v*1000) / 1000))
	case Drag:
		s.pose.Position = m.Position
	default:
		return s.pose, fmt.Errorf("unsupported pose mutation %T", m)
	}
	return s.pose, nil
}

// ModelLoaded reports a successful asset load. The confirmation hook fires once.
func (s *NativeSession) ModelLoaded() {
	s.mu.Lock()
	fire := s.load == LoadPending && !s.closed
	if fire {
		s.load = LoadSucceeded
	}
	hook := s.hooks.OnSuccess
	s.mu.Unlock()

	if fire {
		applog.Event("ar.native.model_loaded", map[string]any{"session": s.id, "asset": s.choice.Asset})
		if hook != nil {
			hook(s.id)
		}
	}
}

// ModelFailed reports an asset load error. Errors after a success are
// dropped; the failure hook fires once.
func (s *NativeSession) ModelFailed(msg string) {
	s.mu.Lock()
	fire := s.load == LoadPending && !s.closed
	if fire {
		s.load = LoadFailed
		s.label = "Failed to load 3D model"
		if msg != "" {
			s.label += ": " + msg
		}
	}
	hook := s.hooks.OnFailure
	s.mu.Unlock()

	if fire {
		applog.Fail("ar.native.model_failed", errors.New(msg), map[string]any{"session": s.id, "asset": s.choice.Asset})
		if hook != nil {
			hook(s.id, msg)
		}
	}
}

func (s *NativeSession) State() any { return s.Snapshot() }

func (s *NativeSession) Snapshot() NativeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := NativeState{
		ID:         s.id,
		Platform:   PlatformNative,
		Product:    s.product,
		Asset:      s.choice,
		Screen:     s.screen,
		LoadError:  s.libErr,
		Tracking:   s.tracking.String(),
		Placement:  s.placement,
		ModelLoad:  s.load,
		ErrorLabel: s.label,
		Closed:     s.closed,
	}
	if s.placement == Placed {
		p := s.pose
		st.Pose = &p
	}
	return st
}

// Teardown discards the pose. Later calls are no-ops.
func (s *NativeSession) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.pose = Pose{}
	applog.Event("ar.native.teardown", map[string]any{"session": s.id})
	return nil
}
