// Package ar holds per-session AR placement state. Rendering and tracking
// happen on the client; sessions here consume the events it reports.
package ar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"roomfit/internal/domain"
	applog "roomfit/internal/log"
	"roomfit/internal/registry"
)

type Platform string

const (
	PlatformNative Platform = "native"
	PlatformWeb    Platform = "web"
)

var ErrUnknownSession = errors.New("AR session not found")

func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformNative, "ios", "android":
		return PlatformNative, nil
	case PlatformWeb:
		return PlatformWeb, nil
	}
	return "", fmt.Errorf("unknown AR platform %q", s)
}

// Placer is the shared surface of native and web AR sessions.
type Placer interface {
	ID() string
	Platform() Platform
	PlaceObject(at Vec3) (bool, error)
	MutatePose(m Mutation) (Pose, error)
	Teardown() error
	State() any
}

var (
	_ Placer = (*NativeSession)(nil)
	_ Placer = (*WebSession)(nil)
)

// LaunchInfo is the AR data shipped with a product detail response.
type LaunchInfo struct {
	Native      AssetChoice `json:"native"`
	WebModelURL string      `json:"web_model_url"`
}

type Engine struct {
	resolver ModelResolver
	lib      *Library
	stage    *Stage
	hooks    LoadHooks
	sessions *registry.Registry[Placer]
}

func NewEngine(resolver ModelResolver, lib *Library) *Engine {
	return &Engine{
		resolver: resolver,
		lib:      lib,
		stage:    NewStage(),
		sessions: registry.New[Placer](),
		hooks: LoadHooks{
			OnSuccess: func(id string) { applog.Event("ar.load.confirmed", map[string]any{"session": id}) },
			OnFailure: func(id, msg string) {
				applog.Event("ar.load.failed", map[string]any{"session": id, "msg": msg})
			},
		},
	}
}

func (e *Engine) Info(ctx context.Context, p domain.Product) LaunchInfo {
	return LaunchInfo{Native: SelectAsset(p.Name), WebModelURL: e.resolver.Resolve(ctx, p.ModelURL)}
}

// Launch starts the session variant for the client's platform.
func (e *Engine) Launch(ctx context.Context, platform Platform, p domain.Product, caps Capabilities) (Placer, error) {
	switch platform {
	case PlatformNative:
		_, s, err := e.sessions.Add(func(id string) Placer {
			return NewNativeSession(id, p.Name, caps, e.hooks)
		})
		return s, err
	case PlatformWeb:
		src := e.resolver.Resolve(ctx, p.ModelURL)
		_, s, err := e.sessions.Add(func(id string) Placer {
			return NewWebSession(id, p.Name, src, e.lib, e.stage)
		})
		return s, err
	}
	return nil, fmt.Errorf("unknown AR platform %q", platform)
}

func (e *Engine) Session(id string) (Placer, bool) { return e.sessions.Get(id) }

// End tears the session down and forgets it.
func (e *Engine) End(id string) error {
	s, ok := e.sessions.Remove(id)
	if !ok {
		return ErrUnknownSession
	}
	return s.Teardown()
}

// LimitSessions caps the number of live sessions. Zero means no cap.
func (e *Engine) LimitSessions(n int) { e.sessions.SetLimit(n) }

// Sweep tears down sessions the client has not touched for idle.
func (e *Engine) Sweep(idle time.Duration) int { return e.sessions.Sweep(idle, expired) }

// Expire runs Sweep every interval until ctx is done.
func (e *Engine) Expire(ctx context.Context, every, idle time.Duration) {
	e.sessions.Expire(ctx, every, idle, expired)
}

func expired(id string, s Placer) {
	_ = s.Teardown()
	applog.Event("ar.session.expired", map[string]any{"session": id, "platform": s.Platform()})
}

func (e *Engine) Stage() *Stage     { return e.stage }
func (e *Engine) Library() *Library { return e.lib }
func (e *Engine) Sessions() int     { return e.sessions.Len() }
