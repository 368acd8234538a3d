// Package analyzer judges whether a product suits a photographed room by
// asking a hosted vision model and parsing its JSON reply.
package analyzer

import (
	"context"
	"time"

	applog "roomfit/internal/log"
)

type Analyzer struct {
	Vision      Vision // may be nil when no API key is configured
	ColorVision Vision
	Timeout     time.Duration
}

func New(vision, colors Vision, timeout time.Duration) *Analyzer {
	if colors == nil {
		colors = vision
	}
	return &Analyzer{Vision: vision, ColorVision: colors, Timeout: timeout}
}

func (a *Analyzer) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Timeout > 0 {
		return context.WithTimeout(ctx, a.Timeout)
	}
	return context.WithCancel(ctx)
}

// Analyze always returns a renderable result; failures become Fallback.
func (a *Analyzer) Analyze(ctx context.Context, img Image, p ProductDetails) Result {
	if a.Vision == nil {
		return a.fail(ErrNotConfigured, p)
	}
	ctx, cancel := a.bound(ctx)
	defer cancel()

	start := time.Now()
	text, err := a.Vision.Generate(ctx, BuildPrompt(p), img)
	if err != nil {
		return a.fail(err, p)
	}
	res, err := Parse(text)
	if err != nil {
		return a.fail(err, p)
	}
	applog.Event("analyzer.complete", map[string]any{
		"product":    p.Name,
		"score":      res.SuitabilityScore,
		"suitable":   res.Suitable,
		"colorMatch": res.ColorLevel(),
		"ms":         time.Since(start).Milliseconds(),
	})
	return res
}

func (a *Analyzer) fail(err error, p ProductDetails) Result {
	applog.Fail("analyzer.fallback", err, map[string]any{"product": p.Name})
	return Fallback(err)
}

// Colors suggests five furniture colors for the room; failures return
// FallbackColors.
func (a *Analyzer) Colors(ctx context.Context, img Image, roomType string) []string {
	if a.ColorVision == nil {
		return FallbackColors()
	}
	ctx, cancel := a.bound(ctx)
	defer cancel()

	text, err := a.ColorVision.Generate(ctx, ColorPrompt(roomType), img)
	if err == nil {
		var colors []string
		if colors, err = ParseColors(text); err == nil {
			return colors
		}
	}
	applog.Fail("analyzer.colors_fallback", err, map[string]any{"room": roomType})
	return FallbackColors()
}
