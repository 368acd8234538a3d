package ar

import "math"

type Vec3 [3]float64

// Pose is the transform of the placed object. Rotation is Euler degrees;
// scale stays uniform.
type Pose struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`
	Scale    Vec3 `json:"scale"`
}

const (
	MinScale  = 0.01
	MaxScale  = 10.0
	ScaleStep = 0.1
)

func uniform(v float64) Vec3 { return Vec3{v, v, v} }

func clampScale(v float64) float64 {
	if math.IsNaN(v) {
		return MinScale
	}
	return math.Max(MinScale, math.Min(MaxScale, v))
}

// Mutation is one pose change reported by the client.
type Mutation interface{ isMutation() }

// Rotate adds Factor to rotation_y while the gesture is in its continuous phase.
type Rotate struct {
	GestureState int     `json:"gesture_state"`
	Factor       float64 `json:"factor"`
}

// SetScale sets the uniform scale directly.
type SetScale struct {
	Value float64 `json:"value"`
}

// StepScale moves the scale one ScaleStep up (Dir > 0) or down (Dir < 0).
type StepScale struct {
	Dir int `json:"dir"`
}

// Drag replaces the position with the last reported value.
type Drag struct {
	Position Vec3 `json:"position"`
}

func (Rotate) isMutation()    {}
func (SetScale) isMutation()  {}
func (StepScale) isMutation() {}
func (Drag) isMutation()      {}
