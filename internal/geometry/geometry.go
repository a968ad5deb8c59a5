package geometry

import (
	"fmt"

	"github.com/Versifine/ledge/internal/physics"
)

const (
	// StepBuffer is the minimum gap kept between step height, total height
	// and crouch height.
	StepBuffer = 0.05

	minRayInset = 0.01
	// wallBoundsInset trims the wall detection box so it never reaches the
	// ground under the feet.
	wallBoundsInset = 0.1
)

// Size is the authored character size. Height includes the step height.
type Size struct {
	Height       float64 `yaml:"height"`
	Width        float64 `yaml:"width"`
	StepHeight   float64 `yaml:"step_height"`
	CrouchHeight float64 `yaml:"crouch_height"`
	RayInset     float64 `yaml:"ray_inset"`
}

func DefaultSize() Size {
	return Size{
		Height:       1.8,
		Width:        0.6,
		StepHeight:   0.5,
		CrouchHeight: 0.6,
		RayInset:     0.1,
	}
}

// Sanitize clamps s into a consistent shape and describes every clamp it made.
func Sanitize(s Size) (Size, []string) {
	var notes []string

	if maxStep := s.Height - StepBuffer; s.StepHeight > maxStep {
		notes = append(notes, fmt.Sprintf("step height %.3f cannot exceed height minus buffer, clamped to %.3f", s.StepHeight, maxStep))
		s.StepHeight = maxStep
	}
	if s.StepHeight < StepBuffer {
		notes = append(notes, fmt.Sprintf("step height %.3f below minimum, clamped to %.3f", s.StepHeight, StepBuffer))
		s.StepHeight = StepBuffer
	}
	if minCrouch := s.StepHeight + StepBuffer; s.CrouchHeight < minCrouch {
		notes = append(notes, fmt.Sprintf("crouch height %.3f must exceed step height plus buffer, clamped to %.3f", s.CrouchHeight, minCrouch))
		s.CrouchHeight = minCrouch
	}
	if s.CrouchHeight > s.Height {
		notes = append(notes, fmt.Sprintf("crouch height %.3f exceeds height, clamped to %.3f", s.CrouchHeight, s.Height))
		s.CrouchHeight = s.Height
	}

	maxInset := s.Width/2 - minRayInset
	switch {
	case s.RayInset < minRayInset:
		notes = append(notes, fmt.Sprintf("ray inset %.3f below minimum, clamped to %.3f", s.RayInset, minRayInset))
		s.RayInset = minRayInset
	case s.RayInset > maxInset && maxInset >= minRayInset:
		notes = append(notes, fmt.Sprintf("ray inset %.3f exceeds half width, clamped to %.3f", s.RayInset, maxInset))
		s.RayInset = maxInset
	}

	return s, notes
}

// Character is the collider layout derived from a Size. Offsets are relative
// to the feet.
type Character struct {
	Height       float64
	Width        float64
	StepHeight   float64
	CrouchHeight float64
	RayInset     float64

	StandingSize   physics.Vec2
	StandingCenter physics.Vec2
	CrouchSize     physics.Vec2
	CrouchCenter   physics.Vec2
	AirborneSize   physics.Vec2
	AirborneCenter physics.Vec2

	// WallBounds is the box used for wall and ladder detection.
	WallBounds physics.Shape
}

// Generate derives the collider layout. wallDetectorRange widens the wall
// detection box.
func Generate(s Size, wallDetectorRange float64) Character {
	r := physics.ColliderEdgeRadius
	skin := physics.SkinWidth

	c := Character{
		Height:       s.Height,
		Width:        s.Width,
		StepHeight:   s.StepHeight,
		CrouchHeight: s.CrouchHeight,
		RayInset:     s.RayInset,
	}

	c.StandingSize = physics.V(s.Width-2*r, s.Height-s.StepHeight-2*r)
	c.StandingCenter = physics.V(0, s.Height-c.StandingSize.Y/2-r)

	c.CrouchSize = physics.V(s.Width-2*r, s.CrouchHeight-s.StepHeight)
	c.CrouchCenter = physics.V(0, s.CrouchHeight-c.CrouchSize.Y/2-r)

	c.AirborneSize = physics.V(s.Width-2*skin, s.Height-2*skin)
	c.AirborneCenter = physics.V(0, s.Height/2)

	c.WallBounds = physics.Shape{
		Size:   physics.V(c.StandingSize.X+2*r+wallDetectorRange, s.Height-wallBoundsInset),
		Offset: physics.V(0, s.Height/2),
	}
	return c
}

// GrounderLength is the ground ray length before any step-down extension.
func (c Character) GrounderLength() float64 {
	return c.StepHeight + physics.SkinWidth
}

// RayOffsets returns count evenly spaced side-ray offsets, nearest first.
func (c Character) RayOffsets(count int) []float64 {
	if count <= 0 {
		return nil
	}
	extent := c.StandingSize.X/2 - c.RayInset
	if extent <= 0 {
		return nil
	}
	step := extent / float64(count)
	out := make([]float64, count)
	for i := range out {
		out[i] = step * float64(i+1)
	}
	return out
}

// Bounds is the full character box used as the trigger sensor.
func (c Character) Bounds() physics.Shape {
	return physics.Shape{
		Size:   physics.V(c.Width, c.Height),
		Offset: physics.V(0, c.Height/2),
	}
}

type ColliderMode uint8

const (
	ModeAirborne ColliderMode = iota
	ModeStanding
	ModeCrouching
)

func (m ColliderMode) String() string {
	switch m {
	case ModeStanding:
		return "standing"
	case ModeCrouching:
		return "crouching"
	default:
		return "airborne"
	}
}

// ModeFor picks the collider mode from the grounded and crouching flags.
func ModeFor(grounded, crouching bool) ColliderMode {
	switch {
	case !grounded:
		return ModeAirborne
	case crouching:
		return ModeCrouching
	default:
		return ModeStanding
	}
}

// Shape returns the solid collider for a mode.
func (c Character) Shape(mode ColliderMode) physics.Shape {
	switch mode {
	case ModeStanding:
		return physics.Shape{Size: c.StandingSize, Offset: c.StandingCenter}
	case ModeCrouching:
		return physics.Shape{Size: c.CrouchSize, Offset: c.CrouchCenter}
	default:
		return physics.Shape{Size: c.AirborneSize, Offset: c.AirborneCenter}
	}
}
