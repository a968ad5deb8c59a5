package controller

import "github.com/Versifine/ledge/internal/physics"

// FrameInput is one sample of player intent. Move components are in [-1, 1].
type FrameInput struct {
	Move       physics.Vec2
	JumpDown   bool
	JumpHeld   bool
	DashDown   bool
	LadderHeld bool
}

type InputSource interface {
	Gather() FrameInput
}

// InputFunc adapts a plain function to InputSource.
type InputFunc func() FrameInput

func (f InputFunc) Gather() FrameInput { return f() }

// ControllerState is the externally visible physical state, captured at the
// end of every fixed tick.
type ControllerState struct {
	Position physics.Vec2 `json:"position"`
	Rotation float64      `json:"rotation"`
	Velocity physics.Vec2 `json:"velocity"`
	Grounded bool         `json:"grounded"`
}

// Mover is a platform the character can ride. Level colliders expose it
// through Collider.Data.
type Mover interface {
	// UsesBounding movers are left through a trigger exit instead of by
	// losing ground contact.
	UsesBounding() bool
	// RequireGrounding movers only attach once stood on.
	RequireGrounding() bool
	FramePositionDelta() physics.Vec2
	FramePosition() physics.Vec2
	Velocity() physics.Vec2
	TakeOffVelocity() physics.Vec2
}

type SpeedModifier interface {
	InAir() bool
	OnGround() bool
	Modifier() physics.Vec2
}

// Queries is the collision query provider.
type Queries interface {
	RayCast(origin, dir physics.Vec2, distance float64, f physics.Filter) (physics.Hit, bool)
	BoxCast(center, size, dir physics.Vec2, distance float64, f physics.Filter) (physics.Hit, bool)
	OverlapBox(center, size physics.Vec2, f physics.Filter) (*physics.Collider, bool)
}

// RigidBody is the simulated body the controller drives.
type RigidBody interface {
	Position() physics.Vec2
	SetPosition(p physics.Vec2)
	MovePosition(p physics.Vec2)
	Rotation() float64
	SetRotation(deg float64)
	Velocity() physics.Vec2
	SetVelocity(v physics.Vec2)
	GravityScale() float64
	SetGravityScale(s float64)
	SetConstantForce(f physics.Vec2)
	SetKinematic(on bool)
	SetShape(s physics.Shape)
	SetSensor(s physics.Shape)
	SetMask(m physics.LayerMask)
	SetListener(l physics.TriggerListener)
}

type Publisher interface {
	Publish(name string, evt any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

// orderedSet keeps insertion order so iteration is deterministic.
type orderedSet[T comparable] struct {
	items []T
}

func (s *orderedSet[T]) add(v T) {
	if s.has(v) {
		return
	}
	s.items = append(s.items, v)
}

func (s *orderedSet[T]) remove(v T) {
	for i, item := range s.items {
		if item == v {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *orderedSet[T]) has(v T) bool {
	for _, item := range s.items {
		if item == v {
			return true
		}
	}
	return false
}

func (s *orderedSet[T]) len() int { return len(s.items) }
