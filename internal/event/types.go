package event

import "github.com/Versifine/ledge/internal/physics"

const (
	EventJumped       = "controller.jumped"
	EventGrounded     = "controller.grounded"
	EventDash         = "controller.dash"
	EventWallGrab     = "controller.wall_grab"
	EventRepositioned = "controller.repositioned"
	EventToggled      = "controller.toggled"
	EventState        = "controller.state"
)

// ControllerEvents lists every event a controller publishes.
var ControllerEvents = []string{
	EventJumped,
	EventGrounded,
	EventDash,
	EventWallGrab,
	EventRepositioned,
	EventToggled,
	EventState,
}

type JumpType string

const (
	JumpGrounded JumpType = "jump"
	JumpCoyote   JumpType = "coyote"
	JumpAir      JumpType = "air"
	JumpWall     JumpType = "wall"
	JumpLadder   JumpType = "ladder"
)

type JumpEvent struct {
	Source string   `json:"source"`
	Type   JumpType `json:"type"`
}

// GroundedEvent carries the vertical speed of the tick before landing.
type GroundedEvent struct {
	Source    string  `json:"source"`
	Grounded  bool    `json:"grounded"`
	FallSpeed float64 `json:"fall_speed"`
}

type DashEvent struct {
	Source    string       `json:"source"`
	Dashing   bool         `json:"dashing"`
	Direction physics.Vec2 `json:"direction"`
}

type WallGrabEvent struct {
	Source   string `json:"source"`
	Grabbing bool   `json:"grabbing"`
}

type RepositionedEvent struct {
	Source   string       `json:"source"`
	Position physics.Vec2 `json:"position"`
}

type ToggledEvent struct {
	Source string `json:"source"`
	Active bool   `json:"active"`
}

// State mirrors the controller snapshot so subscribers need not import the
// controller package.
type State struct {
	Position physics.Vec2 `json:"position"`
	Rotation float64      `json:"rotation"`
	Velocity physics.Vec2 `json:"velocity"`
	Grounded bool         `json:"grounded"`
}

type StateEvent struct {
	Source string `json:"source"`
	Tick   uint64 `json:"tick"`
	State  State  `json:"state"`
}
