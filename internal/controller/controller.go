package controller

import (
	"errors"
	"log/slog"
	"math"

	"github.com/Versifine/ledge/internal/event"
	"github.com/Versifine/ledge/internal/geometry"
	"github.com/Versifine/ledge/internal/physics"
)

const (
	gravityScale = 1

	raySideCount          = 5
	jumpClearanceTime     = 0.25
	wallReattachCooldown  = 0.2
	modifierSmoothTime    = 0.1
	slopeAngleForExact    = 0.7
	knockbackOpposedDecay = 5
)

// Path is the velocity resolution path chosen for a fixed tick.
type Path uint8

const (
	PathNone Path = iota
	PathImpulse
	PathDash
	PathWall
	PathLadder
	PathGround
	PathAir
)

func (p Path) String() string {
	switch p {
	case PathImpulse:
		return "impulse"
	case PathDash:
		return "dash"
	case PathWall:
		return "wall"
	case PathLadder:
		return "ladder"
	case PathGround:
		return "ground"
	case PathAir:
		return "air"
	default:
		return "none"
	}
}

type ColliderMode = geometry.ColliderMode

const (
	ModeAirborne  = geometry.ModeAirborne
	ModeStanding  = geometry.ModeStanding
	ModeCrouching = geometry.ModeCrouching
)

func ColliderModeFor(grounded, crouching bool) ColliderMode {
	return geometry.ModeFor(grounded, crouching)
}

type Options struct {
	Name    string
	Stats   Stats
	Body    RigidBody
	Queries Queries
	Input   InputSource
	Events  Publisher
}

// Controller resolves input and collision queries into body velocity once per
// fixed tick. It is not safe for concurrent use; the scheduler drives it from
// a single goroutine.
type Controller struct {
	name    string
	stats   Stats
	char    geometry.Character
	body    RigidBody
	queries Queries
	input   InputSource
	events  Publisher

	active bool
	state  ControllerState
	ticks  uint64

	delta float64
	time  float64

	frameInput     FrameInput
	up, right      physics.Vec2
	framePosition  physics.Vec2
	velocity       physics.Vec2 // local frame: x along right, y along up
	trimmedVel     physics.Vec2
	hasInput       bool
	frameDirection physics.Vec2
	lastFrameY     float64
	lastPath       Path
	colliderMode   ColliderMode

	// ground
	grounded           bool
	groundHit          physics.Hit
	groundNormal       physics.Vec2
	currentStepDown    float64
	timeLeftGrounded   float64
	coyoteUsable       bool
	bufferedJumpUsable bool

	// jump
	jumpToConsume        bool
	timeJumpWasPressed   float64
	lastJumpExecutedTime float64
	endedJumpEarly       bool
	airJumpsRemaining    int
	forceToApply         physics.Vec2

	// walls
	onWall                   bool
	wallDirection            int
	lastWallDirection        int
	wallDirThisFrame         int
	timeLeftWall             float64
	canGrabWallAfter         float64
	wallJumpCoyoteUsable     bool
	wallJumpInputNerfPoint   float64
	returnWallInputLossAfter float64
	wallDirectionForJump     int

	// ladders
	climbingLadder   bool
	ladderHit        *physics.Collider
	timeLeftLadder   float64
	ladderSnapVel    float64
	canLatchLadder   bool
	mustReleaseLatch bool
	prevLadderHeld   bool

	// dash
	dashToConsume  bool
	canDash        bool
	dashing        bool
	dashVel        physics.Vec2
	startedDashing float64
	nextDashTime   float64

	// crouch
	crouching            bool
	timeStartedCrouching float64

	// transient velocity, world frame
	frameTransient   physics.Vec2
	decayingVelocity physics.Vec2
	appliedTransient physics.Vec2
	immediateMove    physics.Vec2

	// modifiers and movers
	modifiers          orderedSet[SpeedModifier]
	movers             orderedSet[Mover]
	lastPlatform       Mover
	targetMultiplier   physics.Vec2
	multiplier         physics.Vec2
	multiplierVelocity physics.Vec2
	appliedMultiplier  physics.Vec2
}

func New(opts Options) (*Controller, error) {
	if opts.Body == nil {
		return nil, errors.New("controller: body is required")
	}
	if opts.Queries == nil {
		return nil, errors.New("controller: query provider is required")
	}
	if opts.Input == nil {
		return nil, errors.New("controller: input source is required")
	}
	if opts.Events == nil {
		opts.Events = nopPublisher{}
	}
	if opts.Name == "" {
		opts.Name = "player"
	}

	stats, _ := opts.Stats.Sanitized()
	negInf := math.Inf(-1)

	c := &Controller{
		name:    opts.Name,
		stats:   stats,
		char:    geometry.Generate(stats.Size, stats.WallDetectorRange),
		body:    opts.Body,
		queries: opts.Queries,
		input:   opts.Input,
		events:  opts.Events,
		active:  true,

		up:    physics.Up,
		right: physics.Right,

		timeLeftGrounded:         negInf,
		timeJumpWasPressed:       negInf,
		lastJumpExecutedTime:     negInf,
		endedJumpEarly:           true,
		timeLeftWall:             negInf,
		canGrabWallAfter:         negInf,
		wallJumpInputNerfPoint:   1,
		returnWallInputLossAfter: negInf,
		timeLeftLadder:           negInf,
		canLatchLadder:           true,
		startedDashing:           negInf,
		nextDashTime:             negInf,
		timeStartedCrouching:     negInf,

		targetMultiplier:  physics.One,
		multiplier:        physics.One,
		appliedMultiplier: physics.One,
	}
	c.airJumpsRemaining = stats.MaxAirJumps

	c.body.SetMask(stats.CollisionLayers)
	c.body.SetSensor(c.char.Bounds())
	c.body.SetListener(c)
	c.body.SetGravityScale(gravityScale)
	c.setColliderMode(ModeAirborne)
	c.state = ControllerState{Position: c.body.Position(), Rotation: c.body.Rotation()}

	return c, nil
}

// Update samples input. It runs on every variable-rate tick.
func (c *Controller) Update(dt, now float64) {
	c.delta = dt
	c.time = now
	c.gatherInput()
}

// FixedUpdate runs the resolution pipeline.
func (c *Controller) FixedUpdate(dt, now float64) {
	if dt <= 0 {
		return
	}
	c.delta = dt
	c.time = now

	if !c.active {
		return
	}

	c.removeTransientVelocity()
	c.setFrameData()
	c.calculateCollisions()
	c.calculateDirection()
	c.calculateWalls()
	c.calculateLadders()
	c.calculateJump()
	c.calculateDash()
	c.calculateExternalModifiers()
	c.traceGround()
	c.move()
	c.calculateCrouch()
	c.cleanFrameData()
	c.saveState()
}

func (c *Controller) gatherInput() {
	c.frameInput = c.input.Gather()

	if c.frameInput.JumpDown {
		c.jumpToConsume = true
		c.timeJumpWasPressed = c.time
	}
	if c.frameInput.DashDown {
		c.dashToConsume = true
	}
	if !c.frameInput.LadderHeld && c.mustReleaseLatch {
		c.canLatchLadder = true
		c.mustReleaseLatch = false
	}
}

func (c *Controller) Name() string { return c.name }
func (c *Controller) State() ControllerState { return c.state }
func (c *Controller) Active() bool { return c.active }
func (c *Controller) Up() physics.Vec2 { return c.up }
func (c *Controller) Right() physics.Vec2 { return c.right }
func (c *Controller) Crouching() bool { return c.crouching }
func (c *Controller) Input() physics.Vec2 { return c.frameInput.Move }
func (c *Controller) GroundNormal() physics.Vec2 { return c.groundNormal }
func (c *Controller) WallDirection() int { return c.wallDirection }
func (c *Controller) ClimbingLadder() bool { return c.climbingLadder }
func (c *Controller) Grounded() bool { return c.grounded }
func (c *Controller) Dashing() bool { return c.dashing }
func (c *Controller) OnWall() bool { return c.onWall }
func (c *Controller) AirJumpsRemaining() int { return c.airJumpsRemaining }
func (c *Controller) WallJumpControl() float64 { return c.wallJumpInputNerfPoint }
func (c *Controller) SpeedMultiplier() physics.Vec2 { return c.multiplier }
func (c *Controller) LastPath() Path { return c.lastPath }
func (c *Controller) ColliderMode() ColliderMode { return c.colliderMode }
func (c *Controller) Stats() Stats { return c.stats }
func (c *Controller) Geometry() geometry.Character { return c.char }
func (c *Controller) Ticks() uint64 { return c.ticks }

// Velocity is the last velocity the controller resolved, in world space.
func (c *Controller) Velocity() physics.Vec2 {
	return c.toWorld(c.velocity)
}

// AddFrameForce queues a world-space impulse applied on the next move stage.
func (c *Controller) AddFrameForce(force physics.Vec2, resetVelocity bool) {
	if resetVelocity {
		c.setVelocity(physics.Zero)
	}
	c.forceToApply = c.forceToApply.Add(c.toLocal(force))
}

func (c *Controller) addLocalForce(force physics.Vec2, resetVelocity bool) {
	if resetVelocity {
		c.setVelocity(physics.Zero)
	}
	c.forceToApply = c.forceToApply.Add(force)
}

func (c *Controller) LoadState(state ControllerState) {
	c.RepositionImmediately(state.Position, false)
	c.body.SetRotation(state.Rotation)
	c.updateBasis()
	c.appliedTransient = physics.Zero
	c.appliedMultiplier = physics.One
	c.setVelocity(c.toLocal(state.Velocity))
	c.state = state

	if state.Grounded && !c.grounded {
		c.toggleGrounded(true)
	}
}

func (c *Controller) RepositionImmediately(pos physics.Vec2, resetVelocity bool) {
	c.body.SetPosition(pos)
	c.framePosition = pos
	if resetVelocity {
		c.setVelocity(physics.Zero)
	}
	c.state.Position = pos
	c.events.Publish(event.EventRepositioned, event.RepositionedEvent{Source: c.name, Position: pos})
}

func (c *Controller) TogglePlayer(on bool) {
	c.active = on
	c.body.SetKinematic(!on)
	if !on {
		c.body.SetVelocity(physics.Zero)
	}
	slog.Debug("controller toggled", "controller", c.name, "active", on)
	c.events.Publish(event.EventToggled, event.ToggledEvent{Source: c.name, Active: on})
}

func (c *Controller) OnTriggerEnter(col *physics.Collider) {
	switch v := col.Data.(type) {
	case SpeedModifier:
		c.modifiers.add(v)
	case Mover:
		if !v.RequireGrounding() {
			c.movers.add(v)
		}
	}
}

func (c *Controller) OnTriggerExit(col *physics.Collider) {
	switch v := col.Data.(type) {
	case SpeedModifier:
		c.modifiers.remove(v)
	case Mover:
		c.movers.remove(v)
	}
}

func (c *Controller) setVelocity(local physics.Vec2) {
	c.velocity = local
	c.body.SetVelocity(c.toWorld(local))
}

func (c *Controller) toWorld(local physics.Vec2) physics.Vec2 {
	return c.right.Scale(local.X).Add(c.up.Scale(local.Y))
}

func (c *Controller) toLocal(world physics.Vec2) physics.Vec2 {
	return physics.Vec2{X: world.Dot(c.right), Y: world.Dot(c.up)}
}

func (c *Controller) updateBasis() {
	rad := c.body.Rotation() * math.Pi / 180
	sin, cos := math.Sincos(rad)
	c.up = physics.Vec2{X: -sin, Y: cos}
	c.right = physics.Vec2{X: c.up.Y, Y: -c.up.X}
}

func (c *Controller) setColliderMode(mode ColliderMode) {
	c.colliderMode = mode
	c.body.SetShape(c.char.Shape(mode))
}

func (c *Controller) resetAirJumps() {
	c.airJumpsRemaining = c.stats.MaxAirJumps
}

func (c *Controller) withinJumpClearance() bool {
	return c.lastJumpExecutedTime+jumpClearanceTime > c.time
}

func (c *Controller) horizontalInputPressed() bool {
	return math.Abs(c.frameInput.Move.X) > c.stats.HorizontalDeadZone
}
