package controller

import (
	"log/slog"
	"math"

	"github.com/Versifine/ledge/internal/physics"
)

func (c *Controller) calculateLadders() {
	if !c.stats.AllowLadders {
		return
	}

	bounds := c.char.WallBounds
	center := c.framePosition.Add(c.toWorld(bounds.Offset))
	hit, ok := c.queries.OverlapBox(center, bounds.Size, physics.Filter{Mask: c.stats.LadderLayers, Triggers: true})
	if !ok {
		hit = nil
	}
	c.ladderHit = hit

	switch {
	case !c.climbingLadder && c.canEnterLadder() && c.shouldMountLadder():
		c.toggleClimbingLadder(true)
	case c.climbingLadder && c.shouldDismountLadder():
		c.toggleClimbingLadder(false)
	}
}

func (c *Controller) canEnterLadder() bool {
	return c.ladderHit != nil && c.time > c.timeLeftLadder+c.stats.LadderCooldownTime
}

func (c *Controller) shouldMountLadder() bool {
	if !c.canLatchLadder || c.ladderHit == nil {
		return false
	}
	if math.Abs(c.ladderHit.Center().X-c.framePosition.X) > c.stats.MaxLadderSnapDistance {
		return false
	}
	in := c.frameInput
	dead := c.stats.VerticalDeadZone
	return c.stats.AutoAttachToLadders ||
		in.LadderHeld ||
		in.Move.Y > dead ||
		(!c.grounded && in.Move.Y < -dead)
}

// shouldDismountLadder leaves on losing the ladder or on releasing the ladder
// button; merely not holding it keeps an auto-attached climb going.
func (c *Controller) shouldDismountLadder() bool {
	if c.ladderHit == nil {
		return true
	}
	return c.prevLadderHeld && !c.frameInput.LadderHeld
}

func (c *Controller) toggleClimbingLadder(on bool) {
	if c.climbingLadder == on {
		return
	}
	if on {
		c.setVelocity(physics.Zero)
		c.body.SetGravityScale(0)
		c.body.SetConstantForce(physics.Zero)
		c.ladderSnapVel = 0
		slog.Debug("ladder mounted", "controller", c.name)
	} else {
		if c.ladderHit != nil {
			c.timeLeftLadder = c.time
		}
		if c.frameInput.Move.Y > 0 {
			c.addLocalForce(physics.Vec2{Y: c.stats.LadderPopForce}, false)
		}
		c.body.SetGravityScale(gravityScale)
		slog.Debug("ladder dismounted", "controller", c.name)
	}

	c.climbingLadder = on
	c.resetAirJumps()
}

// ladderVelocity drives the climb in world space: vertical speed from input
// clamped to the ladder, horizontal snap toward the ladder or a shimmy.
func (c *Controller) ladderVelocity() physics.Vec2 {
	in := c.frameInput.Move
	dt := c.delta
	pos := c.framePosition
	ladder := c.ladderHit.Bounds()

	speed := c.stats.LadderSlideSpeed
	if in.Y > 0 {
		speed = c.stats.LadderClimbSpeed
	}
	nextY := pos.Y + in.Y*speed*dt
	lo := ladder.Min.Y + physics.SkinWidth
	hi := ladder.Max.Y - c.char.Height - physics.SkinWidth
	if hi < lo {
		hi = lo
	}
	clampedY := physics.Clamp(nextY, lo, hi)

	var goalX float64
	switch {
	case c.stats.SnapToLadders:
		goalX = physics.SmoothDamp(pos.X, c.ladderHit.Center().X, &c.ladderSnapVel, c.stats.LadderSnapTime, dt)
	case c.frameInput.LadderHeld:
		goalX = pos.X
	default:
		step := c.stats.Acceleration * c.stats.LadderShimmySpeedMultiplier * dt
		goalX = physics.MoveTowards(pos.X, pos.X+in.X, step)
	}

	return physics.Vec2{
		X: (goalX - pos.X) / dt,
		Y: (clampedY - pos.Y) / dt,
	}
}
