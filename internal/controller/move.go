package controller

import (
	"math"

	"github.com/Versifine/ledge/internal/physics"
)

// move resolves exactly one velocity path, then layers the transient velocity
// and the speed multiplier on top for the body.
func (c *Controller) move() {
	var (
		local physics.Vec2
		path  Path
	)

	switch {
	case !c.forceToApply.IsZero():
		path = PathImpulse
		local = c.velocity.Add(c.forceToApply)
	case c.dashing:
		path = PathDash
		local = c.dashVel
	case c.onWall:
		path = PathWall
		local = c.wallVelocity()
	case c.climbingLadder && c.ladderHit != nil:
		path = PathLadder
		c.body.SetConstantForce(physics.Zero)
		c.body.SetGravityScale(0)
		local = c.toLocal(c.ladderVelocity())
	default:
		path, local = c.walkVelocity()
		if maxFall := -math.Abs(c.stats.MaxFallSpeed); local.Y < maxFall {
			local.Y = maxFall
		}
	}

	c.velocity = local
	c.lastPath = path

	transient := c.frameTransient.Add(c.decayingVelocity)
	c.appliedTransient = transient
	c.appliedMultiplier = c.multiplier
	c.body.SetVelocity(c.toWorld(local).Add(transient).Mul(c.multiplier))

	if !c.immediateMove.IsZero() {
		c.body.MovePosition(c.framePosition.Add(c.immediateMove))
	}
}

func (c *Controller) wallVelocity() physics.Vec2 {
	c.body.SetConstantForce(physics.Zero)

	var vy float64
	if in := c.frameInput.Move.Y; math.Abs(in) > c.stats.VerticalDeadZone {
		vy = in * c.stats.WallClimbSpeed
	} else {
		vy = physics.MoveTowards(math.Min(c.velocity.Y, 0), -c.stats.WallClimbSpeed, c.stats.WallFallAcceleration*c.delta)
	}
	return physics.Vec2{X: c.velocity.X, Y: vy}
}

// walkVelocity is the normal ground and air movement.
func (c *Controller) walkVelocity() (Path, physics.Vec2) {
	s := c.stats
	v := c.velocity

	extra := 0.0
	if !c.grounded {
		extra = s.ExtraConstantGravity
		if c.endedJumpEarly && v.Y > 0 {
			extra *= s.EndJumpEarlyExtraForceMultiplier
		}
	}
	c.body.SetConstantForce(c.up.Scale(-extra))

	targetSpeed := 0.0
	step := s.Friction
	xDir := v.Normalized()
	if c.hasInput {
		targetSpeed = s.BaseSpeed
		step = s.Acceleration
		xDir = c.frameDirection
	}

	if c.crouching {
		point := physics.InverseLerp(0, s.CrouchSlowDownTime, c.time-c.timeStartedCrouching)
		targetSpeed *= physics.Lerp(1, s.CrouchSpeedModifier, point)
	}
	if c.trimmedVel.Dot(c.frameDirection) < 0 {
		step *= s.DirectionCorrection
	}
	if s.UseApexControl && !c.grounded && math.Abs(v.Y) < s.ApexDetectionThreshold {
		targetSpeed *= s.ApexModifier
	}
	step *= c.delta

	if c.grounded {
		speed := physics.MoveTowards(v.Len(), targetSpeed, step)
		target := xDir.Scale(speed)
		newSpeed := physics.MoveTowards(v.Len(), target.Len(), step)

		smoothed := physics.MoveTowardsVec(v, target, step)
		direct := target.Normalized().Scale(newSpeed)
		// steeper ground follows the direction exactly so it does not slide
		slope := physics.InverseLerp(0, slopeAngleForExact, math.Abs(c.frameDirection.Y))
		return PathGround, physics.LerpVec(smoothed, direct, slope)
	}

	step *= s.AirFrictionMultiplier
	if c.wallJumpInputNerfPoint < 1 && c.wallDirectionForJump != 0 &&
		physics.Sign(xDir.X) == physics.Sign(float64(c.wallDirectionForJump)) {
		if c.time < c.returnWallInputLossAfter {
			xDir.X = float64(-c.wallDirectionForJump)
		} else {
			xDir.X *= c.wallJumpInputNerfPoint
		}
	}
	vx := physics.MoveTowards(c.trimmedVel.X, xDir.X*targetSpeed, step)
	return PathAir, physics.Vec2{X: vx, Y: v.Y}
}
