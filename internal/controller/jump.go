package controller

import (
	"log/slog"

	"github.com/Versifine/ledge/internal/event"
	"github.com/Versifine/ledge/internal/physics"
)

func (c *Controller) hasBufferedJump() bool {
	return c.bufferedJumpUsable && c.time < c.timeJumpWasPressed+c.stats.BufferedJumpTime && !c.withinJumpClearance()
}

func (c *Controller) canUseCoyote() bool {
	return c.coyoteUsable && !c.grounded && c.time < c.timeLeftGrounded+c.stats.CoyoteTime
}

func (c *Controller) canAirJump() bool {
	return !c.grounded && c.airJumpsRemaining > 0
}

func (c *Controller) canWallJump() bool {
	if !c.stats.AllowWalls {
		return false
	}
	adjacent := !c.grounded && (c.onWall || c.wallDirThisFrame != 0)
	coyote := c.wallJumpCoyoteUsable && c.time < c.timeLeftWall+c.stats.WallCoyoteTime
	return adjacent || coyote
}

// canStand reports whether the standing collider fits at the current position.
func (c *Controller) canStand() bool {
	center := c.body.Position().Add(c.toWorld(c.char.StandingCenter))
	size := c.char.StandingSize.Sub(physics.One.Scale(physics.SkinWidth))
	_, blocked := c.queries.OverlapBox(center, size, physics.Filter{Mask: c.stats.CollisionLayers})
	return !blocked
}

func (c *Controller) calculateJump() {
	if (c.jumpToConsume || c.hasBufferedJump()) && c.canStand() {
		if jump, ok := c.pickJump(); ok {
			c.executeJump(jump)
		}
	}

	if !c.endedJumpEarly && !c.grounded && !c.frameInput.JumpHeld && c.velocity.Y > 0 {
		c.endedJumpEarly = true
		c.setVelocity(physics.Vec2{X: c.velocity.X, Y: c.velocity.Y / 2})
	} else if c.velocity.Y < 0 {
		c.endedJumpEarly = true
	}

	if c.time > c.returnWallInputLossAfter {
		c.wallJumpInputNerfPoint = physics.MoveTowards(c.wallJumpInputNerfPoint, 1, c.delta/c.stats.WallJumpInputLossReturnTime)
	}
}

func (c *Controller) pickJump() (event.JumpType, bool) {
	ladderFirst := !c.stats.GroundJumpBeforeLadderJump
	switch {
	case c.canWallJump():
		return event.JumpWall, true
	case c.climbingLadder && (ladderFirst || !c.grounded):
		return event.JumpLadder, true
	case c.grounded:
		return event.JumpGrounded, true
	case c.climbingLadder:
		return event.JumpLadder, true
	case c.canUseCoyote():
		return event.JumpCoyote, true
	case c.canAirJump():
		return event.JumpAir, true
	}
	return "", false
}

func (c *Controller) executeJump(jump event.JumpType) {
	// grab state has to be read before the wall is released
	grabbing := c.onWall || c.pushingAgainstWall()
	wallDir := c.wallDirThisFrame
	if wallDir == 0 {
		wallDir = c.lastWallDirection
	}

	c.setVelocity(c.trimmedVel)
	c.endedJumpEarly = false
	c.bufferedJumpUsable = false
	c.lastJumpExecutedTime = c.time
	c.currentStepDown = 0

	if c.climbingLadder {
		c.toggleClimbingLadder(false)
	}

	switch jump {
	case event.JumpGrounded, event.JumpCoyote:
		c.coyoteUsable = false
		c.addLocalForce(physics.Vec2{Y: c.stats.JumpPower}, false)

	case event.JumpAir:
		c.airJumpsRemaining--
		c.addLocalForce(physics.Vec2{Y: c.stats.JumpPower}, false)

	case event.JumpWall:
		if c.onWall {
			c.toggleOnWall(false)
		}
		c.wallJumpCoyoteUsable = false
		c.wallJumpInputNerfPoint = 0
		c.returnWallInputLossAfter = c.time + c.stats.WallJumpTotalInputLossTime
		c.wallDirectionForJump = wallDir

		power := c.stats.WallPushPower
		if grabbing {
			power = c.stats.WallJumpPower
		}
		dir := physics.Vec2{X: float64(-wallDir), Y: 1}.Normalized()
		c.addLocalForce(dir.Mul(power), false)

	case event.JumpLadder:
		if c.stats.RequireLadderRelease {
			c.mustReleaseLatch = true
			c.canLatchLadder = false
		}
		dir := physics.Vec2{X: c.frameInput.Move.X, Y: 1}.Normalized()
		c.setVelocity(physics.Zero)
		c.addLocalForce(dir.Scale(c.stats.JumpPower), false)
	}

	slog.Debug("jumped", "controller", c.name, "type", jump)
	c.events.Publish(event.EventJumped, event.JumpEvent{Source: c.name, Type: jump})
}
