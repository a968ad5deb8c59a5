package controller

import (
	"log/slog"

	"github.com/Versifine/ledge/internal/event"
	"github.com/Versifine/ledge/internal/physics"
)

func (c *Controller) pushingAgainstWall() bool {
	return c.horizontalInputPressed() && c.wallDirThisFrame != 0 &&
		int(physics.Sign(c.frameDirection.X)) == c.wallDirThisFrame
}

func (c *Controller) calculateWalls() {
	if !c.stats.AllowWalls {
		return
	}

	dir := int(physics.Sign(c.frameDirection.X))
	if c.onWall {
		dir = c.wallDirection
	}
	c.wallDirThisFrame = 0
	if dir != 0 && c.detectWall(dir) {
		c.wallDirThisFrame = dir
	}

	if !c.onWall && c.shouldStickToWall() && c.time > c.canGrabWallAfter && c.velocity.Y < 0 {
		c.toggleOnWall(true)
	} else if c.onWall && !c.shouldStickToWall() {
		c.toggleOnWall(false)
	}

	// not grabbing: still record an adjacent wall for wall jumps
	if !c.onWall {
		if c.detectWall(-1) {
			c.wallDirThisFrame = -1
		} else if c.detectWall(1) {
			c.wallDirThisFrame = 1
		}
	}
}

func (c *Controller) shouldStickToWall() bool {
	if c.wallDirThisFrame == 0 || c.grounded {
		return false
	}
	pushing := c.pushingAgainstWall()
	if c.horizontalInputPressed() && !pushing {
		return false
	}
	return !c.stats.RequireInputPush || pushing
}

func (c *Controller) detectWall(dir int) bool {
	bounds := c.char.WallBounds
	center := c.framePosition.Add(c.toWorld(bounds.Offset))
	size := physics.Vec2{X: c.char.StandingSize.X - physics.SkinWidth, Y: bounds.Size.Y}
	_, ok := c.queries.BoxCast(center, size, c.right.Scale(float64(dir)), c.stats.WallDetectorRange,
		physics.Filter{Mask: c.stats.ClimbableLayers})
	return ok
}

func (c *Controller) toggleOnWall(on bool) {
	c.onWall = on

	if on {
		c.decayingVelocity = physics.Zero
		c.bufferedJumpUsable = true
		c.wallJumpCoyoteUsable = true
		c.wallDirection = c.wallDirThisFrame
		c.lastWallDirection = c.wallDirThisFrame
		c.body.SetGravityScale(0)
		slog.Debug("wall grabbed", "controller", c.name, "direction", c.wallDirection)
	} else {
		c.timeLeftWall = c.time
		c.canGrabWallAfter = c.time + wallReattachCooldown
		c.body.SetGravityScale(gravityScale)
		c.wallDirection = 0
		if c.velocity.Y > 0 {
			c.addLocalForce(physics.Vec2{Y: c.stats.WallPopForce}, true)
		}
		// air jumps come back even when the wall was left without a wall jump
		c.resetAirJumps()
		slog.Debug("wall released", "controller", c.name)
	}

	c.events.Publish(event.EventWallGrab, event.WallGrabEvent{Source: c.name, Grabbing: on})
}
