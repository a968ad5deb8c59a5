package controller

import (
	"log/slog"

	"github.com/Versifine/ledge/internal/event"
	"github.com/Versifine/ledge/internal/physics"
)

func (c *Controller) rayPoint() physics.Vec2 {
	return c.framePosition.Add(c.up.Scale(c.char.StepHeight + physics.SkinWidth))
}

func (c *Controller) calculateCollisions() {
	origin := c.rayPoint()
	grounded := c.performGroundRay(origin)

	if !grounded {
		for _, offset := range c.char.RayOffsets(raySideCount) {
			side := c.right.Scale(offset)
			grounded = c.performGroundRay(origin.Add(side)) || c.performGroundRay(origin.Sub(side))
			if grounded {
				break
			}
		}
	}

	if grounded && !c.grounded {
		c.toggleGrounded(true)
	} else if !grounded && c.grounded {
		c.toggleGrounded(false)
	}
}

func (c *Controller) performGroundRay(origin physics.Vec2) bool {
	length := c.char.GrounderLength() + c.currentStepDown
	hit, ok := c.queries.RayCast(origin, c.up.Neg(), length, physics.Filter{Mask: c.stats.CollisionLayers})
	if !ok {
		return false
	}
	if physics.Angle(hit.Normal, c.up) > c.stats.MaxWalkableSlope {
		return false
	}
	c.groundHit = hit
	return true
}

func (c *Controller) toggleGrounded(grounded bool) {
	c.grounded = grounded
	if grounded {
		c.events.Publish(event.EventGrounded, event.GroundedEvent{Source: c.name, Grounded: true, FallSpeed: c.lastFrameY})
		c.body.SetGravityScale(0)
		c.setVelocity(physics.Vec2{X: c.velocity.X})
		c.body.SetConstantForce(physics.Zero)
		c.currentStepDown = c.char.StepHeight
		c.canDash = true
		c.coyoteUsable = true
		c.bufferedJumpUsable = true
		c.resetAirJumps()
		slog.Debug("grounded", "controller", c.name, "fall_speed", c.lastFrameY)
	} else {
		c.events.Publish(event.EventGrounded, event.GroundedEvent{Source: c.name, Grounded: false})
		c.timeLeftGrounded = c.time
		c.body.SetGravityScale(gravityScale)
		slog.Debug("airborne", "controller", c.name)
	}
	c.setColliderMode(ColliderModeFor(c.grounded, c.crouching))
}

// calculateDirection builds the intended move direction, tilted along the
// ground while standing on a walkable slope.
func (c *Controller) calculateDirection() {
	c.frameDirection = physics.Vec2{X: c.frameInput.Move.X}

	if c.grounded {
		c.groundNormal = c.groundHit.Normal
		n := c.toLocal(c.groundNormal)
		if physics.Angle(c.groundNormal, c.up) < c.stats.MaxWalkableSlope && n.Y != 0 {
			c.frameDirection.Y = c.frameDirection.X * -n.X / n.Y
		}
	}

	c.frameDirection = c.frameDirection.Normalized()
}
