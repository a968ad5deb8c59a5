package controller

import (
	"math"

	"github.com/Versifine/ledge/internal/event"
	"github.com/Versifine/ledge/internal/physics"
)

func (c *Controller) calculateDash() {
	if !c.stats.AllowDash {
		return
	}

	if c.dashToConsume && c.canDash && !c.crouching && c.time > c.nextDashTime {
		dir := physics.Vec2{X: c.frameInput.Move.X, Y: math.Max(c.frameInput.Move.Y, 0)}.Normalized()
		if !dir.IsZero() {
			c.dashVel = dir.Scale(c.stats.DashVelocity)
			c.dashing = true
			c.canDash = false
			c.startedDashing = c.time
			c.nextDashTime = c.time + c.stats.DashCooldown
			c.events.Publish(event.EventDash, event.DashEvent{Source: c.name, Dashing: true, Direction: c.toWorld(dir)})
		}
	}

	if c.dashing && c.time > c.startedDashing+c.stats.DashDuration {
		c.dashing = false
		c.events.Publish(event.EventDash, event.DashEvent{Source: c.name, Dashing: false})
		c.setVelocity(physics.Vec2{X: c.velocity.X * c.stats.DashEndHorizontalMultiplier, Y: c.velocity.Y})
		if c.grounded {
			c.canDash = true
		}
	}
}
