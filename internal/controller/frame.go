package controller

import (
	"math"

	"github.com/Versifine/ledge/internal/event"
	"github.com/Versifine/ledge/internal/physics"
)

// removeTransientVelocity strips last tick's speed multiplier and transient
// contribution from the body velocity, then decays knockback.
func (c *Controller) removeTransientVelocity() {
	current := c.body.Velocity()
	before := current

	current = unscale(current, c.appliedMultiplier)
	current = current.Sub(c.appliedTransient)
	c.body.SetVelocity(current)

	c.frameTransient = physics.Zero
	c.appliedTransient = physics.Zero
	c.appliedMultiplier = physics.One

	decay := c.stats.Friction * c.stats.AirFrictionMultiplier * c.stats.ExternalVelocityDecayRate
	if knockbackOpposes(before, c.decayingVelocity) {
		decay *= knockbackOpposedDecay
	}
	c.decayingVelocity = physics.MoveTowardsVec(c.decayingVelocity, physics.Zero, decay*c.delta)

	c.immediateMove = physics.Zero
}

// knockbackOpposes reports whether the decaying velocity outruns or runs
// against the actual motion on either axis, as after hitting an obstacle.
func knockbackOpposes(actual, decaying physics.Vec2) bool {
	return (actual.X < 0 && decaying.X < actual.X) ||
		(actual.X > 0 && decaying.X > actual.X) ||
		(actual.Y < 0 && decaying.Y < actual.Y) ||
		(actual.Y > 0 && decaying.Y > actual.Y)
}

func unscale(v, m physics.Vec2) physics.Vec2 {
	if math.Abs(m.X) > 1e-6 {
		v.X /= m.X
	}
	if math.Abs(m.Y) > 1e-6 {
		v.Y /= m.Y
	}
	return v
}

func (c *Controller) setFrameData() {
	c.updateBasis()
	c.framePosition = c.body.Position()
	c.hasInput = c.horizontalInputPressed()

	c.velocity = c.toLocal(c.body.Velocity())
	c.trimmedVel = physics.Vec2{X: c.velocity.X}
}

func (c *Controller) cleanFrameData() {
	c.jumpToConsume = false
	c.dashToConsume = false
	c.forceToApply = physics.Zero
	c.lastFrameY = c.velocity.Y
	c.prevLadderHeld = c.frameInput.LadderHeld
}

func (c *Controller) saveState() {
	c.ticks++
	c.state = ControllerState{
		Position: c.body.Position(),
		Rotation: c.body.Rotation(),
		Velocity: c.Velocity(),
		Grounded: c.grounded,
	}
	c.events.Publish(event.EventState, event.StateEvent{
		Source: c.name,
		Tick:   c.ticks,
		State: event.State{
			Position: c.state.Position,
			Rotation: c.state.Rotation,
			Velocity: c.state.Velocity,
			Grounded: c.state.Grounded,
		},
	})
}
