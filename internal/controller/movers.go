package controller

import (
	"math"

	"github.com/Versifine/ledge/internal/physics"
)

// calculateExternalModifiers damps the speed multiplier toward the sum of the
// modifiers that apply in the current grounded state.
func (c *Controller) calculateExternalModifiers() {
	c.targetMultiplier = physics.One
	for _, m := range c.modifiers.items {
		if (m.OnGround() && c.grounded) || (m.InAir() && !c.grounded) {
			c.targetMultiplier = c.targetMultiplier.Add(m.Modifier())
		}
	}
	c.multiplier = physics.SmoothDampVec(c.multiplier, c.targetMultiplier, &c.multiplierVelocity, modifierSmoothTime, c.delta)
}

// traceGround keeps a grounded character at step height above the surface and
// couples it to any mover it rides.
func (c *Controller) traceGround() {
	var current Mover

	if c.grounded && !c.withinJumpClearance() {
		correction := c.char.GrounderLength() - c.groundHit.Distance
		if math.Abs(correction) > physics.CollisionAxisTolerance {
			move := c.up.Scale(correction)
			if c.stats.PositionCorrection == CorrectionImmediate {
				c.immediateMove = move
			} else {
				c.frameTransient = c.frameTransient.Add(move.Scale(1 / c.delta))
			}
		}

		if c.groundHit.Collider != nil {
			if m, ok := c.groundHit.Collider.Data.(Mover); ok {
				current = m
				c.movers.add(m)
			}
		}
	}

	if c.lastPlatform != current {
		// bounded movers are left through their trigger exit instead
		if c.lastPlatform != nil && !c.lastPlatform.UsesBounding() {
			c.movers.remove(c.lastPlatform)
			c.applyMoverExitVelocity(c.lastPlatform)
		}
		c.lastPlatform = current
	}

	for _, m := range c.movers.items {
		// riding only from above, never pushed from the side
		if c.framePosition.Sub(m.FramePosition()).Dot(c.up) < -physics.SkinWidth {
			continue
		}
		c.frameTransient = c.frameTransient.Add(m.FramePositionDelta().Scale(1 / c.delta))
	}
}

func (c *Controller) applyMoverExitVelocity(m Mover) {
	v := m.TakeOffVelocity()
	if v.Y < 0 {
		v.Y *= c.stats.NegativeYVelocityNegation
	}
	c.decayingVelocity = c.decayingVelocity.Add(v)
}
