package controller

import "log/slog"

func (c *Controller) crouchPressed() bool {
	return c.frameInput.Move.Y < -c.stats.VerticalDeadZone
}

// calculateCrouch runs after movement so the collider swap never feeds into
// this tick's transient velocity.
func (c *Controller) calculateCrouch() {
	if !c.stats.AllowCrouching {
		return
	}
	switch {
	case !c.crouching && c.crouchPressed() && c.grounded:
		c.toggleCrouching(true)
	case c.crouching && (!c.crouchPressed() || !c.grounded):
		c.toggleCrouching(false)
	}
}

func (c *Controller) toggleCrouching(crouch bool) {
	if crouch {
		c.timeStartedCrouching = c.time
		c.crouching = true
	} else {
		if !c.canStand() {
			return
		}
		c.crouching = false
	}
	slog.Debug("crouch changed", "controller", c.name, "crouching", c.crouching)
	c.setColliderMode(ColliderModeFor(c.grounded, c.crouching))
}
