package platform

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Versifine/ledge/internal/physics"
)

const defaultBoundingHeight = 2.0

// Config describes a platform that travels back and forth between waypoints.
// Waypoints are platform centers.
type Config struct {
	Name      string         `yaml:"name"`
	Size      physics.Vec2   `yaml:"size"`
	Waypoints []physics.Vec2 `yaml:"waypoints"`
	Speed     float64        `yaml:"speed"`
	// Wait is the pause at each waypoint, in seconds.
	Wait float64 `yaml:"wait"`
	// Bounding adds a trigger volume above the platform. Riders stay attached
	// until they leave it, not when they lose ground contact.
	Bounding       bool    `yaml:"bounding"`
	BoundingHeight float64 `yaml:"bounding_height"`
	// RequireGrounding attaches riders only once they stand on the platform.
	RequireGrounding *bool `yaml:"require_grounding"`
	// TakeOffScale scales the velocity handed to a rider stepping off.
	TakeOffScale *float64 `yaml:"take_off_scale"`
}

func (c Config) Validate() error {
	if c.Size.X <= 0 || c.Size.Y <= 0 {
		return fmt.Errorf("platform %q: size must be positive, got %v", c.Name, c.Size)
	}
	if len(c.Waypoints) == 0 {
		return fmt.Errorf("platform %q: at least one waypoint is required", c.Name)
	}
	if c.Speed < 0 {
		return fmt.Errorf("platform %q: speed must be >= 0, got %v", c.Name, c.Speed)
	}
	if c.Wait < 0 {
		return fmt.Errorf("platform %q: wait must be >= 0, got %v", c.Name, c.Wait)
	}
	return nil
}

// Platform is a scripted mover. It computes its next position in FixedUpdate
// and applies it when the physics step runs, so characters resolving in the
// same tick still see where it was.
type Platform struct {
	name             string
	size             physics.Vec2
	waypoints        []physics.Vec2
	speed            float64
	wait             float64
	bounding         bool
	boundingHeight   float64
	requireGrounding bool
	takeOffScale     float64

	solid  *physics.Collider
	sensor *physics.Collider

	position  physics.Vec2
	pending   physics.Vec2
	delta     physics.Vec2
	velocity  physics.Vec2
	target    int
	step      int
	waitUntil float64
}

// New adds the platform's colliders to space.
func New(space *physics.Space, cfg Config) (*Platform, error) {
	if space == nil {
		return nil, errors.New("platform: space is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Platform{
		name:             cfg.Name,
		size:             cfg.Size,
		waypoints:        append([]physics.Vec2(nil), cfg.Waypoints...),
		speed:            cfg.Speed,
		wait:             cfg.Wait,
		bounding:         cfg.Bounding,
		boundingHeight:   cfg.BoundingHeight,
		requireGrounding: true,
		takeOffScale:     1,
		position:         cfg.Waypoints[0],
		step:             1,
	}
	if cfg.RequireGrounding != nil {
		p.requireGrounding = *cfg.RequireGrounding
	}
	if cfg.TakeOffScale != nil {
		p.takeOffScale = *cfg.TakeOffScale
	}
	if p.boundingHeight <= 0 {
		p.boundingHeight = defaultBoundingHeight
	}
	if len(p.waypoints) > 1 {
		p.target = 1
	}
	p.pending = p.position

	p.solid = space.AddBox(physics.BoxAt(p.position, p.size), physics.LayerPlatform, false)
	p.solid.Data = p
	if p.bounding {
		p.sensor = space.AddBox(p.sensorBounds(p.position), physics.LayerPlatform, true)
		p.sensor.Data = p
	}
	return p, nil
}

func (p *Platform) sensorBounds(center physics.Vec2) physics.AABB {
	top := center.Y + p.size.Y/2
	return physics.AABB{
		Min: physics.V(center.X-p.size.X/2, top),
		Max: physics.V(center.X+p.size.X/2, top+p.boundingHeight),
	}
}

func (p *Platform) Name() string { return p.name }
func (p *Platform) Position() physics.Vec2 { return p.position }
func (p *Platform) Collider() *physics.Collider { return p.solid }
func (p *Platform) Sensor() *physics.Collider { return p.sensor }

func (p *Platform) UsesBounding() bool { return p.bounding }
func (p *Platform) RequireGrounding() bool { return p.requireGrounding }

// FramePositionDelta is the displacement the platform makes in the current
// physics step.
func (p *Platform) FramePositionDelta() physics.Vec2 { return p.delta }

// FramePosition is the top center of the platform, the height riders stand at.
func (p *Platform) FramePosition() physics.Vec2 {
	return physics.V(p.position.X, p.position.Y+p.size.Y/2)
}

func (p *Platform) Velocity() physics.Vec2 { return p.velocity }

func (p *Platform) TakeOffVelocity() physics.Vec2 {
	return p.velocity.Scale(p.takeOffScale)
}

// Update does nothing; platforms only move on fixed ticks.
func (p *Platform) Update(dt, now float64) {}

func (p *Platform) FixedUpdate(dt, now float64) {
	if dt <= 0 {
		return
	}
	next := p.position
	if len(p.waypoints) > 1 && now >= p.waitUntil {
		target := p.waypoints[p.target]
		next = physics.MoveTowardsVec(p.position, target, p.speed*dt)
		if next.NearlyEqual(target, physics.CollisionAxisTolerance) {
			next = target
			p.advanceTarget()
			if p.wait > 0 {
				p.waitUntil = now + p.wait
			}
		}
	}
	p.pending = next
	p.delta = next.Sub(p.position)
	p.velocity = p.delta.Scale(1 / dt)
}

// advanceTarget walks the waypoint list back and forth.
func (p *Platform) advanceTarget() {
	last := len(p.waypoints) - 1
	if p.target+p.step < 0 || p.target+p.step > last {
		p.step = -p.step
	}
	p.target += p.step
	slog.Debug("platform reached waypoint", "platform", p.name, "next", p.target)
}

// commit moves the colliders to the position computed by FixedUpdate.
func (p *Platform) commit() {
	if p.pending == p.position {
		return
	}
	p.position = p.pending
	p.solid.MoveTo(p.position)
	if p.sensor != nil {
		p.sensor.SetBounds(p.sensorBounds(p.position))
	}
}

// Remove takes the platform's colliders out of their space.
func (p *Platform) Remove() {
	if s := p.solid.Space(); s != nil {
		s.Remove(p.solid)
	}
	if p.sensor != nil {
		if s := p.sensor.Space(); s != nil {
			s.Remove(p.sensor)
		}
	}
}
