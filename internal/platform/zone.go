package platform

import (
	"errors"
	"fmt"

	"github.com/Versifine/ledge/internal/physics"
)

// ZoneConfig describes a trigger area that changes a character's speed.
// Modifier is added to the character's (1, 1) multiplier, so (-0.5, 0) halves
// horizontal speed.
type ZoneConfig struct {
	Name     string       `yaml:"name"`
	Min      physics.Vec2 `yaml:"min"`
	Max      physics.Vec2 `yaml:"max"`
	Modifier physics.Vec2 `yaml:"modifier"`
	OnGround bool         `yaml:"on_ground"`
	InAir    bool         `yaml:"in_air"`
}

func (c ZoneConfig) Validate() error {
	if c.Max.X <= c.Min.X || c.Max.Y <= c.Min.Y {
		return fmt.Errorf("zone %q: bounds are empty: min=%v max=%v", c.Name, c.Min, c.Max)
	}
	if !c.OnGround && !c.InAir {
		return fmt.Errorf("zone %q: applies neither on ground nor in air", c.Name)
	}
	return nil
}

// Zone is a speed modifier backed by a trigger collider.
type Zone struct {
	name     string
	modifier physics.Vec2
	onGround bool
	inAir    bool
	collider *physics.Collider
}

func NewZone(space *physics.Space, cfg ZoneConfig) (*Zone, error) {
	if space == nil {
		return nil, errors.New("zone: space is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	z := &Zone{
		name:     cfg.Name,
		modifier: cfg.Modifier,
		onGround: cfg.OnGround,
		inAir:    cfg.InAir,
	}
	z.collider = space.AddBox(physics.AABB{Min: cfg.Min, Max: cfg.Max}, physics.LayerZone, true)
	z.collider.Data = z
	return z, nil
}

func (z *Zone) Name() string { return z.name }
func (z *Zone) Collider() *physics.Collider { return z.collider }
func (z *Zone) InAir() bool { return z.inAir }
func (z *Zone) OnGround() bool { return z.onGround }
func (z *Zone) Modifier() physics.Vec2 { return z.modifier }
