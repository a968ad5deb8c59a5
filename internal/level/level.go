package level

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Versifine/ledge/internal/physics"
	"github.com/Versifine/ledge/internal/platform"
	"github.com/Versifine/ledge/internal/sim"
	"gopkg.in/yaml.v3"
)

// Box is an axis-aligned solid. Layer defaults to ground.
type Box struct {
	Min   physics.Vec2   `yaml:"min"`
	Max   physics.Vec2   `yaml:"max"`
	Layer *physics.Layer `yaml:"layer"`
}

func (b Box) bounds() physics.AABB {
	return physics.AABB{Min: b.Min, Max: b.Max}
}

func (b Box) layer(def physics.Layer) physics.Layer {
	if b.Layer == nil {
		return def
	}
	return *b.Layer
}

// Slope is a one-sided segment walked from above.
type Slope struct {
	From  physics.Vec2   `yaml:"from"`
	To    physics.Vec2   `yaml:"to"`
	Layer *physics.Layer `yaml:"layer"`
}

type Level struct {
	Name      string                `yaml:"name"`
	Spawn     physics.Vec2          `yaml:"spawn"`
	Rotation  float64               `yaml:"rotation"`
	Solids    []Box                 `yaml:"solids"`
	Walls     []Box                 `yaml:"walls"`
	Slopes    []Slope               `yaml:"slopes"`
	Ladders   []Box                 `yaml:"ladders"`
	Platforms []platform.Config     `yaml:"platforms"`
	Zones     []platform.ZoneConfig `yaml:"zones"`
}

// Registrar accepts scripted entities; sim.Scheduler satisfies it.
type Registrar interface {
	Register(group sim.Group, e sim.Entity) error
}

// World is a level built into a physics space.
type World struct {
	Space     *physics.Space
	Movers    *platform.Movers
	Platforms []*platform.Platform
	Zones     []*platform.Zone
	Colliders []*physics.Collider
}

func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	lvl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return lvl, nil
}

// Parse decodes a level and rejects unknown keys.
func Parse(data []byte) (*Level, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var lvl Level
	if err := dec.Decode(&lvl); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("level is empty")
		}
		return nil, fmt.Errorf("parse level: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

func (l *Level) Validate() error {
	for i, b := range l.Solids {
		if err := validBox(b); err != nil {
			return fmt.Errorf("solid %d: %w", i, err)
		}
	}
	for i, b := range l.Walls {
		if err := validBox(b); err != nil {
			return fmt.Errorf("wall %d: %w", i, err)
		}
	}
	for i, b := range l.Ladders {
		if err := validBox(b); err != nil {
			return fmt.Errorf("ladder %d: %w", i, err)
		}
	}
	for i, s := range l.Slopes {
		if s.From.NearlyEqual(s.To, physics.CollisionAxisTolerance) {
			return fmt.Errorf("slope %d: endpoints coincide at %v", i, s.From)
		}
	}
	for _, p := range l.Platforms {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, z := range l.Zones {
		if err := z.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validBox(b Box) error {
	if b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y {
		return fmt.Errorf("bounds are empty: min=%v max=%v", b.Min, b.Max)
	}
	return nil
}

// Build adds the level's colliders to space and registers its platforms.
// The returned World's Movers is the physics step to hand to the scheduler.
func (l *Level) Build(space *physics.Space, reg Registrar) (*World, error) {
	if space == nil {
		return nil, errors.New("level: space is required")
	}
	w := &World{Space: space, Movers: platform.NewMovers(space)}

	for _, b := range l.Solids {
		w.Colliders = append(w.Colliders, space.AddBox(b.bounds(), b.layer(physics.LayerGround), false))
	}
	for _, b := range l.Walls {
		w.Colliders = append(w.Colliders, space.AddBox(b.bounds(), b.layer(physics.LayerWall), false))
	}
	for _, s := range l.Slopes {
		layer := physics.LayerGround
		if s.Layer != nil {
			layer = *s.Layer
		}
		w.Colliders = append(w.Colliders, space.AddSegment(s.From, s.To, layer))
	}
	for _, b := range l.Ladders {
		w.Colliders = append(w.Colliders, space.AddBox(b.bounds(), b.layer(physics.LayerLadder), true))
	}

	for _, cfg := range l.Platforms {
		p, err := platform.New(space, cfg)
		if err != nil {
			return nil, err
		}
		w.Platforms = append(w.Platforms, p)
		w.Movers.Add(p)
		if reg != nil {
			if err := reg.Register(sim.GroupMovers, p); err != nil {
				return nil, fmt.Errorf("register platform %q: %w", cfg.Name, err)
			}
		}
	}
	for _, cfg := range l.Zones {
		z, err := platform.NewZone(space, cfg)
		if err != nil {
			return nil, err
		}
		w.Zones = append(w.Zones, z)
	}

	slog.Info("Level built",
		"level", l.Name,
		"colliders", space.Colliders(),
		"platforms", len(w.Platforms),
		"zones", len(w.Zones),
	)
	return w, nil
}
