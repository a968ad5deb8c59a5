package physics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/solarlune/resolv"
)

type colliderKind uint8

const (
	kindBox colliderKind = iota
	kindSegment
)

// Collider is a static or script-moved piece of level geometry. Boxes block
// bodies and casts; segments are one-sided slopes seen only by rays and
// overlaps.
type Collider struct {
	Data any

	id      uint64
	kind    colliderKind
	layer   Layer
	trigger bool
	bounds  AABB
	a, b    Vec2

	space *Space
	obj   *resolv.Object
}

func (c *Collider) ID() uint64 { return c.id }
func (c *Collider) Layer() Layer { return c.layer }
func (c *Collider) IsTrigger() bool { return c.trigger }
func (c *Collider) Bounds() AABB { return c.bounds }
func (c *Collider) IsSegment() bool { return c.kind == kindSegment }
func (c *Collider) Space() *Space { return c.space }
func (c *Collider) Center() Vec2 { return c.bounds.Center() }
func (c *Collider) Segment() (a, b Vec2) { return c.a, c.b }

// SetBounds moves a box collider. Segments are translated by the same delta
// as their bounding box.
func (c *Collider) SetBounds(b AABB) {
	if c.kind == kindSegment {
		d := b.Min.Sub(c.bounds.Min)
		c.a = c.a.Add(d)
		c.b = c.b.Add(d)
	}
	c.bounds = b
	if c.space != nil {
		c.space.sync(c)
	}
}

func (c *Collider) MoveTo(center Vec2) {
	c.SetBounds(BoxAt(center, c.bounds.Size()))
}

func (c *Collider) String() string {
	kind := "box"
	if c.kind == kindSegment {
		kind = "segment"
	}
	return fmt.Sprintf("%s#%d(%s %v..%v)", kind, c.id, c.layer, c.bounds.Min, c.bounds.Max)
}

type Config struct {
	Gravity  Vec2    `yaml:"gravity"`
	Min      Vec2    `yaml:"min"`
	Max      Vec2    `yaml:"max"`
	CellSize float64 `yaml:"cell_size"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:  Vec2{Y: -DefaultGravity},
		Min:      Vec2{X: -64, Y: -64},
		Max:      Vec2{X: 64, Y: 64},
		CellSize: DefaultCellSize,
	}
}

func (c Config) Validate() error {
	if c.Max.X <= c.Min.X || c.Max.Y <= c.Min.Y {
		return fmt.Errorf("physics bounds are empty: min=%v max=%v", c.Min, c.Max)
	}
	if c.CellSize <= 0 {
		return errors.New("physics cell_size must be > 0")
	}
	return nil
}

// Space owns the level colliders and the simulated bodies. A resolv spatial
// hash serves as the broadphase; narrowphase runs on exact float geometry.
type Space struct {
	cfg    Config
	grid   *resolv.Space
	cellPx int

	nextID    uint64
	colliders map[uint64]*Collider
	// colliders that stick out of the grid bounds are always candidates.
	overflow map[uint64]*Collider
	bodies   []*Body
}

func NewSpace(cfg Config) (*Space, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cellPx := int(math.Ceil(cfg.CellSize * gridUnitsPerWorldUnit))
	size := cfg.Max.Sub(cfg.Min).Scale(gridUnitsPerWorldUnit)
	w := int(math.Ceil(size.X)) + 2*cellPx
	h := int(math.Ceil(size.Y)) + 2*cellPx

	return &Space{
		cfg:       cfg,
		grid:      resolv.NewSpace(w, h, cellPx, cellPx),
		cellPx:    cellPx,
		colliders: make(map[uint64]*Collider),
		overflow:  make(map[uint64]*Collider),
	}, nil
}

func (s *Space) Config() Config { return s.cfg }
func (s *Space) Gravity() Vec2 { return s.cfg.Gravity }

func (s *Space) SetGravity(g Vec2) { s.cfg.Gravity = g }

func (s *Space) Colliders() int { return len(s.colliders) }

// AddBox registers a box collider.
func (s *Space) AddBox(bounds AABB, layer Layer, trigger bool) *Collider {
	c := &Collider{kind: kindBox, layer: layer, trigger: trigger, bounds: bounds}
	s.Add(c)
	return c
}

// AddSegment registers a one-sided segment from a to b.
func (s *Space) AddSegment(a, b Vec2, layer Layer) *Collider {
	bounds := AABB{
		Min: Vec2{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		Max: Vec2{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
	c := &Collider{kind: kindSegment, layer: layer, bounds: bounds, a: a, b: b}
	s.Add(c)
	return c
}

func (s *Space) Add(c *Collider) {
	if c == nil || c.space == s {
		return
	}
	if c.space != nil {
		c.space.Remove(c)
	}
	s.nextID++
	c.id = s.nextID
	c.space = s
	s.colliders[c.id] = c
	s.sync(c)
}

func (s *Space) Remove(c *Collider) {
	if c == nil || c.space != s {
		return
	}
	if c.obj != nil {
		s.grid.Remove(c.obj)
		c.obj = nil
	}
	delete(s.colliders, c.id)
	delete(s.overflow, c.id)
	c.space = nil
}

func (s *Space) sync(c *Collider) {
	x, y := s.toGrid(c.bounds.Min)
	size := c.bounds.Size().Scale(gridUnitsPerWorldUnit)
	// pad by a grid unit so zero-width segments still register in a cell.
	x, y = x-1, y-1
	w, h := size.X+2, size.Y+2

	if c.obj == nil {
		c.obj = resolv.NewObject(x, y, w, h)
		c.obj.Data = c
		s.grid.Add(c.obj)
	} else {
		c.obj.X, c.obj.Y, c.obj.W, c.obj.H = x, y, w, h
		c.obj.Update()
	}

	if s.insideGrid(c.bounds) {
		delete(s.overflow, c.id)
	} else {
		s.overflow[c.id] = c
	}
}

func (s *Space) toGrid(p Vec2) (float64, float64) {
	d := p.Sub(s.cfg.Min).Scale(gridUnitsPerWorldUnit)
	off := float64(s.cellPx)
	return d.X + off, d.Y + off
}

func (s *Space) insideGrid(b AABB) bool {
	return b.Min.X >= s.cfg.Min.X && b.Min.Y >= s.cfg.Min.Y &&
		b.Max.X <= s.cfg.Max.X && b.Max.Y <= s.cfg.Max.Y
}

// candidates returns every collider whose cells touch region, ordered by id.
func (s *Space) candidates(region AABB) []*Collider {
	minX, minY := s.toGrid(region.Min)
	maxX, maxY := s.toGrid(region.Max)
	cx0, cy0 := s.grid.WorldToSpace(minX, minY)
	cx1, cy1 := s.grid.WorldToSpace(maxX, maxY)

	seen := make(map[uint64]struct{})
	out := make([]*Collider, 0, 8)
	for cy := cy0 - 1; cy <= cy1+1; cy++ {
		for cx := cx0 - 1; cx <= cx1+1; cx++ {
			cell := s.grid.Cell(cx, cy)
			if cell == nil {
				continue
			}
			for _, obj := range cell.Objects {
				c, ok := obj.Data.(*Collider)
				if !ok {
					continue
				}
				if _, dup := seen[c.id]; dup {
					continue
				}
				seen[c.id] = struct{}{}
				out = append(out, c)
			}
		}
	}
	for id, c := range s.overflow {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
