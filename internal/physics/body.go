package physics

import "sort"

// TriggerListener is notified when a body's sensor starts or stops overlapping
// a trigger collider. Calls happen synchronously inside Simulate.
type TriggerListener interface {
	OnTriggerEnter(c *Collider)
	OnTriggerExit(c *Collider)
}

// Body is a dynamic box driven by velocity, gravity and a constant
// acceleration. Solid resolution is axis-separated against box colliders.
type Body struct {
	space *Space

	position      Vec2
	rotation      float64
	velocity      Vec2
	gravityScale  float64
	constantForce Vec2
	kinematic     bool

	shape  Shape
	sensor Shape

	mask        LayerMask
	triggerMask LayerMask
	listener    TriggerListener

	pendingMove *Vec2
	touching    map[uint64]*Collider
}

// NewBody creates a body and adds it to the space. mask selects the solid
// layers it collides with.
func (s *Space) NewBody(pos Vec2, shape Shape, mask LayerMask) *Body {
	b := &Body{
		position:     pos,
		gravityScale: 1,
		shape:        shape,
		mask:         mask,
		triggerMask:  AllLayers,
		touching:     make(map[uint64]*Collider),
	}
	s.AddBody(b)
	return b
}

func (s *Space) AddBody(b *Body) {
	if b == nil || b.space == s {
		return
	}
	if b.space != nil {
		b.space.RemoveBody(b)
	}
	b.space = s
	s.bodies = append(s.bodies, b)
}

func (s *Space) RemoveBody(b *Body) {
	if b == nil || b.space != s {
		return
	}
	for i, other := range s.bodies {
		if other == b {
			s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
			break
		}
	}
	b.space = nil
}

func (s *Space) Bodies() []*Body {
	out := make([]*Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

// Simulate steps every body by dt.
func (s *Space) Simulate(dt float64) {
	if dt <= 0 {
		return
	}
	for _, b := range s.Bodies() {
		b.step(dt)
	}
	for _, b := range s.Bodies() {
		b.updateTriggers()
	}
}

func (b *Body) step(dt float64) {
	if b.pendingMove != nil {
		b.position = *b.pendingMove
		b.pendingMove = nil
	}

	delta := b.velocity.Scale(dt)
	if b.kinematic || b.shape.IsZero() {
		b.position = b.position.Add(delta)
	} else {
		b.moveAndCollide(delta)
	}

	if !b.kinematic {
		accel := b.space.cfg.Gravity.Scale(b.gravityScale).Add(b.constantForce)
		b.velocity = b.velocity.Add(accel.Scale(dt))
	}
}

func (b *Body) moveAndCollide(delta Vec2) {
	box := b.shape.At(b.position)
	region := box.Union(box.Translate(delta))
	solids := b.solids(region)

	dy := resolveAxis(box, delta.Y, 1, solids)
	if !nearlyEqual(dy, delta.Y) {
		b.velocity.Y = 0
	}
	box = box.Translate(Vec2{Y: dy})

	dx := resolveAxis(box, delta.X, 0, solids)
	if !nearlyEqual(dx, delta.X) {
		b.velocity.X = 0
	}

	b.position = b.position.Add(Vec2{X: dx, Y: dy})
}

func (b *Body) solids(region AABB) []*Collider {
	var out []*Collider
	for _, c := range b.space.candidates(region) {
		if c.kind != kindBox || c.trigger || !b.mask.Contains(c.layer) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (b *Body) sensorShape() Shape {
	if b.sensor.IsZero() {
		return b.shape
	}
	return b.sensor
}

func (b *Body) updateTriggers() {
	if b.space == nil {
		return
	}
	sensor := b.sensorShape()
	current := make(map[uint64]*Collider)
	if !sensor.IsZero() {
		box := sensor.At(b.position)
		for _, c := range b.space.OverlapBoxAll(box.Center(), box.Size(), Filter{Mask: b.triggerMask, Triggers: true}) {
			if c.trigger {
				current[c.id] = c
			}
		}
	}

	var exited, entered []*Collider
	for id, c := range b.touching {
		if _, still := current[id]; !still {
			exited = append(exited, c)
		}
	}
	for id, c := range current {
		if _, was := b.touching[id]; !was {
			entered = append(entered, c)
		}
	}
	b.touching = current
	if b.listener == nil {
		return
	}
	sortByID(exited)
	sortByID(entered)
	for _, c := range exited {
		b.listener.OnTriggerExit(c)
	}
	for _, c := range entered {
		b.listener.OnTriggerEnter(c)
	}
}

func sortByID(cs []*Collider) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].id < cs[j].id })
}

func (b *Body) Position() Vec2 { return b.position }

// SetPosition teleports the body and drops any deferred move.
func (b *Body) SetPosition(p Vec2) {
	b.position = p
	b.pendingMove = nil
}

// MovePosition defers a teleport to the start of the next step.
func (b *Body) MovePosition(p Vec2) {
	b.pendingMove = &p
}

func (b *Body) Rotation() float64 { return b.rotation }
func (b *Body) SetRotation(deg float64) { b.rotation = deg }
func (b *Body) Velocity() Vec2 { return b.velocity }
func (b *Body) SetVelocity(v Vec2) { b.velocity = v }
func (b *Body) GravityScale() float64 { return b.gravityScale }
func (b *Body) SetGravityScale(s float64) { b.gravityScale = s }
func (b *Body) ConstantForce() Vec2 { return b.constantForce }
func (b *Body) SetConstantForce(f Vec2) { b.constantForce = f }
func (b *Body) Kinematic() bool { return b.kinematic }
func (b *Body) SetKinematic(on bool) { b.kinematic = on }
func (b *Body) Shape() Shape { return b.shape }
func (b *Body) SetShape(s Shape) { b.shape = s }
func (b *Body) SetSensor(s Shape) { b.sensor = s }
func (b *Body) Mask() LayerMask { return b.mask }
func (b *Body) SetMask(m LayerMask) { b.mask = m }
func (b *Body) SetTriggerMask(m LayerMask) { b.triggerMask = m }
func (b *Body) SetListener(l TriggerListener) { b.listener = l }
func (b *Body) Space() *Space { return b.space }

// Bounds is the solid box at the current position.
func (b *Body) Bounds() AABB {
	return b.shape.At(b.position)
}
