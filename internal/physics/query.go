package physics

// Filter selects which colliders a query may report.
type Filter struct {
	Mask LayerMask
	// Triggers lets trigger colliders be reported.
	Triggers bool
}

func (f Filter) accepts(c *Collider) bool {
	if !f.Mask.Contains(c.layer) {
		return false
	}
	if c.trigger && !f.Triggers {
		return false
	}
	return true
}

type Hit struct {
	Point    Vec2
	Normal   Vec2
	Distance float64
	Collider *Collider
}

// RayCast returns the closest hit along dir within distance. Colliders that
// contain the origin are ignored and a hit exactly at distance counts.
func (s *Space) RayCast(origin, dir Vec2, distance float64, f Filter) (Hit, bool) {
	dir = dir.Normalized()
	if dir.IsZero() || distance < 0 {
		return Hit{}, false
	}
	end := origin.Add(dir.Scale(distance))
	region := AABB{Min: origin, Max: origin}.Union(AABB{Min: end, Max: end})

	var best Hit
	found := false
	for _, c := range s.candidates(region) {
		if !f.accepts(c) {
			continue
		}
		var (
			dist   float64
			normal Vec2
			ok     bool
		)
		if c.kind == kindSegment {
			dist, normal, ok = raySegment(origin, dir, distance, c.a, c.b)
		} else {
			dist, normal, ok = rayBox(origin, dir, distance, c.bounds)
		}
		if !ok {
			continue
		}
		if !found || dist < best.Distance {
			best = Hit{
				Point:    origin.Add(dir.Scale(dist)),
				Normal:   normal,
				Distance: dist,
				Collider: c,
			}
			found = true
		}
	}
	return best, found
}

// BoxCast sweeps an axis-aligned box along dir against box colliders. A box
// that starts overlapping a collider reports it at distance zero.
func (s *Space) BoxCast(center, size, dir Vec2, distance float64, f Filter) (Hit, bool) {
	dir = dir.Normalized()
	box := BoxAt(center, size)
	if dir.IsZero() || distance < 0 {
		return Hit{}, false
	}
	region := box.Union(box.Translate(dir.Scale(distance)))

	var best Hit
	found := false
	for _, c := range s.candidates(region) {
		if c.kind != kindBox || !f.accepts(c) {
			continue
		}
		dist, normal, ok := sweepBox(box, dir, distance, c.bounds)
		if !ok {
			continue
		}
		if !found || dist < best.Distance {
			best = Hit{
				Point:    center.Add(dir.Scale(dist)),
				Normal:   normal,
				Distance: dist,
				Collider: c,
			}
			found = true
		}
	}
	return best, found
}

// OverlapBox returns the first collider (lowest id) overlapping the box.
func (s *Space) OverlapBox(center, size Vec2, f Filter) (*Collider, bool) {
	all := s.OverlapBoxAll(center, size, f)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

func (s *Space) OverlapBoxAll(center, size Vec2, f Filter) []*Collider {
	box := BoxAt(center, size)
	var out []*Collider
	for _, c := range s.candidates(box) {
		if !f.accepts(c) {
			continue
		}
		if c.overlaps(box) {
			out = append(out, c)
		}
	}
	return out
}

func (c *Collider) overlaps(box AABB) bool {
	if c.kind == kindSegment {
		return segmentTouchesBox(c.a, c.b, box)
	}
	return c.bounds.Intersects(box)
}
