package physics

import "math"

type AABB struct {
	Min Vec2
	Max Vec2
}

// BoxAt builds an AABB from a center point and full size.
func BoxAt(center, size Vec2) AABB {
	half := Vec2{X: math.Abs(size.X) / 2, Y: math.Abs(size.Y) / 2}
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Rect builds an AABB from its bottom-left corner and size.
func Rect(x, y, w, h float64) AABB {
	return AABB{Min: Vec2{X: x, Y: y}, Max: Vec2{X: x + w, Y: y + h}}
}

func (a AABB) Center() Vec2 {
	return Vec2{X: (a.Min.X + a.Max.X) / 2, Y: (a.Min.Y + a.Max.Y) / 2}
}

func (a AABB) Size() Vec2 {
	return a.Max.Sub(a.Min)
}

func (a AABB) Translate(d Vec2) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

func (a AABB) Expand(half Vec2) AABB {
	return AABB{Min: a.Min.Sub(half), Max: a.Max.Add(half)}
}

func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: Vec2{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y)},
		Max: Vec2{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y)},
	}
}

// Intersects reports strict overlap; touching edges do not intersect.
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X < b.Max.X &&
		a.Max.X > b.Min.X &&
		a.Min.Y < b.Max.Y &&
		a.Max.Y > b.Min.Y
}

// Touches is Intersects with inclusive edges.
func (a AABB) Touches(b AABB) bool {
	return a.Min.X <= b.Max.X &&
		a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y &&
		a.Max.Y >= b.Min.Y
}

func (a AABB) ContainsStrict(p Vec2) bool {
	return p.X > a.Min.X && p.X < a.Max.X && p.Y > a.Min.Y && p.Y < a.Max.Y
}

// Shape is a box relative to a body position.
type Shape struct {
	Size   Vec2
	Offset Vec2
}

func (s Shape) At(pos Vec2) AABB {
	return BoxAt(pos.Add(s.Offset), s.Size)
}

func (s Shape) IsZero() bool {
	return s.Size.X <= 0 || s.Size.Y <= 0
}

// rayBox intersects a ray with an AABB using the slab method. Rays whose
// origin is strictly inside the box do not hit it.
func rayBox(origin, dir Vec2, maxDist float64, box AABB) (float64, Vec2, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	var normal Vec2

	o := [2]float64{origin.X, origin.Y}
	d := [2]float64{dir.X, dir.Y}
	lo := [2]float64{box.Min.X, box.Min.Y}
	hi := [2]float64{box.Max.X, box.Max.Y}

	for axis := 0; axis < 2; axis++ {
		if math.Abs(d[axis]) < CollisionAxisTolerance {
			if o[axis] <= lo[axis] || o[axis] >= hi[axis] {
				return 0, Zero, false
			}
			continue
		}
		t1 := (lo[axis] - o[axis]) / d[axis]
		t2 := (hi[axis] - o[axis]) / d[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			normal = Zero
			if axis == 0 {
				normal.X = -Sign(d[axis])
			} else {
				normal.Y = -Sign(d[axis])
			}
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, Zero, false
	}
	if tmin < 0 {
		// origin inside
		return 0, Zero, false
	}
	if tmin > maxDist+QueryDistanceTolerance {
		return 0, Zero, false
	}
	return tmin, normal, true
}

// raySegment intersects a ray with a segment; the normal faces the ray origin.
func raySegment(origin, dir Vec2, maxDist float64, a, b Vec2) (float64, Vec2, bool) {
	e := b.Sub(a)
	denom := dir.Cross(e)
	if math.Abs(denom) < CollisionAxisTolerance {
		return 0, Zero, false
	}
	ao := a.Sub(origin)
	t := ao.Cross(e) / denom
	u := ao.Cross(dir) / denom
	if t < 0 || t > maxDist+QueryDistanceTolerance || u < 0 || u > 1 {
		return 0, Zero, false
	}
	n := Vec2{X: -e.Y, Y: e.X}.Normalized()
	if n.Dot(dir) > 0 {
		n = n.Neg()
	}
	return t, n, true
}

// segmentTouchesBox clips the segment against the box (Liang-Barsky).
func segmentTouchesBox(a, b Vec2, box AABB) bool {
	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-d.X, a.X - box.Min.X},
		{d.X, box.Max.X - a.X},
		{-d.Y, a.Y - box.Min.Y},
		{d.Y, box.Max.Y - a.Y},
	}
	for _, edge := range edges {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return true
}

// sweepBox casts box along dir against target. A box already overlapping the
// target hits at distance zero.
func sweepBox(box AABB, dir Vec2, maxDist float64, target AABB) (float64, Vec2, bool) {
	if box.Intersects(target) {
		return 0, dir.Neg().Normalized(), true
	}
	half := box.Size().Scale(0.5)
	expanded := target.Expand(half)
	center := box.Center()
	if dist, normal, ok := rayBox(center, dir, maxDist, expanded); ok {
		return dist, normal, true
	}
	return 0, Zero, false
}

func axisOf(v Vec2, axis int) float64 {
	if axis == 0 {
		return v.X
	}
	return v.Y
}

func overlapsOnAxis(a, b AABB, axis int) bool {
	return axisOf(a.Min, axis) < axisOf(b.Max, axis)-CollisionAxisTolerance &&
		axisOf(a.Max, axis) > axisOf(b.Min, axis)+CollisionAxisTolerance
}

// resolveAxis clamps a move of box by delta along axis so it stops flush
// against the first solid in the way. Solids the box already overlaps are
// ignored so a body can always leave them.
func resolveAxis(box AABB, delta float64, axis int, solids []*Collider) float64 {
	if nearlyZero(delta) {
		return delta
	}
	other := 1 - axis
	allowed := delta
	for _, c := range solids {
		if c.kind != kindBox {
			continue
		}
		target := c.bounds
		if !overlapsOnAxis(box, target, other) {
			continue
		}
		if delta > 0 {
			gap := axisOf(target.Min, axis) - axisOf(box.Max, axis)
			if gap < -CollisionAxisTolerance {
				continue
			}
			if gap < allowed {
				allowed = math.Max(gap, 0)
			}
		} else {
			gap := axisOf(target.Max, axis) - axisOf(box.Min, axis)
			if gap > CollisionAxisTolerance {
				continue
			}
			if gap > allowed {
				allowed = math.Min(gap, 0)
			}
		}
	}
	return allowed
}

func nearlyZero(v float64) bool {
	return math.Abs(v) <= CollisionAxisTolerance
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= CollisionAxisTolerance
}
