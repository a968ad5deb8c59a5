package physics

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

var (
	Zero  = Vec2{}
	One   = Vec2{X: 1, Y: 1}
	Up    = Vec2{Y: 1}
	Right = Vec2{X: 1}
)

func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Mul multiplies component-wise.
func (v Vec2) Mul(o Vec2) Vec2 {
	return Vec2{X: v.X * o.X, Y: v.Y * o.Y}
}

func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vec2) SqrLen() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) Len() float64 {
	return math.Sqrt(v.SqrLen())
}

// Normalized returns the unit vector, or zero for vectors too short to normalize.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l < 1e-5 {
		return Zero
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vec2) NearlyEqual(o Vec2, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol
}

// UnmarshalYAML accepts either {x: 1, y: 2} or [1, 2].
func (v *Vec2) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("vec2: want 2 components, got %d", len(pair))
		}
		v.X, v.Y = pair[0], pair[1]
		return nil
	}
	type plain Vec2
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = Vec2(p)
	return nil
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// Angle returns the unsigned angle between a and b in degrees.
func Angle(a, b Vec2) float64 {
	denom := math.Sqrt(a.SqrLen() * b.SqrLen())
	if denom < 1e-15 {
		return 0
	}
	cos := Clamp(a.Dot(b)/denom, -1, 1)
	return math.Acos(cos) * 180 / math.Pi
}

// Rotated rotates v counter-clockwise by deg degrees.
func (v Vec2) Rotated(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec2{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Sign returns -1, 0 or 1.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func Lerp(a, b, t float64) float64 {
	return a + (b-a)*Clamp01(t)
}

func LerpVec(a, b Vec2, t float64) Vec2 {
	t = Clamp01(t)
	return Vec2{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

func InverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return Clamp01((v - a) / (b - a))
}

func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	return current + Sign(target-current)*maxDelta
}

func MoveTowardsVec(current, target Vec2, maxDelta float64) Vec2 {
	diff := target.Sub(current)
	dist := diff.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return current.Add(diff.Scale(maxDelta / dist))
}

// SmoothDamp critically damps current toward target over roughly smoothTime
// seconds. velocity carries state between calls.
func SmoothDamp(current, target float64, velocity *float64, smoothTime, dt float64) float64 {
	smoothTime = math.Max(0.0001, smoothTime)
	if dt <= 0 {
		return current
	}
	omega := 2 / smoothTime
	x := omega * dt
	exp := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)
	change := current - target
	originalTo := target
	target = current - change

	temp := (*velocity + omega*change) * dt
	*velocity = (*velocity - omega*temp) * exp
	out := target + (change+temp)*exp

	// no overshoot
	if (originalTo-current > 0) == (out > originalTo) {
		out = originalTo
		*velocity = (out - originalTo) / dt
	}
	return out
}

func SmoothDampVec(current, target Vec2, velocity *Vec2, smoothTime, dt float64) Vec2 {
	smoothTime = math.Max(0.0001, smoothTime)
	if dt <= 0 {
		return current
	}
	omega := 2 / smoothTime
	x := omega * dt
	exp := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)
	change := current.Sub(target)
	originalTo := target
	target = current.Sub(change)

	temp := velocity.Add(change.Scale(omega)).Scale(dt)
	*velocity = velocity.Sub(temp.Scale(omega)).Scale(exp)
	out := target.Add(change.Add(temp).Scale(exp))

	if originalTo.Sub(current).Dot(out.Sub(originalTo)) > 0 {
		out = originalTo
		*velocity = Zero
	}
	return out
}
