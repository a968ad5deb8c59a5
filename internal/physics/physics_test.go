package physics

import (
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func newTestSpace(t *testing.T) *Space {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Gravity = Vec2{Y: -10}
	s, err := NewSpace(cfg)
	if err != nil {
		t.Fatalf("NewSpace() error = %v", err)
	}
	return s
}

var solidFilter = Filter{Mask: AllLayers}

type recordingListener struct {
	events []string
}

func (r *recordingListener) OnTriggerEnter(c *Collider) {
	r.events = append(r.events, "enter:"+c.Data.(string))
}

func (r *recordingListener) OnTriggerExit(c *Collider) {
	r.events = append(r.events, "exit:"+c.Data.(string))
}

func TestNewSpace_RejectsEmptyBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Max = cfg.Min
	if _, err := NewSpace(cfg); err == nil {
		t.Fatalf("NewSpace() error = nil, want error")
	}
}

func TestRayCast_HitsGroundTop(t *testing.T) {
	s := newTestSpace(t)
	ground := s.AddBox(Rect(-5, -1, 10, 1), LayerGround, false)

	hit, ok := s.RayCast(Vec2{Y: 2}, Vec2{Y: -1}, 5, solidFilter)
	if !ok {
		t.Fatalf("RayCast() hit = false, want true")
	}
	if hit.Collider != ground {
		t.Fatalf("hit collider = %v, want %v", hit.Collider, ground)
	}
	approxEqual(t, hit.Distance, 2, 1e-9, "distance")
	approxEqual(t, hit.Point.Y, 0, 1e-9, "point.y")
	approxEqual(t, hit.Normal.Y, 1, 1e-9, "normal.y")
}

func TestRayCast_IgnoresColliderContainingOrigin(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(-5, -1, 10, 1), LayerGround, false)

	if hit, ok := s.RayCast(Vec2{Y: -0.5}, Vec2{Y: -1}, 5, solidFilter); ok {
		t.Fatalf("RayCast() = %+v, want no hit", hit)
	}
}

func TestRayCast_HitExactlyAtDistanceCounts(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(-5, -1, 10, 1), LayerGround, false)

	if _, ok := s.RayCast(Vec2{Y: 2}, Vec2{Y: -1}, 2, solidFilter); !ok {
		t.Fatalf("RayCast() at exact distance missed")
	}
	if _, ok := s.RayCast(Vec2{Y: 2}, Vec2{Y: -1}, 1.99, solidFilter); ok {
		t.Fatalf("RayCast() short of the surface hit")
	}
}

func TestRayCast_ClosestOfSeveral(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(-5, -3, 10, 1), LayerGround, false)
	near := s.AddBox(Rect(-1, -1, 2, 1), LayerPlatform, false)

	hit, ok := s.RayCast(Vec2{Y: 1}, Vec2{Y: -1}, 10, solidFilter)
	if !ok || hit.Collider != near {
		t.Fatalf("RayCast() = %+v, %v, want the nearer platform", hit, ok)
	}
}

func TestRayCast_SlopeSegmentNormal(t *testing.T) {
	s := newTestSpace(t)
	s.AddSegment(Vec2{}, Vec2{X: 2, Y: 2}, LayerGround)

	hit, ok := s.RayCast(Vec2{X: 1, Y: 3}, Vec2{Y: -1}, 5, solidFilter)
	if !ok {
		t.Fatalf("RayCast() on slope missed")
	}
	approxEqual(t, hit.Distance, 2, 1e-9, "distance")
	approxEqual(t, Angle(hit.Normal, Up), 45, 1e-6, "slope angle")
	if hit.Normal.Y <= 0 {
		t.Fatalf("normal = %v, want facing the ray origin", hit.Normal)
	}
}

func TestRayCast_Filter(t *testing.T) {
	tests := []struct {
		name    string
		layer   Layer
		trigger bool
		filter  Filter
		wantHit bool
	}{
		{name: "mask match", layer: LayerGround, filter: Filter{Mask: Mask(LayerGround)}, wantHit: true},
		{name: "mask miss", layer: LayerWall, filter: Filter{Mask: Mask(LayerGround)}},
		{name: "zero mask", layer: LayerGround, filter: Filter{}},
		{name: "trigger hidden", layer: LayerLadder, trigger: true, filter: Filter{Mask: AllLayers}},
		{name: "trigger shown", layer: LayerLadder, trigger: true, filter: Filter{Mask: AllLayers, Triggers: true}, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSpace(t)
			s.AddBox(Rect(-1, -1, 2, 1), tt.layer, tt.trigger)
			_, ok := s.RayCast(Vec2{Y: 1}, Vec2{Y: -1}, 5, tt.filter)
			if ok != tt.wantHit {
				t.Fatalf("RayCast() hit = %v, want %v", ok, tt.wantHit)
			}
		})
	}
}

func TestBoxCast_SweepsToWall(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(2, 0, 1, 2), LayerWall, false)

	hit, ok := s.BoxCast(Vec2{Y: 1}, Vec2{X: 1, Y: 1}, Right, 5, solidFilter)
	if !ok {
		t.Fatalf("BoxCast() missed")
	}
	approxEqual(t, hit.Distance, 1.5, 1e-9, "distance")
	approxEqual(t, hit.Normal.X, -1, 1e-9, "normal.x")
}

func TestBoxCast_StartingOverlapHitsAtZero(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(0, 0, 1, 1), LayerWall, false)

	hit, ok := s.BoxCast(Vec2{X: 0.2, Y: 0.5}, Vec2{X: 1, Y: 1}, Right, 1, solidFilter)
	if !ok {
		t.Fatalf("BoxCast() missed overlapping collider")
	}
	approxEqual(t, hit.Distance, 0, 1e-12, "distance")
}

func TestBoxCast_IgnoresSegments(t *testing.T) {
	s := newTestSpace(t)
	s.AddSegment(Vec2{X: 1, Y: -1}, Vec2{X: 1, Y: 3}, LayerWall)

	if _, ok := s.BoxCast(Vec2{Y: 1}, Vec2{X: 1, Y: 1}, Right, 5, solidFilter); ok {
		t.Fatalf("BoxCast() hit a segment")
	}
}

func TestOverlapBox(t *testing.T) {
	s := newTestSpace(t)
	ladder := s.AddBox(Rect(0, 0, 1, 4), LayerLadder, true)
	s.AddSegment(Vec2{X: 3}, Vec2{X: 5, Y: 2}, LayerGround)

	got, ok := s.OverlapBox(Vec2{X: 0.5, Y: 1}, Vec2{X: 0.4, Y: 0.4}, Filter{Mask: Mask(LayerLadder), Triggers: true})
	if !ok || got != ladder {
		t.Fatalf("OverlapBox() = %v, %v, want ladder", got, ok)
	}
	if _, ok := s.OverlapBox(Vec2{X: 0.5, Y: 1}, Vec2{X: 0.4, Y: 0.4}, Filter{Mask: Mask(LayerLadder)}); ok {
		t.Fatalf("OverlapBox() reported a trigger without Triggers")
	}
	if _, ok := s.OverlapBox(Vec2{X: 4, Y: 1}, Vec2{X: 0.5, Y: 0.5}, solidFilter); !ok {
		t.Fatalf("OverlapBox() missed slope segment")
	}
	if _, ok := s.OverlapBox(Vec2{X: 3.2, Y: 1.5}, Vec2{X: 0.2, Y: 0.2}, solidFilter); ok {
		t.Fatalf("OverlapBox() above the slope reported a hit")
	}
}

func TestCollider_SetBoundsUpdatesBroadphase(t *testing.T) {
	s := newTestSpace(t)
	c := s.AddBox(Rect(-1, -1, 2, 1), LayerPlatform, false)

	c.MoveTo(Vec2{X: 20, Y: 10})

	if _, ok := s.RayCast(Vec2{Y: 1}, Vec2{Y: -1}, 5, solidFilter); ok {
		t.Fatalf("RayCast() hit collider at its old position")
	}
	hit, ok := s.RayCast(Vec2{X: 20, Y: 12}, Vec2{Y: -1}, 5, solidFilter)
	if !ok || hit.Collider != c {
		t.Fatalf("RayCast() = %+v, %v, want moved collider", hit, ok)
	}
	approxEqual(t, hit.Point.Y, 10.5, 1e-9, "point.y")
}

func TestSpace_CollidersOutsideBoundsStillQueried(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(100, 0, 2, 1), LayerGround, false)

	if _, ok := s.RayCast(Vec2{X: 101, Y: 3}, Vec2{Y: -1}, 5, solidFilter); !ok {
		t.Fatalf("RayCast() missed collider outside the grid bounds")
	}
}

func TestSpace_RemoveCollider(t *testing.T) {
	s := newTestSpace(t)
	c := s.AddBox(Rect(-1, -1, 2, 1), LayerGround, false)
	s.Remove(c)

	if s.Colliders() != 0 {
		t.Fatalf("Colliders() = %d, want 0", s.Colliders())
	}
	if _, ok := s.RayCast(Vec2{Y: 1}, Vec2{Y: -1}, 5, solidFilter); ok {
		t.Fatalf("RayCast() hit removed collider")
	}
}

func TestSimulate_MovesThenIntegrates(t *testing.T) {
	s := newTestSpace(t)
	b := s.NewBody(Vec2{Y: 10}, Shape{Size: One}, AllLayers)

	s.Simulate(0.1)
	approxEqual(t, b.Position().Y, 10, 1e-9, "position.y after first step")
	approxEqual(t, b.Velocity().Y, -1, 1e-9, "velocity.y after first step")

	s.Simulate(0.1)
	approxEqual(t, b.Position().Y, 9.9, 1e-9, "position.y after second step")
	approxEqual(t, b.Velocity().Y, -2, 1e-9, "velocity.y after second step")
}

func TestSimulate_GravityScaleAndConstantForce(t *testing.T) {
	s := newTestSpace(t)
	b := s.NewBody(Vec2{Y: 10}, Shape{Size: One}, AllLayers)
	b.SetGravityScale(0)
	b.SetConstantForce(Vec2{X: 4})

	s.Simulate(0.5)
	approxEqual(t, b.Velocity().X, 2, 1e-9, "velocity.x")
	approxEqual(t, b.Velocity().Y, 0, 1e-9, "velocity.y")
}

func TestSimulate_LandsFlushOnGround(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(-5, -1, 10, 1), LayerGround, false)
	b := s.NewBody(Vec2{Y: 0.2}, Shape{Size: One, Offset: Vec2{Y: 0.5}}, Mask(LayerGround))
	b.SetVelocity(Vec2{Y: -5})

	s.Simulate(0.1)

	approxEqual(t, b.Position().Y, 0, 1e-9, "position.y")
	approxEqual(t, b.Velocity().Y, -1, 1e-9, "velocity.y")
}

func TestSimulate_WallStopsHorizontalMovement(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(1, 0, 1, 3), LayerWall, false)
	b := s.NewBody(Vec2{X: 0, Y: 1}, Shape{Size: One}, Mask(LayerWall))
	b.SetGravityScale(0)
	b.SetVelocity(Vec2{X: 10})

	s.Simulate(0.1)

	approxEqual(t, b.Position().X, 0.5, 1e-9, "position.x")
	approxEqual(t, b.Velocity().X, 0, 1e-9, "velocity.x")
}

func TestSimulate_SolidMaskAndTriggersDoNotBlock(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(1, 0, 1, 3), LayerWall, false)
	s.AddBox(Rect(0.6, 0, 0.2, 3), LayerZone, true)
	b := s.NewBody(Vec2{Y: 1}, Shape{Size: One}, Mask(LayerGround))
	b.SetGravityScale(0)
	b.SetVelocity(Vec2{X: 10})

	s.Simulate(0.1)

	approxEqual(t, b.Position().X, 1, 1e-9, "position.x")
}

func TestSimulate_LeavesOverlappingSolid(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(-1, -1, 2, 2), LayerGround, false)
	b := s.NewBody(Vec2{}, Shape{Size: One}, AllLayers)
	b.SetGravityScale(0)
	b.SetVelocity(Vec2{Y: 10})

	s.Simulate(0.1)

	approxEqual(t, b.Position().Y, 1, 1e-9, "position.y")
}

func TestSimulate_MovePositionIsDeferred(t *testing.T) {
	s := newTestSpace(t)
	b := s.NewBody(Vec2{}, Shape{Size: One}, AllLayers)
	b.SetGravityScale(0)

	b.MovePosition(Vec2{X: 3, Y: 4})
	if !b.Position().IsZero() {
		t.Fatalf("position = %v before step, want unchanged", b.Position())
	}
	s.Simulate(0.02)
	if !b.Position().NearlyEqual(Vec2{X: 3, Y: 4}, 1e-9) {
		t.Fatalf("position = %v, want (3, 4)", b.Position())
	}
}

func TestSimulate_TriggerEnterAndExit(t *testing.T) {
	s := newTestSpace(t)
	zone := s.AddBox(Rect(2, 0, 1, 2), LayerZone, true)
	zone.Data = "zone"
	s.AddBox(Rect(2, 3, 1, 2), LayerWall, false).Data = "solid"

	b := s.NewBody(Vec2{Y: 1}, Shape{Size: One}, 0)
	b.SetGravityScale(0)
	rec := &recordingListener{}
	b.SetListener(rec)

	b.SetVelocity(Vec2{X: 20})
	s.Simulate(0.1)
	if len(rec.events) != 1 || rec.events[0] != "enter:zone" {
		t.Fatalf("events = %v, want [enter:zone]", rec.events)
	}

	s.Simulate(0.1)
	s.Simulate(0.1)
	if len(rec.events) != 2 || rec.events[1] != "exit:zone" {
		t.Fatalf("events = %v, want exit after enter", rec.events)
	}
}

func TestSimulate_KinematicIgnoresGravityAndSolids(t *testing.T) {
	s := newTestSpace(t)
	s.AddBox(Rect(1, 0, 1, 3), LayerWall, false)
	b := s.NewBody(Vec2{Y: 1}, Shape{Size: One}, AllLayers)
	b.SetKinematic(true)
	b.SetVelocity(Vec2{X: 10})

	s.Simulate(0.2)

	approxEqual(t, b.Position().X, 2, 1e-9, "position.x")
	approxEqual(t, b.Velocity().Y, 0, 1e-9, "velocity.y")
}

func TestSmoothDamp_ConvergesWithoutOvershoot(t *testing.T) {
	var vel float64
	cur := 0.0
	for i := 0; i < 200; i++ {
		cur = SmoothDamp(cur, 1, &vel, 0.1, 0.02)
		if cur > 1+1e-12 {
			t.Fatalf("step %d: SmoothDamp overshot to %.8f", i, cur)
		}
	}
	approxEqual(t, cur, 1, 1e-4, "smoothed value")
}

func TestSmoothDampVec_Converges(t *testing.T) {
	var vel Vec2
	cur := One
	target := Vec2{X: 0.5, Y: 1.5}
	for i := 0; i < 200; i++ {
		cur = SmoothDampVec(cur, target, &vel, 0.1, 0.02)
	}
	if !cur.NearlyEqual(target, 1e-4) {
		t.Fatalf("SmoothDampVec() = %v, want %v", cur, target)
	}
}

func TestScalarHelpers(t *testing.T) {
	approxEqual(t, MoveTowards(0, 10, 3), 3, 1e-12, "MoveTowards partial")
	approxEqual(t, MoveTowards(9, 10, 3), 10, 1e-12, "MoveTowards arrive")
	approxEqual(t, MoveTowards(0, -10, 3), -3, 1e-12, "MoveTowards negative")
	approxEqual(t, InverseLerp(2, 2, 5), 0, 1e-12, "InverseLerp degenerate")
	approxEqual(t, InverseLerp(0, 4, 1), 0.25, 1e-12, "InverseLerp")
	approxEqual(t, InverseLerp(0, 4, 9), 1, 1e-12, "InverseLerp clamped")
	approxEqual(t, Lerp(0, 10, 2), 10, 1e-12, "Lerp clamped")
	approxEqual(t, Angle(Up, Right), 90, 1e-9, "Angle")
	approxEqual(t, Angle(Up, Vec2{X: 1, Y: 1}), 45, 1e-9, "Angle 45")
	if got := Right.Rotated(90); !got.NearlyEqual(Up, 1e-12) {
		t.Fatalf("Rotated(90) = %v, want %v", got, Up)
	}
	if !(Vec2{X: 1e-7}).Normalized().IsZero() {
		t.Fatalf("Normalized() of tiny vector should be zero")
	}
}

func TestLayerMask_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want LayerMask
	}{
		{name: "list", src: "[ground, platform]", want: Mask(LayerGround, LayerPlatform)},
		{name: "single", src: "wall", want: Mask(LayerWall)},
		{name: "all", src: "all", want: AllLayers},
		{name: "int", src: "6", want: Mask(LayerGround, LayerPlatform)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got LayerMask
			if err := yaml.Unmarshal([]byte(tt.src), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("mask = %s, want %s", got, tt.want)
			}
		})
	}

	var bad LayerMask
	if err := yaml.Unmarshal([]byte("[ground, lava]"), &bad); err == nil {
		t.Fatalf("Unmarshal() unknown layer error = nil")
	}
}

func TestVec2_UnmarshalYAML(t *testing.T) {
	var got struct {
		A Vec2 `yaml:"a"`
		B Vec2 `yaml:"b"`
	}
	src := "a: [1.5, -2]\nb: {x: 3, y: 4}\n"
	if err := yaml.Unmarshal([]byte(src), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.A != (Vec2{X: 1.5, Y: -2}) || got.B != (Vec2{X: 3, Y: 4}) {
		t.Fatalf("decoded = %+v", got)
	}
	if err := yaml.Unmarshal([]byte("a: [1, 2, 3]\n"), &got); err == nil {
		t.Fatalf("Unmarshal() with 3 components error = nil")
	}
}
