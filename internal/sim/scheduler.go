package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Versifine/ledge/internal/logger"
)

const accumulatorEpsilon = 1e-9

// Entity receives the per-frame and fixed-rate hooks. now is the scheduler
// clock in seconds: the frame clock for Update and the fixed clock for
// FixedUpdate.
type Entity interface {
	Update(dt, now float64)
	FixedUpdate(dt, now float64)
}

// Simulator advances the physics world after every fixed pass.
type Simulator interface {
	Simulate(dt float64)
}

// Group is a registration set. Groups are visited in declaration order, so
// movers have moved before characters resolve against them.
type Group uint8

const (
	GroupMovers Group = iota
	GroupCharacters
	groupCount
)

func (g Group) String() string {
	switch g {
	case GroupMovers:
		return "movers"
	case GroupCharacters:
		return "characters"
	default:
		return fmt.Sprintf("group(%d)", uint8(g))
	}
}

type Config struct {
	// FixedRate is the number of fixed passes per simulated second.
	FixedRate float64
	// FrameRate drives Run's ticker.
	FrameRate float64
	// MaxFixedSteps caps fixed passes per Advance; the backlog beyond it is
	// dropped.
	MaxFixedSteps int
}

func (c Config) Validate() error {
	if c.FixedRate <= 0 {
		return fmt.Errorf("fixed rate must be > 0, got %v", c.FixedRate)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be > 0, got %v", c.FrameRate)
	}
	if c.MaxFixedSteps <= 0 {
		return fmt.Errorf("max fixed steps must be > 0, got %d", c.MaxFixedSteps)
	}
	return nil
}

// Scheduler owns the registration sets and drives every entity from a single
// goroutine. Lifecycle: NewScheduler at startup, Register, Run (or Advance
// from tests), Close once Run has returned. Only Post and Ticks are safe to
// call from other goroutines.
type Scheduler struct {
	cfg     Config
	fixedDt float64

	groups  [groupCount][]Entity
	members map[Entity]Group
	physics Simulator

	now         float64
	fixedNow    float64
	accumulator float64

	ticks  atomic.Uint64
	frames uint64

	mu     sync.Mutex
	posted []func()
	closed bool
}

func NewScheduler(cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return &Scheduler{
		cfg:     cfg,
		fixedDt: 1 / cfg.FixedRate,
		members: make(map[Entity]Group),
	}, nil
}

func (s *Scheduler) Config() Config { return s.cfg }
func (s *Scheduler) FixedDelta() float64 { return s.fixedDt }
func (s *Scheduler) Now() float64 { return s.now }
func (s *Scheduler) FixedNow() float64 { return s.fixedNow }
func (s *Scheduler) Frames() uint64 { return s.frames }

// Ticks is the number of fixed passes run so far.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

func (s *Scheduler) SetPhysics(sim Simulator) { s.physics = sim }

// Register adds e to group. An entity belongs to at most one group;
// registering it again moves it. Entities registered during a pass join on
// the next one.
func (s *Scheduler) Register(group Group, e Entity) error {
	if e == nil {
		return errors.New("scheduler: entity is nil")
	}
	if group >= groupCount {
		return fmt.Errorf("scheduler: unknown %s", group)
	}
	if s.isClosed() {
		return errors.New("scheduler: closed")
	}
	if prev, ok := s.members[e]; ok {
		if prev == group {
			return nil
		}
		s.remove(prev, e)
	}
	s.members[e] = group
	s.groups[group] = append(s.groups[group], e)
	slog.Debug("entity registered", "group", group, "count", len(s.groups[group]))
	return nil
}

// Unregister removes e. It is safe from inside e's own hooks; e receives no
// further calls, including later in the current pass.
func (s *Scheduler) Unregister(e Entity) {
	group, ok := s.members[e]
	if !ok {
		return
	}
	delete(s.members, e)
	s.remove(group, e)
	slog.Debug("entity unregistered", "group", group, "count", len(s.groups[group]))
}

func (s *Scheduler) Registered(e Entity) bool {
	_, ok := s.members[e]
	return ok
}

func (s *Scheduler) Count(group Group) int {
	if group >= groupCount {
		return 0
	}
	return len(s.groups[group])
}

func (s *Scheduler) remove(group Group, e Entity) {
	list := s.groups[group]
	for i, other := range list {
		if other == e {
			// copy so snapshots taken by an in-progress pass stay intact
			next := make([]Entity, 0, len(list)-1)
			next = append(next, list[:i]...)
			s.groups[group] = append(next, list[i+1:]...)
			return
		}
	}
}

// Post queues fn to run on the simulation goroutine at the start of the next
// Advance. It is safe for concurrent use.
func (s *Scheduler) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.posted = append(s.posted, fn)
	return true
}

// Advance runs one frame of dt seconds: posted commands, Update on every
// entity, then as many fixed passes as the accumulator holds. It returns the
// number of fixed passes run.
func (s *Scheduler) Advance(dt float64) int {
	if s.isClosed() {
		return 0
	}
	s.runPosted()
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}

	s.now += dt
	s.frames++
	s.pass(func(e Entity) { e.Update(dt, s.now) })

	s.accumulator += dt
	steps := 0
	for s.accumulator+accumulatorEpsilon >= s.fixedDt {
		if steps == s.cfg.MaxFixedSteps {
			dropped := int((s.accumulator + accumulatorEpsilon) / s.fixedDt)
			s.accumulator = math.Max(0, s.accumulator-float64(dropped)*s.fixedDt)
			logger.WarnOnce("sim.behind", "Simulation falling behind, dropping fixed steps", "dropped", dropped)
			break
		}
		s.fixedStep()
		s.accumulator -= s.fixedDt
		steps++
	}
	if s.accumulator < 0 {
		s.accumulator = 0
	}
	return steps
}

func (s *Scheduler) fixedStep() {
	s.fixedNow += s.fixedDt
	s.pass(func(e Entity) { e.FixedUpdate(s.fixedDt, s.fixedNow) })
	if s.physics != nil {
		s.physics.Simulate(s.fixedDt)
	}
	s.ticks.Add(1)
}

// pass visits a snapshot of every group and skips entities unregistered
// since the snapshot was taken.
func (s *Scheduler) pass(call func(Entity)) {
	for g := Group(0); g < groupCount; g++ {
		snapshot := s.groups[g]
		for _, e := range snapshot {
			if current, ok := s.members[e]; !ok || current != g {
				continue
			}
			call(e)
		}
	}
}

func (s *Scheduler) runPosted() {
	s.mu.Lock()
	posted := s.posted
	s.posted = nil
	s.mu.Unlock()

	for _, fn := range posted {
		fn()
	}
}

// Run advances the scheduler in real time at FrameRate until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.isClosed() {
		return errors.New("scheduler: closed")
	}
	interval := time.Duration(float64(time.Second) / s.cfg.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Simulation started", "fixed_rate", s.cfg.FixedRate, "frame_rate", s.cfg.FrameRate)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Simulation stopped", "ticks", s.Ticks())
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.Advance(dt)
		}
	}
}

// Close drops every registration and pending command. Later Advance calls do
// nothing.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.posted = nil
	s.mu.Unlock()

	for g := range s.groups {
		s.groups[g] = nil
	}
	s.members = make(map[Entity]Group)
	s.physics = nil
}

func (s *Scheduler) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
