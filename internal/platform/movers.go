package platform

// Simulator is the physics step that runs after platforms commit their moves.
type Simulator interface {
	Simulate(dt float64)
}

// Movers commits every platform's pending move and then steps the physics
// world, in that order, so riders and platforms move together.
type Movers struct {
	world     Simulator
	platforms []*Platform
}

func NewMovers(world Simulator) *Movers {
	return &Movers{world: world}
}

func (m *Movers) Add(p *Platform) {
	for _, existing := range m.platforms {
		if existing == p {
			return
		}
	}
	m.platforms = append(m.platforms, p)
}

func (m *Movers) Remove(p *Platform) {
	for i, existing := range m.platforms {
		if existing == p {
			m.platforms = append(m.platforms[:i], m.platforms[i+1:]...)
			return
		}
	}
}

func (m *Movers) Platforms() []*Platform {
	return append([]*Platform(nil), m.platforms...)
}

func (m *Movers) Simulate(dt float64) {
	for _, p := range m.platforms {
		p.commit()
	}
	if m.world != nil {
		m.world.Simulate(dt)
	}
}
