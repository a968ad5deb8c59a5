package physics

const (
	DefaultGravity = 9.81

	// SkinWidth keeps colliders from resting inside the geometry they touch.
	SkinWidth          = 0.02
	ColliderEdgeRadius = 0.05

	CollisionAxisTolerance = 1e-9
	QueryDistanceTolerance = 1e-6

	// resolv works on integer cells; world units are scaled before they reach it.
	gridUnitsPerWorldUnit = 64.0

	DefaultCellSize = 2
)
