package controller

import (
	"fmt"

	"github.com/Versifine/ledge/internal/geometry"
	"github.com/Versifine/ledge/internal/physics"
	"gopkg.in/yaml.v3"
)

type PositionCorrectionMode string

const (
	// CorrectionVelocity applies ground corrections as a one-tick velocity.
	CorrectionVelocity PositionCorrectionMode = "velocity"
	// CorrectionImmediate moves the body to the corrected position.
	CorrectionImmediate PositionCorrectionMode = "immediate"
)

func (m *PositionCorrectionMode) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch PositionCorrectionMode(raw) {
	case CorrectionVelocity, CorrectionImmediate:
		*m = PositionCorrectionMode(raw)
		return nil
	default:
		return fmt.Errorf("unknown position correction mode %q", raw)
	}
}

// Stats is the read-only tuning bundle for a controller. Times are seconds,
// speeds are units per second.
type Stats struct {
	CollisionLayers physics.LayerMask `yaml:"collision_layers"`
	Size            geometry.Size     `yaml:"size"`

	VerticalDeadZone   float64                `yaml:"vertical_dead_zone"`
	HorizontalDeadZone float64                `yaml:"horizontal_dead_zone"`
	PositionCorrection PositionCorrectionMode `yaml:"position_correction"`

	BaseSpeed             float64 `yaml:"base_speed"`
	Acceleration          float64 `yaml:"acceleration"`
	Friction              float64 `yaml:"friction"`
	MaxFallSpeed          float64 `yaml:"max_fall_speed"`
	AirFrictionMultiplier float64 `yaml:"air_friction_multiplier"`
	DirectionCorrection   float64 `yaml:"direction_correction"`
	MaxWalkableSlope      float64 `yaml:"max_walkable_slope"`

	ExtraConstantGravity             float64 `yaml:"extra_constant_gravity"`
	BufferedJumpTime                 float64 `yaml:"buffered_jump_time"`
	CoyoteTime                       float64 `yaml:"coyote_time"`
	JumpPower                        float64 `yaml:"jump_power"`
	EndJumpEarlyExtraForceMultiplier float64 `yaml:"end_jump_early_extra_force_multiplier"`
	MaxAirJumps                      int     `yaml:"max_air_jumps"`
	UseApexControl                   bool    `yaml:"use_apex_control"`
	ApexModifier                     float64 `yaml:"apex_modifier"`
	ApexDetectionThreshold           float64 `yaml:"apex_detection_threshold"`

	AllowDash                   bool    `yaml:"allow_dash"`
	DashVelocity                float64 `yaml:"dash_velocity"`
	DashDuration                float64 `yaml:"dash_duration"`
	DashCooldown                float64 `yaml:"dash_cooldown"`
	DashEndHorizontalMultiplier float64 `yaml:"dash_end_horizontal_multiplier"`

	AllowCrouching      bool    `yaml:"allow_crouching"`
	CrouchSlowDownTime  float64 `yaml:"crouch_slow_down_time"`
	CrouchSpeedModifier float64 `yaml:"crouch_speed_modifier"`

	AllowWalls                  bool              `yaml:"allow_walls"`
	ClimbableLayers             physics.LayerMask `yaml:"climbable_layers"`
	WallJumpTotalInputLossTime  float64           `yaml:"wall_jump_total_input_loss_time"`
	WallJumpInputLossReturnTime float64           `yaml:"wall_jump_input_loss_return_time"`
	RequireInputPush            bool              `yaml:"require_input_push"`
	WallJumpPower               physics.Vec2      `yaml:"wall_jump_power"`
	WallPushPower               physics.Vec2      `yaml:"wall_push_power"`
	WallClimbSpeed              float64           `yaml:"wall_climb_speed"`
	WallFallAcceleration        float64           `yaml:"wall_fall_acceleration"`
	WallPopForce                float64           `yaml:"wall_pop_force"`
	WallCoyoteTime              float64           `yaml:"wall_coyote_time"`
	WallDetectorRange           float64           `yaml:"wall_detector_range"`

	AllowLadders                bool              `yaml:"allow_ladders"`
	LadderLayers                physics.LayerMask `yaml:"ladder_layers"`
	LadderCooldownTime          float64           `yaml:"ladder_cooldown_time"`
	AutoAttachToLadders         bool              `yaml:"auto_attach_to_ladders"`
	SnapToLadders               bool              `yaml:"snap_to_ladders"`
	LadderSnapTime              float64           `yaml:"ladder_snap_time"`
	MaxLadderSnapDistance       float64           `yaml:"max_ladder_snap_distance"`
	LadderPopForce              float64           `yaml:"ladder_pop_force"`
	LadderClimbSpeed            float64           `yaml:"ladder_climb_speed"`
	LadderSlideSpeed            float64           `yaml:"ladder_slide_speed"`
	LadderShimmySpeedMultiplier float64           `yaml:"ladder_shimmy_speed_multiplier"`
	// RequireLadderRelease blocks re-latching after a ladder jump until the
	// ladder button has been released.
	RequireLadderRelease bool `yaml:"require_ladder_release"`
	// GroundJumpBeforeLadderJump lets a grounded jump win over a ladder jump.
	GroundJumpBeforeLadderJump bool `yaml:"ground_jump_before_ladder_jump"`

	NegativeYVelocityNegation float64 `yaml:"negative_y_velocity_negation"`
	ExternalVelocityDecayRate float64 `yaml:"external_velocity_decay_rate"`
}

func DefaultStats() Stats {
	return Stats{
		CollisionLayers: physics.Mask(physics.LayerDefault, physics.LayerGround, physics.LayerPlatform, physics.LayerWall),
		Size:            geometry.DefaultSize(),

		VerticalDeadZone:   0.3,
		HorizontalDeadZone: 0.1,
		PositionCorrection: CorrectionVelocity,

		BaseSpeed:             9,
		Acceleration:          50,
		Friction:              30,
		MaxFallSpeed:          20,
		AirFrictionMultiplier: 0.5,
		DirectionCorrection:   3,
		MaxWalkableSlope:      50,

		ExtraConstantGravity:             40,
		BufferedJumpTime:                 0.15,
		CoyoteTime:                       0.15,
		JumpPower:                        20,
		EndJumpEarlyExtraForceMultiplier: 3,
		MaxAirJumps:                      1,
		UseApexControl:                   true,
		ApexModifier:                     1.5,
		ApexDetectionThreshold:           2,

		AllowDash:                   true,
		DashVelocity:                50,
		DashDuration:                0.2,
		DashCooldown:                1.5,
		DashEndHorizontalMultiplier: 0.5,

		AllowCrouching:      true,
		CrouchSlowDownTime:  0.5,
		CrouchSpeedModifier: 0.5,

		AllowWalls:                  true,
		ClimbableLayers:             physics.Mask(physics.LayerWall),
		WallJumpTotalInputLossTime:  0.2,
		WallJumpInputLossReturnTime: 0.5,
		WallJumpPower:               physics.V(25, 15),
		WallPushPower:               physics.V(15, 10),
		WallClimbSpeed:              5,
		WallFallAcceleration:        20,
		WallPopForce:                10,
		WallCoyoteTime:              0.3,
		WallDetectorRange:           0.1,

		AllowLadders:                true,
		LadderLayers:                physics.Mask(physics.LayerLadder),
		LadderCooldownTime:          0.15,
		AutoAttachToLadders:         true,
		SnapToLadders:               true,
		LadderSnapTime:              0.02,
		MaxLadderSnapDistance:       0.25,
		LadderPopForce:              10,
		LadderClimbSpeed:            8,
		LadderSlideSpeed:            12,
		LadderShimmySpeedMultiplier: 0.5,
		RequireLadderRelease:        true,

		NegativeYVelocityNegation: 0.2,
		ExternalVelocityDecayRate: 0.1,
	}
}

// Sanitized clamps the geometry invariants and any negative tunable. The
// returned notes describe each clamp.
func (s Stats) Sanitized() (Stats, []string) {
	size, notes := geometry.Sanitize(s.Size)
	s.Size = size

	nonNegative := []struct {
		name string
		v    *float64
	}{
		{"vertical_dead_zone", &s.VerticalDeadZone},
		{"horizontal_dead_zone", &s.HorizontalDeadZone},
		{"base_speed", &s.BaseSpeed},
		{"acceleration", &s.Acceleration},
		{"friction", &s.Friction},
		{"max_fall_speed", &s.MaxFallSpeed},
		{"air_friction_multiplier", &s.AirFrictionMultiplier},
		{"direction_correction", &s.DirectionCorrection},
		{"extra_constant_gravity", &s.ExtraConstantGravity},
		{"buffered_jump_time", &s.BufferedJumpTime},
		{"coyote_time", &s.CoyoteTime},
		{"jump_power", &s.JumpPower},
		{"dash_velocity", &s.DashVelocity},
		{"dash_duration", &s.DashDuration},
		{"dash_cooldown", &s.DashCooldown},
		{"crouch_slow_down_time", &s.CrouchSlowDownTime},
		{"wall_jump_total_input_loss_time", &s.WallJumpTotalInputLossTime},
		{"wall_climb_speed", &s.WallClimbSpeed},
		{"wall_fall_acceleration", &s.WallFallAcceleration},
		{"wall_coyote_time", &s.WallCoyoteTime},
		{"wall_detector_range", &s.WallDetectorRange},
		{"ladder_cooldown_time", &s.LadderCooldownTime},
		{"ladder_snap_time", &s.LadderSnapTime},
		{"max_ladder_snap_distance", &s.MaxLadderSnapDistance},
		{"ladder_climb_speed", &s.LadderClimbSpeed},
		{"ladder_slide_speed", &s.LadderSlideSpeed},
		{"external_velocity_decay_rate", &s.ExternalVelocityDecayRate},
	}
	for _, f := range nonNegative {
		if *f.v < 0 {
			notes = append(notes, fmt.Sprintf("%s %.3f is negative, clamped to 0", f.name, *f.v))
			*f.v = 0
		}
	}

	if s.MaxAirJumps < 0 {
		notes = append(notes, fmt.Sprintf("max_air_jumps %d is negative, clamped to 0", s.MaxAirJumps))
		s.MaxAirJumps = 0
	}
	if s.WallJumpInputLossReturnTime <= 0 {
		notes = append(notes, "wall_jump_input_loss_return_time must be > 0, clamped to 0.01")
		s.WallJumpInputLossReturnTime = 0.01
	}
	if s.MaxWalkableSlope < 0 || s.MaxWalkableSlope > 90 {
		clamped := physics.Clamp(s.MaxWalkableSlope, 0, 90)
		notes = append(notes, fmt.Sprintf("max_walkable_slope %.1f outside [0, 90], clamped to %.1f", s.MaxWalkableSlope, clamped))
		s.MaxWalkableSlope = clamped
	}
	if s.PositionCorrection == "" {
		s.PositionCorrection = CorrectionVelocity
	}
	return s, notes
}
