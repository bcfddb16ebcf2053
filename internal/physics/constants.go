package physics

// Physical constants for a match carom table, in SI units.
const (
	BallRadius         = 0.03075 // 61.5 mm diameter
	BallMass           = 0.21
	LinearDamping      = 0.5
	BallRestitution    = 0.9
	CushionRestitution = 0.8
	MinVelocity        = 0.001 // below this a ball is stopped

	TableWidth  = 1.42
	TableLength = 2.84
	TableHeight = 0.8

	FixedStep   = 1.0 / 60.0
	MaxSubSteps = 3
)
