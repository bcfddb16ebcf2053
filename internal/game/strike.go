package game

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Strike defaults, measured in metres and seconds.
const (
	DefaultTipRadius       = 0.006
	DefaultBallRadius      = 0.03075
	DefaultContactEpsilon  = 0.00125
	DefaultMinStrikeSpeed  = 0.1
	DefaultImpulseGain     = 5.0
	DefaultHapticIntensity = 1.0
	DefaultHapticDuration  = 100 * time.Millisecond
)

// TipPose is the tracked pose of the cue tip for one tick. Orientation is
// carried for rendering clients only.
type TipPose struct {
	Position    mgl64.Vec3 `json:"position"`
	Orientation mgl64.Quat `json:"orientation"`
	Time        time.Time  `json:"time"`
}

// Haptics delivers a feedback pulse to the input device.
type Haptics interface {
	Pulse(intensity float64, duration time.Duration)
}

// StrikeConfig tunes the strike detector.
type StrikeConfig struct {
	TipRadius       float64
	BallRadius      float64
	ContactEpsilon  float64
	MinStrikeSpeed  float64
	ImpulseGain     float64
	HapticIntensity float64
	HapticDuration  time.Duration
}

// DefaultStrikeConfig returns the tuning of a standard cue and 61.5 mm balls.
func DefaultStrikeConfig() StrikeConfig {
	return StrikeConfig{
		TipRadius:       DefaultTipRadius,
		BallRadius:      DefaultBallRadius,
		ContactEpsilon:  DefaultContactEpsilon,
		MinStrikeSpeed:  DefaultMinStrikeSpeed,
		ImpulseGain:     DefaultImpulseGain,
		HapticIntensity: DefaultHapticIntensity,
		HapticDuration:  DefaultHapticDuration,
	}
}

// ContactThreshold is the tip-to-ball-centre distance under which a strike
// is possible.
func (c StrikeConfig) ContactThreshold() float64 {
	return c.TipRadius + c.BallRadius + c.ContactEpsilon
}

// StrikeDetector turns tip motion into cue-ball impulses.
//
// It keeps exactly one previous tip sample. There is no per-shot debounce:
// while the tip stays in range and keeps closing, every tick applies another
// impulse.
type StrikeDetector struct {
	cfg          StrikeConfig
	world        World
	shots        *ShotTracker
	haptics      Haptics
	previous     mgl64.Vec3
	previousTime time.Time
	primed       bool
	velocity     mgl64.Vec3
}

// NewStrikeDetector wires a detector to the physics world and shot tracker.
// haptics may be nil.
func NewStrikeDetector(cfg StrikeConfig, world World, shots *ShotTracker, haptics Haptics) *StrikeDetector {
	return &StrikeDetector{cfg: cfg, world: world, shots: shots, haptics: haptics}
}

// SetHaptics replaces the feedback device, e.g. when a controller reconnects.
func (d *StrikeDetector) SetHaptics(h Haptics) {
	d.haptics = h
}

// Velocity returns the last derived tip velocity.
func (d *StrikeDetector) Velocity() mgl64.Vec3 {
	return d.velocity
}

// Tick samples the tip pose and applies an impulse if this tick is a
// qualifying strike. It reports whether an impulse was applied.
//
// When both this and the previous sample carry a timestamp, their difference
// replaces dt for the velocity estimate. A non-positive interval leaves the
// velocity unchanged.
func (d *StrikeDetector) Tick(pose TipPose, dt float64) bool {
	tip := pose.Position
	if !pose.Time.IsZero() && !d.previousTime.IsZero() {
		dt = pose.Time.Sub(d.previousTime).Seconds()
	}
	if dt > 0 && d.primed {
		d.velocity = tip.Sub(d.previous).Mul(1 / dt)
	}
	d.previous = tip
	d.previousTime = pose.Time
	d.primed = true

	cue := d.world.Ball(BallCue).Position
	toBall := cue.Sub(tip)
	distance := toBall.Len()
	if distance >= d.cfg.ContactThreshold() {
		return false
	}

	// A tip exactly at the ball centre has no approach direction.
	if distance == 0 {
		return false
	}
	closing := d.velocity.Dot(toBall.Mul(1 / distance))
	if closing <= d.cfg.MinStrikeSpeed {
		return false
	}

	impulse := d.velocity.Mul(d.cfg.ImpulseGain)
	d.world.ApplyImpulse(BallCue, impulse, tip)
	d.shots.StartShot()

	if d.haptics != nil {
		d.haptics.Pulse(d.cfg.HapticIntensity, d.cfg.HapticDuration)
	}
	return true
}

// Reset forgets the previous sample, e.g. after tracking was lost.
func (d *StrikeDetector) Reset() {
	d.primed = false
	d.previousTime = time.Time{}
	d.velocity = mgl64.Vec3{}
}
