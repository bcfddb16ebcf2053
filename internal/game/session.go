package game

import "github.com/go-gl/mathgl/mgl64"

// World is the physics collaborator the core drives.
type World interface {
	// Step advances the simulation by dt seconds.
	Step(dt float64)
	// DrainContacts returns the contacts generated since the last call, in
	// emission order.
	DrainContacts() []ContactEvent
	// Ball returns the current state of a ball.
	Ball(id BallID) Ball
	// ApplyImpulse applies impulse (N·s) to a ball at a world-space point.
	ApplyImpulse(id BallID, impulse, point mgl64.Vec3)
}

// Racker is implemented by worlds that can put the balls back in their
// starting positions.
type Racker interface {
	Rack()
}

// Session runs one table's core in the fixed per-tick order: physics step,
// contact delivery, strike detection, shot update.
type Session struct {
	world  World
	shots  *ShotTracker
	strike *StrikeDetector
}

// SessionConfig bundles the tuning of a session.
type SessionConfig struct {
	Strike    StrikeConfig
	RestSpeed float64
}

// DefaultSessionConfig returns the standard tuning.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{Strike: DefaultStrikeConfig(), RestSpeed: DefaultRestSpeed}
}

// NewSession creates a session over world, awarding into ledger.
func NewSession(world World, ledger *Ledger, cfg SessionConfig, listener ShotListener, haptics Haptics) *Session {
	shots := NewShotTracker(ledger, cfg.RestSpeed, listener)
	return &Session{
		world:  world,
		shots:  shots,
		strike: NewStrikeDetector(cfg.Strike, world, shots, haptics),
	}
}

// Tick advances the table by dt. pose is nil while the cue is not tracked.
// It reports whether a strike was applied this tick.
func (s *Session) Tick(pose *TipPose, dt float64) bool {
	s.world.Step(dt)
	s.applyContacts()

	struck := false
	if pose != nil {
		struck = s.strike.Tick(*pose, dt)
	} else {
		s.strike.Reset()
	}

	s.shots.Update(s.AggregateSpeed())
	return struck
}

// Advance runs a tick in which the cue is tracked but no new sample
// arrived. The strike detector keeps its previous sample.
func (s *Session) Advance(dt float64) {
	s.world.Step(dt)
	s.applyContacts()
	s.shots.Update(s.AggregateSpeed())
}

func (s *Session) applyContacts() {
	for _, c := range s.world.DrainContacts() {
		s.shots.OnContact(Classify(c))
	}
}

// AggregateSpeed sums the speeds of all balls.
func (s *Session) AggregateSpeed() float64 {
	total := 0.0
	for id := BallID(0); id < NumBalls; id++ {
		total += s.world.Ball(id).Speed()
	}
	return total
}

// Balls returns a snapshot of every ball.
func (s *Session) Balls() [NumBalls]Ball {
	var out [NumBalls]Ball
	for id := BallID(0); id < NumBalls; id++ {
		out[id] = s.world.Ball(id)
	}
	return out
}

// ResetRack re-racks the balls. It refuses while a shot is active or when
// the world cannot rack.
func (s *Session) ResetRack() bool {
	r, ok := s.world.(Racker)
	if !ok || s.shots.Active() {
		return false
	}
	r.Rack()
	s.strike.Reset()
	return true
}

// ResetStrike makes the strike detector forget its previous tip sample.
func (s *Session) ResetStrike() {
	s.strike.Reset()
}

// SetHaptics replaces the strike feedback device.
func (s *Session) SetHaptics(h Haptics) {
	s.strike.SetHaptics(h)
}

// Shots returns the session's shot tracker.
func (s *Session) Shots() *ShotTracker {
	return s.shots
}

// Score returns the running score.
func (s *Session) Score() int {
	return s.shots.Ledger().Score()
}
