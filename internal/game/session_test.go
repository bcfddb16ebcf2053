package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	cueCushion = ContactEvent{bodyCue, bodyCushion, SurfaceBall, SurfaceCushion}
	cueYellow  = ContactEvent{bodyCue, bodyYellow, SurfaceBall, SurfaceBall}
	cueRed     = ContactEvent{bodyCue, bodyRed, SurfaceBall, SurfaceBall}
	yellowRed  = ContactEvent{bodyYellow, bodyRed, SurfaceBall, SurfaceBall}
)

func newTestSession() (*Session, *fakeWorld) {
	w := newFakeWorld()
	return NewSession(w, NewLedger(0), DefaultSessionConfig(), nil, nil), w
}

// strike drives the tip into the cue ball over two ticks.
func strike(t *testing.T, s *Session, w *fakeWorld) {
	t.Helper()
	far := tipAt(w, 0.05)
	near := tipAt(w, 0.03)
	s.Tick(&far, tickDt)
	if !s.Tick(&near, tickDt) {
		t.Fatal("expected a strike")
	}
	w.setSpeed(BallCue, 2)
}

func TestTickOrder(t *testing.T) {
	s, w := newTestSession()
	far := tipAt(w, 0.05)
	near := tipAt(w, 0.03)
	s.Tick(&far, tickDt)
	w.calls = nil

	s.Tick(&near, tickDt)

	want := []string{"step", "drain", "impulse"}
	if len(w.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", w.calls, want)
	}
	for i := range want {
		if w.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, w.calls[i], want[i])
		}
	}
	if w.steps[len(w.steps)-1] != tickDt {
		t.Errorf("world stepped by %f, want %f", w.steps[len(w.steps)-1], tickDt)
	}
}

func TestSessionScoresThreeCushionShot(t *testing.T) {
	s, w := newTestSession()
	strike(t, s, w)

	w.pending = [][]ContactEvent{
		{cueCushion, yellowRed},
		{cueCushion, cueCushion},
		{cueYellow, cueRed},
	}
	for i := 0; i < 3; i++ {
		s.Tick(nil, tickDt)
	}

	if s.Score() != 1 {
		t.Errorf("score = %d, want 1", s.Score())
	}
	if !s.Shots().Active() {
		t.Error("shot should stay active while balls move")
	}

	w.setSpeed(BallCue, 0)
	s.Tick(nil, tickDt)
	if s.Shots().Active() {
		t.Error("shot should end once balls settle")
	}
}

func TestContactsInStrikeTickPrecedeShotStart(t *testing.T) {
	s, w := newTestSession()
	far := tipAt(w, 0.05)
	near := tipAt(w, 0.03)
	s.Tick(&far, tickDt)

	// Delivered during the same tick as the strike, before the detector runs.
	w.pending = [][]ContactEvent{{cueCushion, cueCushion, cueCushion}}
	s.Tick(&near, tickDt)

	if got := s.Shots().Shot().CushionContacts; got != 0 {
		t.Errorf("cushions = %d, want 0: contacts are delivered before the strike", got)
	}
}

func TestSessionEndsMissWithoutContacts(t *testing.T) {
	s, w := newTestSession()
	strike(t, s, w)

	w.setSpeed(BallCue, 0.005)
	w.setSpeed(BallObject1, 0.004)
	s.Tick(nil, tickDt)
	if s.Shots().Active() {
		t.Errorf("aggregate %f below rest speed should end the shot", s.AggregateSpeed())
	}
	if s.Score() != 0 {
		t.Errorf("score = %d, want 0", s.Score())
	}
}

func TestAggregateSpeedSumsAllBalls(t *testing.T) {
	s, w := newTestSession()
	w.setSpeed(BallCue, 0.5)
	w.setSpeed(BallObject1, 0.25)
	w.balls[BallObject2].Velocity = mgl64.Vec3{0, 0, -0.25}
	if got := s.AggregateSpeed(); got != 1 {
		t.Errorf("AggregateSpeed() = %f, want 1", got)
	}
}

func TestNilPoseResetsDetector(t *testing.T) {
	s, w := newTestSession()
	far := tipAt(w, 0.05)
	near := tipAt(w, 0.03)
	s.Tick(&far, tickDt)
	s.Tick(nil, tickDt)
	if s.Tick(&near, tickDt) {
		t.Fatal("tracking gap should not produce a velocity across it")
	}
}

func TestAdvanceKeepsDetectorSample(t *testing.T) {
	s, w := newTestSession()
	strike(t, s, w)
	w.calls = nil

	w.pending = [][]ContactEvent{{cueCushion}}
	s.Advance(tickDt)

	if got := s.Shots().Shot().CushionContacts; got != 1 {
		t.Errorf("cushions = %d, want 1", got)
	}
	for _, c := range w.calls {
		if c == "impulse" {
			t.Error("Advance must not run the strike detector")
		}
	}

	// the detector still holds the last sample, so a further approach strikes
	nearer := tipAt(w, 0.01)
	if !s.Tick(&nearer, tickDt) {
		t.Error("expected a strike from the retained sample")
	}
}

func TestResetRack(t *testing.T) {
	s, w := newTestSession()
	if !s.ResetRack() || w.racked != 1 {
		t.Fatalf("rack while idle should succeed, racked=%d", w.racked)
	}

	strike(t, s, w)
	if s.ResetRack() {
		t.Error("rack must be refused during a shot")
	}
	if w.racked != 1 {
		t.Errorf("racked = %d, want 1", w.racked)
	}
}

func TestSessionBalls(t *testing.T) {
	s, w := newTestSession()
	balls := s.Balls()
	for id := BallID(0); id < NumBalls; id++ {
		if balls[id] != w.balls[id] {
			t.Errorf("ball %s = %+v, want %+v", id, balls[id], w.balls[id])
		}
	}
}
