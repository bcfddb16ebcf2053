package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/carom/internal/game"
)

// stepFor advances w in fixed ticks and collects every drained contact.
func stepFor(w *World, seconds float64) []game.ContactEvent {
	var events []game.ContactEvent
	ticks := int(math.Round(seconds / FixedStep))
	for i := 0; i < ticks; i++ {
		w.Step(FixedStep)
		events = append(events, w.DrainContacts()...)
	}
	return events
}

// isolated parks the object balls out of the way of the cue ball.
func isolated(cuePos, cueVel mgl64.Vec3) *World {
	w := NewWorld(nil)
	w.Place(game.BallObject1, mgl64.Vec3{-0.6, 0, -1.3}, mgl64.Vec3{})
	w.Place(game.BallObject2, mgl64.Vec3{0.6, 0, -1.3}, mgl64.Vec3{})
	w.Place(game.BallCue, cuePos, cueVel)
	return w
}

func TestRackPlacesBallsOnBed(t *testing.T) {
	w := NewWorld(nil)
	y := TableHeight + BallRadius
	for id := game.BallID(0); id < game.NumBalls; id++ {
		b := w.Ball(id)
		if b.Position[1] != y {
			t.Errorf("ball %s y=%f, want %f", id, b.Position[1], y)
		}
		if b.Speed() != 0 {
			t.Errorf("ball %s should start at rest, speed=%f", id, b.Speed())
		}
		if b.Radius != BallRadius {
			t.Errorf("ball %s radius=%f", id, b.Radius)
		}
	}
	if got := w.Ball(game.BallCue).Position[2]; got != 0.5 {
		t.Errorf("cue ball z=%f, want 0.5", got)
	}
}

func TestCushionBounce(t *testing.T) {
	w := isolated(mgl64.Vec3{0.6, 0, 0}, mgl64.Vec3{2, 0, 0})

	events := stepFor(w, 0.5)

	cushionHits := 0
	for _, e := range events {
		if e.BodyA == game.BallBody(game.BallCue) && e.SurfaceB == game.SurfaceCushion {
			cushionHits++
		}
	}
	if cushionHits == 0 {
		t.Fatal("expected at least one cushion hit")
	}
	if vx := w.Ball(game.BallCue).Velocity[0]; vx >= 0 {
		t.Errorf("cue ball should travel back from the right cushion, vx=%f", vx)
	}
	if x := w.Ball(game.BallCue).Position[0]; x > TableWidth/2-BallRadius+1e-9 {
		t.Errorf("cue ball left the playing area: x=%f", x)
	}
}

func TestBallBallCollisionTransfersMomentum(t *testing.T) {
	w := NewWorld(nil)
	// Red sits off the line between white and yellow.
	w.Place(game.BallCue, mgl64.Vec3{0, 0, 0.5}, mgl64.Vec3{0, 0, -2})

	events := stepFor(w, 1)

	hit := false
	for _, e := range events {
		if game.Classify(e) == game.ObjectBall(game.BallObject1) {
			hit = true
			break
		}
	}
	if !hit {
		t.Fatal("expected a cue/yellow contact")
	}
	if vz := w.Ball(game.BallObject1).Velocity[2]; vz >= 0 {
		t.Errorf("yellow should move away from the cue ball, vz=%f", vz)
	}
}

func TestBallBallRestitution(t *testing.T) {
	w := isolated(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -1})
	w.Place(game.BallObject1, mgl64.Vec3{0, 0, -2*BallRadius + 0.001}, mgl64.Vec3{})

	w.resolveBallBall()

	cue := w.Ball(game.BallCue).Velocity[2]
	yellow := w.Ball(game.BallObject1).Velocity[2]
	if math.Abs(cue-(-0.05)) > 1e-9 || math.Abs(yellow-(-0.95)) > 1e-9 {
		t.Errorf("after head-on hit cue vz=%f yellow vz=%f, want -0.05 and -0.95", cue, yellow)
	}
	if sep := cue - yellow; math.Abs(sep-BallRestitution) > 1e-9 {
		t.Errorf("separation speed = %f, want %f", sep, BallRestitution)
	}
	if p := cue + yellow; math.Abs(p-(-1)) > 1e-9 {
		t.Errorf("momentum = %f, want -1", p)
	}
}

func TestFrictionStopsBalls(t *testing.T) {
	w := isolated(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.3, 0, 0.1})
	if w.AllStopped() {
		t.Fatal("AllStopped should be false while the cue ball moves")
	}

	stepFor(w, 20)

	if !w.AllStopped() {
		t.Errorf("balls did not stop: cue speed=%f", w.Ball(game.BallCue).Speed())
	}
}

func TestApplyImpulseIgnoresVerticalComponent(t *testing.T) {
	w := NewWorld(nil)
	w.ApplyImpulse(game.BallCue, mgl64.Vec3{0, 5, -BallMass}, w.Ball(game.BallCue).Position)

	v := w.Ball(game.BallCue).Velocity
	if v[1] != 0 {
		t.Errorf("vertical velocity should stay zero, got %f", v[1])
	}
	if math.Abs(v[2]+1) > 1e-9 {
		t.Errorf("vz=%f, want -1", v[2])
	}
}

func TestStepCarriesRemainder(t *testing.T) {
	w := isolated(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0})

	w.Step(FixedStep / 2)
	if x := w.Ball(game.BallCue).Position[0]; x != 0 {
		t.Fatalf("half a step should not move the ball, x=%f", x)
	}
	w.Step(FixedStep / 2)
	if x := w.Ball(game.BallCue).Position[0]; x <= 0 {
		t.Errorf("a full step should move the ball, x=%f", x)
	}
}

func TestStepSubStepCap(t *testing.T) {
	capped := isolated(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0})
	capped.SubSteps = 1
	free := isolated(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0})
	free.SubSteps = 5

	capped.Step(5 * FixedStep)
	free.Step(5 * FixedStep)

	xc := capped.Ball(game.BallCue).Position[0]
	xf := free.Ball(game.BallCue).Position[0]
	if xc <= 0 || xc >= xf {
		t.Errorf("capped world moved %f, uncapped %f; want 0 < capped < uncapped", xc, xf)
	}

	// the dropped time is not replayed on the next call
	capped.Step(FixedStep / 2)
	if x := capped.Ball(game.BallCue).Position[0]; x != xc {
		t.Errorf("capped world replayed dropped time: %f -> %f", xc, x)
	}
}

func TestStepIgnoresNonPositiveDt(t *testing.T) {
	w := isolated(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0})
	w.Step(0)
	w.Step(-1)
	if x := w.Ball(game.BallCue).Position[0]; x != 0 {
		t.Errorf("ball moved on non-positive dt: x=%f", x)
	}
}

func TestDeterminism(t *testing.T) {
	run := func() [game.NumBalls]mgl64.Vec3 {
		w := NewWorld(nil)
		w.Place(game.BallCue, mgl64.Vec3{0, 0, 0.5}, mgl64.Vec3{0.8, 0, -2.5})
		stepFor(w, 3)
		var out [game.NumBalls]mgl64.Vec3
		for id := game.BallID(0); id < game.NumBalls; id++ {
			out[id] = w.Ball(id).Position
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("non-deterministic: ball %d run1=%v run2=%v", i, a[i], b[i])
		}
	}
}

func TestSessionStrikeOverWorld(t *testing.T) {
	w := NewWorld(nil)
	var events []game.ShotEvent
	s := game.NewSession(w, game.NewLedger(0), game.DefaultSessionConfig(),
		game.ListenerFunc(func(e game.ShotEvent) { events = append(events, e) }), nil)

	cue := w.Ball(game.BallCue).Position
	dt := FixedStep
	// Tip approaches from +z at 1.5 m/s, ending just inside contact range.
	start := cue.Add(mgl64.Vec3{0, 0, 0.08})
	struck := false
	for i := 0; i < 4 && !struck; i++ {
		pose := game.TipPose{Position: start.Sub(mgl64.Vec3{0, 0, 1.5 * dt * float64(i)})}
		struck = s.Tick(&pose, dt)
	}
	if !struck {
		t.Fatal("expected the approaching tip to strike the cue ball")
	}
	if !s.Shots().Active() {
		t.Fatal("strike should start a shot")
	}
	if vz := w.Ball(game.BallCue).Velocity[2]; vz >= 0 {
		t.Errorf("cue ball should be driven toward -z, vz=%f", vz)
	}

	for i := 0; i < 60*30 && s.Shots().Active(); i++ {
		s.Tick(nil, dt)
	}
	if s.Shots().Active() {
		t.Fatalf("shot should end once the table settles, aggregate=%f", s.AggregateSpeed())
	}
	if len(events) == 0 || events[0].Type != game.EventShotStarted || events[len(events)-1].Type != game.EventShotEnded {
		t.Errorf("unexpected event sequence: %+v", events)
	}
}
