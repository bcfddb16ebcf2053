package game

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type impulseCall struct {
	ball    BallID
	impulse mgl64.Vec3
	point   mgl64.Vec3
}

// fakeWorld is a scripted physics collaborator.
type fakeWorld struct {
	balls    [NumBalls]Ball
	pending  [][]ContactEvent // contacts released one batch per Step
	contacts ContactQueue
	impulses []impulseCall
	steps    []float64
	racked   int
	calls    []string
}

func newFakeWorld() *fakeWorld {
	w := &fakeWorld{}
	for id := BallID(0); id < NumBalls; id++ {
		w.balls[id] = Ball{ID: id, Radius: DefaultBallRadius}
	}
	w.balls[BallCue].Position = mgl64.Vec3{0, 0.83, 0.5}
	return w
}

func (w *fakeWorld) Step(dt float64) {
	w.calls = append(w.calls, "step")
	w.steps = append(w.steps, dt)
	if len(w.pending) > 0 {
		w.contacts.Push(w.pending[0]...)
		w.pending = w.pending[1:]
	}
}

func (w *fakeWorld) DrainContacts() []ContactEvent {
	w.calls = append(w.calls, "drain")
	return w.contacts.Drain()
}

func (w *fakeWorld) Ball(id BallID) Ball {
	return w.balls[id]
}

func (w *fakeWorld) ApplyImpulse(id BallID, impulse, point mgl64.Vec3) {
	w.calls = append(w.calls, "impulse")
	w.impulses = append(w.impulses, impulseCall{id, impulse, point})
	w.balls[id].Velocity = w.balls[id].Velocity.Add(impulse)
}

func (w *fakeWorld) Rack() {
	w.racked++
}

func (w *fakeWorld) setSpeed(id BallID, s float64) {
	w.balls[id].Velocity = mgl64.Vec3{s, 0, 0}
}

type pulse struct {
	intensity float64
	duration  time.Duration
}

type fakeHaptics struct {
	pulses []pulse
}

func (h *fakeHaptics) Pulse(intensity float64, duration time.Duration) {
	h.pulses = append(h.pulses, pulse{intensity, duration})
}
