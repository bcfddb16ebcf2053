package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/carom/internal/game"
)

type body struct {
	position mgl64.Vec3
	velocity mgl64.Vec3
}

// World is a small fixed-step rigid-body simulation of three balls on a
// carom table. It satisfies game.World.
type World struct {
	Table *Table
	// SubSteps caps the fixed steps taken per Step call; <= 0 means MaxSubSteps.
	SubSteps int

	mu          sync.Mutex
	balls       [game.NumBalls]body
	accumulator float64
	contacts    game.ContactQueue
}

// NewWorld creates a world with balls in the standard rack.
func NewWorld(table *Table) *World {
	if table == nil {
		table = NewCaromTable()
	}
	w := &World{Table: table, SubSteps: MaxSubSteps}
	w.Rack()
	return w
}

// Rack puts every ball back in its starting position at rest.
func (w *World) Rack() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, p := range w.Table.StandardRack() {
		w.balls[i] = body{position: p}
	}
	w.accumulator = 0
}

// Place moves a ball to p with velocity v. Intended for tests and tooling.
func (w *World) Place(id game.BallID, p, v mgl64.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p[1] = w.Table.BallY()
	w.balls[id] = body{position: p, velocity: planar(v)}
}

// Ball implements game.World.
func (w *World) Ball(id game.BallID) game.Ball {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.balls[id]
	return game.Ball{ID: id, Position: b.position, Velocity: b.velocity, Radius: BallRadius}
}

// ApplyImpulse implements game.World. Only the in-plane component changes
// the ball's velocity; the application point would only add spin, which is
// not simulated.
func (w *World) ApplyImpulse(id game.BallID, impulse, _ mgl64.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := &w.balls[id]
	b.velocity = b.velocity.Add(planar(impulse).Mul(1 / BallMass))
}

// DrainContacts implements game.World.
func (w *World) DrainContacts() []game.ContactEvent {
	return w.contacts.Drain()
}

// Step advances the simulation by dt using fixed substeps, carrying any
// remainder to the next call. At most SubSteps are taken per call; time
// beyond that is dropped.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	limit := w.SubSteps
	if limit <= 0 {
		limit = MaxSubSteps
	}
	w.accumulator += dt
	steps := 0
	for w.accumulator >= FixedStep && steps < limit {
		w.substep(FixedStep)
		w.accumulator -= FixedStep
		steps++
	}
	if steps == limit {
		w.accumulator = 0
	}
}

// AllStopped reports whether every ball is at rest.
func (w *World) AllStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.balls {
		if b.velocity.Len() != 0 {
			return false
		}
	}
	return true
}

func (w *World) substep(h float64) {
	for i := range w.balls {
		b := &w.balls[i]
		b.position = b.position.Add(b.velocity.Mul(h))
	}

	w.resolveBallBall()
	w.resolveCushions()
	w.updateFriction(h)
}

func (w *World) resolveBallBall() {
	for a := 0; a < game.NumBalls; a++ {
		for p := a + 1; p < game.NumBalls; p++ {
			ball, other := &w.balls[a], &w.balls[p]

			delta := other.position.Sub(ball.position)
			dist := delta.Len()
			if dist >= 2*BallRadius || dist == 0 {
				continue
			}

			n := delta.Mul(1 / dist)

			// Separate the overlap evenly.
			push := n.Mul((2*BallRadius - dist) / 2)
			ball.position = ball.position.Sub(push)
			other.position = other.position.Add(push)

			if !checkObjectsConverging(ball.position, other.position, ball.velocity, other.velocity) {
				continue
			}

			ballNormal := n.Mul(ball.velocity.Dot(n))
			ballTangent := ball.velocity.Sub(ballNormal)
			otherNormal := n.Mul(other.velocity.Dot(n))
			otherTangent := other.velocity.Sub(otherNormal)

			// Equal masses: the normal components separate at BallRestitution
			// times their closing speed.
			newBallNormal := ballNormal.Mul((1 - BallRestitution) / 2).Add(otherNormal.Mul((1 + BallRestitution) / 2))
			newOtherNormal := otherNormal.Mul((1 - BallRestitution) / 2).Add(ballNormal.Mul((1 + BallRestitution) / 2))

			ball.velocity = ballTangent.Add(newBallNormal)
			other.velocity = otherTangent.Add(newOtherNormal)

			w.contacts.Push(game.ContactEvent{
				BodyA:    game.BodyID(a),
				BodyB:    game.BodyID(p),
				SurfaceA: game.SurfaceBall,
				SurfaceB: game.SurfaceBall,
			})
		}
	}
}

func (w *World) resolveCushions() {
	for i := range w.balls {
		b := &w.balls[i]
		for _, c := range w.Table.Cushions {
			d := c.Distance(b.position)
			if d >= BallRadius {
				continue
			}
			// Push back onto the playing area.
			b.position = b.position.Add(c.Normal.Mul(BallRadius - d))

			vn := b.velocity.Dot(c.Normal)
			if vn >= 0 {
				continue
			}
			normalComp := c.Normal.Mul(vn)
			tangentComp := b.velocity.Sub(normalComp)
			b.velocity = normalComp.Mul(-CushionRestitution).Add(tangentComp)

			w.contacts.Push(game.ContactEvent{
				BodyA:    game.BodyID(i),
				BodyB:    c.ID,
				SurfaceA: game.SurfaceBall,
				SurfaceB: game.SurfaceCushion,
			})
		}
	}
}

func (w *World) updateFriction(h float64) {
	f := dampingFactor(LinearDamping, h)
	for i := range w.balls {
		b := &w.balls[i]
		b.velocity = b.velocity.Mul(f)
		if b.velocity.Len() < MinVelocity {
			b.velocity = mgl64.Vec3{}
		}
	}
}
