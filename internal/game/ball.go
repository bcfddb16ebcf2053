package game

import "github.com/go-gl/mathgl/mgl64"

// BallID identifies one of the three carom balls.
type BallID int

const (
	BallCue     BallID = 0 // white
	BallObject1 BallID = 1 // yellow
	BallObject2 BallID = 2 // red
	NumBalls           = 3
)

func (id BallID) String() string {
	switch id {
	case BallCue:
		return "cue"
	case BallObject1:
		return "object1"
	case BallObject2:
		return "object2"
	}
	return "unknown"
}

// IsObjectBall reports whether id is one of the two balls that must be struck.
func (id BallID) IsObjectBall() bool {
	return id == BallObject1 || id == BallObject2
}

// Ball is a read-only snapshot of a ball's physics state.
type Ball struct {
	ID       BallID     `json:"id"`
	Position mgl64.Vec3 `json:"position"`
	Velocity mgl64.Vec3 `json:"velocity"`
	Radius   float64    `json:"radius"`
}

// Speed returns the magnitude of the ball's linear velocity.
func (b Ball) Speed() float64 {
	return b.Velocity.Len()
}
