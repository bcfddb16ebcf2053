package game

// BodyID identifies a body in the physics world. Ball bodies share the
// numeric value of their BallID; static bodies start at FirstStaticBody.
type BodyID int

const FirstStaticBody BodyID = 16

// BallBody returns the body id of a ball.
func BallBody(id BallID) BodyID {
	return BodyID(id)
}

// Ball returns the ball this body represents, if any.
func (b BodyID) Ball() (BallID, bool) {
	if b >= 0 && b < NumBalls {
		return BallID(b), true
	}
	return 0, false
}

// Surface is the material tag carried by a body.
type Surface string

const (
	SurfaceNone    Surface = ""
	SurfaceBall    Surface = "ball"
	SurfaceCushion Surface = "cushion"
	SurfaceCloth   Surface = "default"
)

// ContactEvent records one physical contact between two bodies.
type ContactEvent struct {
	BodyA    BodyID  `json:"body_a"`
	BodyB    BodyID  `json:"body_b"`
	SurfaceA Surface `json:"surface_a,omitempty"`
	SurfaceB Surface `json:"surface_b,omitempty"`
}

// Kind is the scoring-relevant category of a contact.
type Kind int

const (
	ContactIgnored Kind = iota
	ContactCushion
	ContactObjectBall
)

func (k Kind) String() string {
	switch k {
	case ContactCushion:
		return "cushion"
	case ContactObjectBall:
		return "object_ball"
	}
	return "ignored"
}

// ContactKind is the classification of a contact. Ball is only meaningful
// when Kind is ContactObjectBall.
type ContactKind struct {
	Kind Kind
	Ball BallID
}

var (
	Ignored = ContactKind{Kind: ContactIgnored}
	Cushion = ContactKind{Kind: ContactCushion}
)

// ObjectBall returns the classification for a cue-ball contact with id.
func ObjectBall(id BallID) ContactKind {
	return ContactKind{Kind: ContactObjectBall, Ball: id}
}

// Classify sorts a raw contact into the categories the shot tracker counts.
// Only contacts involving the cue ball are tallied; anything else, including
// object ball against object ball or object ball against cushion, is ignored.
func Classify(c ContactEvent) ContactKind {
	var other BodyID
	var otherSurface Surface
	switch {
	case c.BodyA == BallBody(BallCue) && c.BodyB != BallBody(BallCue):
		other, otherSurface = c.BodyB, c.SurfaceB
	case c.BodyB == BallBody(BallCue) && c.BodyA != BallBody(BallCue):
		other, otherSurface = c.BodyA, c.SurfaceA
	default:
		return Ignored
	}

	if otherSurface == SurfaceCushion {
		return Cushion
	}
	if id, ok := other.Ball(); ok && id.IsObjectBall() {
		return ObjectBall(id)
	}
	return Ignored
}
