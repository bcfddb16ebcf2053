package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/playmatatu/carom/internal/game"
)

// Cushion is a rail modelled as a half-space boundary in the table plane.
// A ball centre must satisfy Normal·p + Offset >= BallRadius.
type Cushion struct {
	ID     game.BodyID `json:"id"`
	Name   string      `json:"name"`
	Normal mgl64.Vec3  `json:"normal"` // points into the playing area
	Offset float64     `json:"offset"`
}

// Distance returns the signed distance from p to the cushion face.
func (c Cushion) Distance(p mgl64.Vec3) float64 {
	return c.Normal.Dot(p) + c.Offset
}

// Table holds the carom table geometry. The bed lies in the XZ plane at
// Height with the origin at its centre.
type Table struct {
	Width    float64
	Length   float64
	Height   float64
	Cushions []Cushion
	Bed      game.BodyID
}

// NewCaromTable creates a match table with four cushions.
func NewCaromTable() *Table {
	return NewTable(TableWidth, TableLength, TableHeight)
}

// NewTable creates a rectangular table of the given playing-area size.
func NewTable(width, length, height float64) *Table {
	hw, hl := width/2, length/2
	id := game.FirstStaticBody
	next := func() game.BodyID {
		id++
		return id
	}
	t := &Table{
		Width:  width,
		Length: length,
		Height: height,
		Bed:    game.FirstStaticBody,
	}
	t.Cushions = []Cushion{
		{ID: next(), Name: "left", Normal: mgl64.Vec3{1, 0, 0}, Offset: hw},
		{ID: next(), Name: "right", Normal: mgl64.Vec3{-1, 0, 0}, Offset: hw},
		{ID: next(), Name: "top", Normal: mgl64.Vec3{0, 0, 1}, Offset: hl},
		{ID: next(), Name: "bottom", Normal: mgl64.Vec3{0, 0, -1}, Offset: hl},
	}
	return t
}

// BallY is the height of a resting ball's centre.
func (t *Table) BallY() float64 {
	return t.Height + BallRadius
}

// StandardRack returns the starting positions: white, yellow, red.
func (t *Table) StandardRack() [game.NumBalls]mgl64.Vec3 {
	y := t.BallY()
	return [game.NumBalls]mgl64.Vec3{
		game.BallCue:     {0, y, 0.5},
		game.BallObject1: {0, y, -0.5},
		game.BallObject2: {0.3, y, 0},
	}
}
