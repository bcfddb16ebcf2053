package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// planar drops the vertical component; balls stay on the bed.
func planar(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], 0, v[2]}
}

// normalize returns the unit vector of v, or zero for a zero vector.
func normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// checkObjectsConverging reports whether two bodies are moving toward each
// other along the line joining their centres.
func checkObjectsConverging(posA, posB, velA, velB mgl64.Vec3) bool {
	relVel := velB.Sub(velA)
	direction := normalize(posB.Sub(posA))
	return relVel.Dot(direction) < 0
}

// dampingFactor converts a per-second linear damping ratio into the factor
// applied over dt.
func dampingFactor(damping, dt float64) float64 {
	f := 1 - damping
	if f <= 0 {
		return 0
	}
	return math.Pow(f, dt)
}
