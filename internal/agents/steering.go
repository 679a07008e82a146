package agents

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GroundDirection returns the unit vector from -> to on the ground plane and
// the ground distance. A zero distance yields a zero direction.
func GroundDirection(from, to mgl64.Vec3) (mgl64.Vec3, float64) {
	d := to.Sub(from)
	d[1] = 0
	dist := d.Len()
	if dist == 0 {
		return mgl64.Vec3{}, 0
	}
	return d.Mul(1 / dist), dist
}

// Heading returns the unit ground vector for angle (radians).
func Heading(angle float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(angle), 0, math.Sin(angle)}
}

// Normalized returns v scaled to unit length, or zero for a zero vector.
func Normalized(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// Seek applies force toward target.
func (a *Agent) Seek(target mgl64.Vec3, force float64) {
	dir, _ := GroundDirection(a.Position, target)
	a.ApplyForce(dir.Mul(force))
}

// DistanceTo is the distance between two agents.
func (a *Agent) DistanceTo(b *Agent) float64 {
	return a.Position.Sub(b.Position).Len()
}
