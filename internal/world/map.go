package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Map is the shared ground plane: a disc of walkable space centred on the
// origin plus the harvestable resources placed on it.
type Map struct {
	Radius float64 `json:"radius"`
	Forest *Forest `json:"-"`
}

// NewMap creates a map with the given bounds radius and forest.
func NewMap(radius float64, forest *Forest) *Map {
	if forest == nil {
		forest = NewForest()
	}
	return &Map{Radius: radius, Forest: forest}
}

// InBounds reports whether p lies within the map radius on the ground plane.
func (m *Map) InBounds(p mgl64.Vec3) bool {
	return GroundDistance(p, mgl64.Vec3{}) <= m.Radius
}

// Center returns the point wandering agents are pulled back toward.
func (m *Map) Center() mgl64.Vec3 {
	return mgl64.Vec3{}
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%.1f, trees=%d)", m.Radius, m.Forest.Len())
}

// GroundDistance is the distance between a and b ignoring height.
func GroundDistance(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	d[1] = 0
	return d.Len()
}
