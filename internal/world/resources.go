package world

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ResourceID identifies a harvestable resource. Zero means "no resource".
type ResourceID uint64

// ResourceKind enumerates resource node types.
type ResourceKind uint8

const (
	ResourceTree ResourceKind = iota
)

// Yield returns the ledger name credited when this kind is harvested.
func (k ResourceKind) Yield() string {
	switch k {
	case ResourceTree:
		return "wood"
	}
	return "unknown"
}

func (k ResourceKind) String() string {
	switch k {
	case ResourceTree:
		return "tree"
	}
	return "unknown"
}

// Resource is a harvestable node on the map.
type Resource struct {
	ID       ResourceID   `json:"id"`
	Kind     ResourceKind `json:"kind"`
	Position mgl64.Vec3   `json:"position"`
	Amount   int          `json:"amount"`
}

// Forest owns every resource node. Depleted nodes are removed, so holders of
// a ResourceID must check Get before use.
type Forest struct {
	nodes  map[ResourceID]*Resource
	nextID ResourceID
}

// NewForest creates an empty forest.
func NewForest() *Forest {
	return &Forest{
		nodes:  make(map[ResourceID]*Resource),
		nextID: 1,
	}
}

// Plant adds a resource node and returns its id.
func (f *Forest) Plant(kind ResourceKind, pos mgl64.Vec3, amount int) ResourceID {
	id := f.nextID
	f.nextID++
	f.nodes[id] = &Resource{ID: id, Kind: kind, Position: pos, Amount: amount}
	return id
}

// Get returns the live resource with id.
func (f *Forest) Get(id ResourceID) (*Resource, bool) {
	r, ok := f.nodes[id]
	return r, ok
}

// Harvest removes up to amount units from a node and returns what was taken.
// A node reaching zero is removed.
func (f *Forest) Harvest(id ResourceID, amount int) (int, bool) {
	r, ok := f.nodes[id]
	if !ok || amount <= 0 {
		return 0, false
	}
	taken := amount
	if taken > r.Amount {
		taken = r.Amount
	}
	r.Amount -= taken
	if r.Amount <= 0 {
		delete(f.nodes, id)
	}
	return taken, true
}

// Nearest returns the closest node of kind within maxDistance (<=0 = unbounded).
// Ties resolve to the lower id.
func (f *Forest) Nearest(kind ResourceKind, p mgl64.Vec3, maxDistance float64) (*Resource, bool) {
	limit := maxDistance
	if limit <= 0 {
		limit = math.Inf(1)
	}
	var best *Resource
	bestDist := 0.0
	for _, r := range f.All() {
		if r.Kind != kind {
			continue
		}
		d := GroundDistance(p, r.Position)
		if d <= limit && (best == nil || d < bestDist) {
			best = r
			bestDist = d
		}
	}
	return best, best != nil
}

// All returns every live node ordered by id.
func (f *Forest) All() []*Resource {
	out := make([]*Resource, 0, len(f.nodes))
	for _, r := range f.nodes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live nodes.
func (f *Forest) Len() int {
	return len(f.nodes)
}
