package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestGenerateForestIsDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a := GenerateForest(cfg)
	b := GenerateForest(cfg)
	if a.Len() == 0 {
		t.Fatalf("expected a non-empty forest for the small test config")
	}
	if a.Len() != b.Len() {
		t.Fatalf("expected identical tree counts, got %d and %d", a.Len(), b.Len())
	}
	at, bt := a.All(), b.All()
	for i := range at {
		if at[i].Position != bt[i].Position {
			t.Fatalf("tree %d: expected identical positions, got %v and %v", i, at[i].Position, bt[i].Position)
		}
	}
}

func TestGenerateForestStaysInsideRadius(t *testing.T) {
	cfg := SmallTestConfig()
	f := GenerateForest(cfg)
	slack := cfg.Spacing // jitter is at most a quarter spacing per axis
	for _, r := range f.All() {
		if d := GroundDistance(r.Position, mgl64.Vec3{}); d > cfg.Radius+slack {
			t.Fatalf("tree %d at distance %v outside radius %v", r.ID, d, cfg.Radius)
		}
		if r.Amount != cfg.WoodPerTree {
			t.Fatalf("expected %d wood, got %d", cfg.WoodPerTree, r.Amount)
		}
	}
}

func TestHarvestRemovesDepletedNode(t *testing.T) {
	f := NewForest()
	id := f.Plant(ResourceTree, mgl64.Vec3{1, 0, 1}, 2)

	if got, ok := f.Harvest(id, 1); !ok || got != 1 {
		t.Fatalf("expected to harvest 1, got %d ok=%v", got, ok)
	}
	if got, ok := f.Harvest(id, 5); !ok || got != 1 {
		t.Fatalf("expected to harvest the remaining 1, got %d ok=%v", got, ok)
	}
	if _, ok := f.Get(id); ok {
		t.Fatalf("expected depleted tree to be removed")
	}
	if _, ok := f.Harvest(id, 1); ok {
		t.Fatalf("expected harvest of removed tree to fail")
	}
}

func TestNearestRespectsMaxDistance(t *testing.T) {
	f := NewForest()
	near := f.Plant(ResourceTree, mgl64.Vec3{3, 0, 0}, 1)
	f.Plant(ResourceTree, mgl64.Vec3{10, 0, 0}, 1)

	r, ok := f.Nearest(ResourceTree, mgl64.Vec3{}, 0)
	if !ok || r.ID != near {
		t.Fatalf("expected nearest tree %d, got %+v", near, r)
	}
	if _, ok := f.Nearest(ResourceTree, mgl64.Vec3{}, 2); ok {
		t.Fatalf("expected no tree within distance 2")
	}
}

func TestMapInBoundsIgnoresHeight(t *testing.T) {
	m := NewMap(5, nil)
	if !m.InBounds(mgl64.Vec3{3, 100, 4}) {
		t.Fatalf("expected point at ground distance 5 to be in bounds")
	}
	if m.InBounds(mgl64.Vec3{6, 0, 0}) {
		t.Fatalf("expected point at distance 6 to be out of bounds")
	}
}
