package entropy

import "testing"

func TestSeededSourcesAgree(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: expected identical values, got %v and %v", i, x, y)
		}
	}
}

func TestZeroSeedIsReplaced(t *testing.T) {
	s := New(0)
	if s.Seed() == 0 {
		t.Fatalf("expected zero seed to be replaced")
	}
}

func TestRangeBounds(t *testing.T) {
	s := New(3)
	for i := 0; i < 1000; i++ {
		v := s.Range(0.8, 1.2)
		if v < 0.8 || v >= 1.2 {
			t.Fatalf("expected value in [0.8, 1.2), got %v", v)
		}
	}
}

func TestChanceExtremes(t *testing.T) {
	s := New(11)
	for i := 0; i < 100; i++ {
		if s.Chance(0) {
			t.Fatalf("expected Chance(0) to never fire")
		}
		if !s.Chance(1) {
			t.Fatalf("expected Chance(1) to always fire")
		}
	}
}
