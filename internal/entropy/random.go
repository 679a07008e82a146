// Package entropy provides the seedable random source every stochastic
// simulation rule draws from. A zero seed is replaced by one drawn from
// crypto/rand, and the chosen seed is kept so a run can be replayed.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is a deterministic random source. Not safe for concurrent use; the
// simulation owns it and only touches it from inside a tick.
type Source struct {
	seed int64
	rng  *mrand.Rand
}

// New creates a source seeded with seed. Seed 0 draws a fresh seed.
func New(seed int64) *Source {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Source{
		seed: seed,
		rng:  mrand.New(mrand.NewSource(seed)),
	}
}

// Seed returns the seed this source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// Intn returns a uniform int in [0, n).
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

// Int63 returns a non-negative 63-bit integer, used to derive child seeds.
func (s *Source) Int63() int64 {
	return s.rng.Int63()
}

// Range returns a uniform value in [lo, hi).
func (s *Source) Range(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// Read fills p with pseudo-random bytes so the source can back id generators.
func (s *Source) Read(p []byte) (int, error) {
	return s.rng.Read(p)
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a fixed seed.
		return 42
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 42
	}
	return seed
}
