// Forest generation using layered simplex noise.
// Trees are sampled on a jittered grid inside the forest radius and kept
// where the noise field exceeds the density threshold.
package world

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds forest generation parameters.
type GenConfig struct {
	Radius      float64 // Trees are placed within this distance of the origin
	Spacing     float64 // Grid step between candidate tree sites
	Threshold   float64 // Normalized noise value a site must exceed (0.0–1.0)
	Frequency   float64 // Base noise frequency
	WoodPerTree int
	Seed        int64 // Random seed (0 = random)
}

// SmallTestConfig returns a tiny, dense forest for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:      10,
		Spacing:     2,
		Threshold:   0.3,
		Frequency:   0.2,
		WoodPerTree: 3,
		Seed:        42,
	}
}

// GenerateForest plants trees into a new Forest.
func GenerateForest(cfg GenConfig) *Forest {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	density := opensimplex.NewNormalized(seed)
	jitter := rand.New(rand.NewSource(seed + 1))

	f := NewForest()
	if cfg.Spacing <= 0 || cfg.WoodPerTree <= 0 {
		return f
	}

	steps := int(math.Floor(cfg.Radius / cfg.Spacing))
	for gx := -steps; gx <= steps; gx++ {
		for gz := -steps; gz <= steps; gz++ {
			x := float64(gx) * cfg.Spacing
			z := float64(gz) * cfg.Spacing

			// Draw jitter for every site so placement is stable regardless of threshold.
			jx := (jitter.Float64() - 0.5) * cfg.Spacing * 0.5
			jz := (jitter.Float64() - 0.5) * cfg.Spacing * 0.5

			if math.Hypot(x, z) > cfg.Radius {
				continue
			}
			if octaveNoise(density, x, z, 3, cfg.Frequency, 0.5) < cfg.Threshold {
				continue
			}
			f.Plant(ResourceTree, mgl64.Vec3{x + jx, 0, z + jz}, cfg.WoodPerTree)
		}
	}
	return f
}

// octaveNoise sums several noise octaves into a single [0, 1] value.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
