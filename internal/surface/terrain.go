// Package surface models the planet surface the colony builds on: a
// rectangular plane with noise-generated terrain and the registry of placed
// buildings.
package surface

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Terrain is the cosmetic ground type under a point of the surface.
type Terrain string

const (
	TerrainPlains    Terrain = "plains"
	TerrainHighlands Terrain = "highlands"
	TerrainCrater    Terrain = "crater"
	TerrainIce       Terrain = "ice"
	TerrainBasin     Terrain = "basin"
)

// Terrains lists every terrain type.
func Terrains() []Terrain {
	return []Terrain{TerrainPlains, TerrainHighlands, TerrainCrater, TerrainIce, TerrainBasin}
}

// Config holds surface generation parameters.
type Config struct {
	Width    float64 // Plane width in surface units
	Height   float64 // Plane height in surface units
	Seed     int64   // Noise seed (0 = random)
	BasinLvl float64 // Elevation below which ground is basin (0.0–1.0)
	HighLvl  float64 // Elevation above which ground is highlands (0.0–1.0)
}

// DefaultConfig returns the standard play area.
func DefaultConfig() Config {
	return Config{
		Width:    1000,
		Height:   600,
		Seed:     0,
		BasinLvl: 0.30,
		HighLvl:  0.70,
	}
}

// field samples the layered noise that drives terrain.
type field struct {
	elev   opensimplex.Noise
	temp   opensimplex.Noise
	impact opensimplex.Noise
	cfg    Config
}

func newField(cfg Config) field {
	return field{
		elev:   opensimplex.NewNormalized(cfg.Seed),
		temp:   opensimplex.NewNormalized(cfg.Seed + 1),
		impact: opensimplex.NewNormalized(cfg.Seed + 2),
		cfg:    cfg,
	}
}

// terrainAt derives the terrain type at (x, y).
func (f field) terrainAt(x, y float64) Terrain {
	elev := octaveNoise(f.elev, x, y, 4, 0.004, 0.5)
	temp := octaveNoise(f.temp, x, y, 3, 0.003, 0.5)
	impact := octaveNoise(f.impact, x, y, 2, 0.02, 0.4)

	// Colder toward the top and bottom edges.
	lat := math.Abs(y/f.cfg.Height*2 - 1)
	temp = temp*0.6 + (1-lat)*0.4

	switch {
	case impact > 0.82:
		return TerrainCrater
	case temp < 0.3:
		return TerrainIce
	case elev > f.cfg.HighLvl:
		return TerrainHighlands
	case elev < f.cfg.BasinLvl:
		return TerrainBasin
	default:
		return TerrainPlains
	}
}

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

func resolveSeed(seed int64) int64 {
	if seed == 0 {
		return rand.Int63()
	}
	return seed
}
