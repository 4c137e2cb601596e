// Package terrain generates movement costs for a tactical field from layered
// simplex noise.
package terrain

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/cory-johannsen/castlesiege/internal/game/hex"
)

// Kind classifies a cell of generated terrain.
type Kind uint8

const (
	Plains Kind = iota
	Forest
	Hills
	Marsh
	Cliff
)

// String returns the lowercase terrain name.
func (k Kind) String() string {
	switch k {
	case Plains:
		return "plains"
	case Forest:
		return "forest"
	case Hills:
		return "hills"
	case Marsh:
		return "marsh"
	case Cliff:
		return "cliff"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Cost returns the action points needed to enter terrain of kind k.
func (k Kind) Cost() int {
	switch k {
	case Plains:
		return 1
	case Forest, Marsh:
		return 2
	case Hills:
		return 3
	default:
		return hex.Impassable
	}
}

// Config tunes terrain generation.
type Config struct {
	Seed int64 `mapstructure:"seed"`
	// Frequency is the base sampling frequency of the noise.
	Frequency float64 `mapstructure:"frequency"`
	Octaves   int     `mapstructure:"octaves"`
	// Roughness in [0, 1) shifts every elevation upward, producing more
	// broken ground; 0 is the stock distribution.
	Roughness float64 `mapstructure:"roughness"`
}

// DefaultConfig returns the stock generation settings.
func DefaultConfig() Config {
	return Config{Seed: 1, Frequency: 0.18, Octaves: 3}
}

// Generator produces hex.CostFunc values from noise.
type Generator struct {
	cfg   Config
	elev  opensimplex.Noise
	moist opensimplex.Noise
}

// New creates a Generator for cfg.
func New(cfg Config) *Generator {
	if cfg.Octaves < 1 {
		cfg.Octaves = 1
	}
	return &Generator{
		cfg:   cfg,
		elev:  opensimplex.NewNormalized(cfg.Seed),
		moist: opensimplex.NewNormalized(cfg.Seed + 1),
	}
}

// KindAt classifies the terrain at c.
func (g *Generator) KindAt(c hex.Coord) Kind {
	// axial → cartesian
	x := float64(c.Q) + float64(c.R)*0.5
	y := float64(c.R) * math.Sqrt(3.0) / 2.0

	elev := octaveNoise(g.elev, x, y, g.cfg.Octaves, g.cfg.Frequency, 0.5) + g.cfg.Roughness
	moist := octaveNoise(g.moist, x, y, g.cfg.Octaves, g.cfg.Frequency, 0.5)

	switch {
	case elev > 0.82:
		return Cliff
	case elev > 0.68:
		return Hills
	case moist > 0.7 && elev < 0.4:
		return Marsh
	case moist > 0.55:
		return Forest
	default:
		return Plains
	}
}

// Cost implements hex.CostFunc.
func (g *Generator) Cost(c hex.Coord) int { return g.KindAt(c).Cost() }

// Field builds a grid of radius r and clears every cell in keep, plus their
// neighbours, to plains so deployment positions are always usable.
func (g *Generator) Field(r int, keep ...hex.Coord) *hex.Grid {
	grid := hex.NewGrid(r, g.Cost)
	for _, k := range keep {
		grid.SetCost(k, Plains.Cost())
		for _, n := range k.Neighbors() {
			grid.SetCost(n, Plains.Cost())
		}
	}
	return grid
}

// octaveNoise generates fractal noise by layering multiple frequencies.
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
