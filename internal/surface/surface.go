package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/planetary-ascension/internal/economy"
)

// ErrUnknownPlacement is returned for a placement id the surface never issued.
var ErrUnknownPlacement = errors.New("unknown placement")

// Surface owns the placed buildings. Placement is accepted anywhere on the
// plane; positions outside it are clamped to the nearest edge.
// Not safe for concurrent use.
type Surface struct {
	cfg   Config
	field field

	placed []*economy.PlacedBuilding // Insertion order
	byID   map[string]*economy.PlacedBuilding
}

// New generates a surface. A zero seed picks a random one.
func New(cfg Config) *Surface {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		d := DefaultConfig()
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	if cfg.HighLvl <= cfg.BasinLvl {
		d := DefaultConfig()
		cfg.BasinLvl, cfg.HighLvl = d.BasinLvl, d.HighLvl
	}
	cfg.Seed = resolveSeed(cfg.Seed)
	return &Surface{
		cfg:   cfg,
		field: newField(cfg),
		byID:  make(map[string]*economy.PlacedBuilding),
	}
}

// Width returns the plane width.
func (s *Surface) Width() float64 { return s.cfg.Width }

// Height returns the plane height.
func (s *Surface) Height() float64 { return s.cfg.Height }

// Seed returns the resolved noise seed.
func (s *Surface) Seed() int64 { return s.cfg.Seed }

// TerrainAt returns the terrain at a position (clamped to the plane).
func (s *Surface) TerrainAt(pos economy.Position) Terrain {
	pos = s.clamp(pos)
	return s.field.terrainAt(pos.X, pos.Y)
}

// Grid samples the terrain on a cols×rows lattice of cell centres, row-major.
func (s *Surface) Grid(cols, rows int) [][]Terrain {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	cw := s.cfg.Width / float64(cols)
	ch := s.cfg.Height / float64(rows)
	grid := make([][]Terrain, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]Terrain, cols)
		for c := 0; c < cols; c++ {
			grid[r][c] = s.field.terrainAt((float64(c)+0.5)*cw, (float64(r)+0.5)*ch)
		}
	}
	return grid
}

// Place registers a newly built building, stamping its terrain.
func (s *Surface) Place(pb economy.PlacedBuilding) economy.PlacedBuilding {
	pb.Position = s.clamp(pb.Position)
	pb.Terrain = string(s.field.terrainAt(pb.Position.X, pb.Position.Y))
	p := &pb
	s.placed = append(s.placed, p)
	s.byID[p.ID] = p
	return pb
}

// Move repositions a placed building. Only position and terrain change.
func (s *Surface) Move(id string, pos economy.Position) (economy.PlacedBuilding, error) {
	p, ok := s.byID[id]
	if !ok {
		return economy.PlacedBuilding{}, fmt.Errorf("%w: %q", ErrUnknownPlacement, id)
	}
	p.Position = s.clamp(pos)
	p.Terrain = string(s.field.terrainAt(p.Position.X, p.Position.Y))
	return *p, nil
}

// Get returns one placed building.
func (s *Surface) Get(id string) (economy.PlacedBuilding, bool) {
	p, ok := s.byID[id]
	if !ok {
		return economy.PlacedBuilding{}, false
	}
	return *p, true
}

// All returns copies of every placed building in placement order.
func (s *Surface) All() []economy.PlacedBuilding {
	out := make([]economy.PlacedBuilding, len(s.placed))
	for i, p := range s.placed {
		out[i] = *p
	}
	return out
}

// Count returns the number of placed buildings.
func (s *Surface) Count() int {
	return len(s.placed)
}

// CountByBuilding tallies placements per building id.
func (s *Surface) CountByBuilding() map[string]int {
	out := make(map[string]int)
	for _, p := range s.placed {
		out[p.BuildingID]++
	}
	return out
}

func (s *Surface) clamp(pos economy.Position) economy.Position {
	if math.IsNaN(pos.X) {
		pos.X = 0
	}
	if math.IsNaN(pos.Y) {
		pos.Y = 0
	}
	pos.X = math.Min(math.Max(pos.X, 0), s.cfg.Width)
	pos.Y = math.Min(math.Max(pos.Y, 0), s.cfg.Height)
	return pos
}

// String returns a summary of the surface.
func (s *Surface) String() string {
	return fmt.Sprintf("Surface(%gx%g, seed=%d, placed=%d)", s.cfg.Width, s.cfg.Height, s.cfg.Seed, len(s.placed))
}
