package economy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/planetary-ascension/internal/catalog"
)

// Position is a point on the planet surface.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlacedBuilding is a building instance on the planet surface.
// Created by a successful purchase; the surface owns it afterwards.
type PlacedBuilding struct {
	ID         string   `json:"id"`
	BuildingID string   `json:"building_id"`
	Name       string   `json:"name"`
	Icon       string   `json:"icon,omitempty"`
	Position   Position `json:"position"`
	Terrain    string   `json:"terrain,omitempty"`
	BuiltTick  uint64   `json:"built_tick"`
}

// Constructor validates and commits building purchases against a ledger.
// There is no building limit, terrain restriction, or duplicate check:
// anything the colony can pay for gets built.
type Constructor struct {
	catalog *catalog.Catalog
	ledger  *Ledger
}

// NewConstructor binds a catalog to the ledger that pays for construction.
func NewConstructor(c *catalog.Catalog, l *Ledger) *Constructor {
	return &Constructor{catalog: c, ledger: l}
}

// Purchase pays for a building and registers its production.
// On any error the ledger is unchanged.
func (c *Constructor) Purchase(buildingID string, pos Position) (PlacedBuilding, error) {
	def, ok := c.catalog.Building(buildingID)
	if !ok {
		return PlacedBuilding{}, fmt.Errorf("%w: %q", ErrUnknownBuilding, buildingID)
	}

	// Production deltas are checked before paying so a bad definition
	// cannot leave the colony charged without the building.
	if id, bad := def.Production.Unknown(); bad {
		return PlacedBuilding{}, fmt.Errorf("building %q produces %w: %s", def.ID, ErrUnknownResource, id)
	}

	if err := c.ledger.Pay(def.Cost); err != nil {
		return PlacedBuilding{}, fmt.Errorf("build %s: %w", def.Name, err)
	}

	for id, amount := range def.Production {
		// Cannot fail: ids checked above, amounts validated at catalog load.
		_ = c.ledger.IncreaseProduction(id, amount)
	}

	return PlacedBuilding{
		ID:         uuid.NewString(),
		BuildingID: def.ID,
		Name:       def.Name,
		Icon:       def.Icon,
		Position:   pos,
	}, nil
}
