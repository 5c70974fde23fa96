// Package catalog holds the static game data: building definitions,
// technology definitions, and per-resource upgrades.
// Definitions are immutable once loaded.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/planetary-ascension/internal/resource"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

// Building is a purchasable structure with a one-time cost and a permanent
// production delta.
type Building struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Icon       string           `json:"icon,omitempty"`
	Cost       resource.Amounts `json:"cost"`
	Production resource.Amounts `json:"production"`
}

// Effect names what a technology does once researched.
type Effect string

const (
	EffectEnergy     Effect = "energy"
	EffectMinerals   Effect = "minerals"
	EffectFood       Effect = "food"
	EffectTechnology Effect = "technology"
	EffectPhase      Effect = "phase" // Milestone only, no numeric effect
)

// effectMultipliers maps numeric effects to the production multiplier they apply.
var effectMultipliers = map[Effect]struct {
	res    resource.ID
	factor float64
}{
	EffectEnergy:     {resource.Energy, 1.2},
	EffectMinerals:   {resource.Minerals, 1.25},
	EffectFood:       {resource.Food, 1.3},
	EffectTechnology: {resource.Technology, 1.15},
}

// Multiplier returns the resource and production factor for numeric effects.
// Phase effects (and unknown tags) return ok=false.
func (e Effect) Multiplier() (res resource.ID, factor float64, ok bool) {
	m, ok := effectMultipliers[e]
	return m.res, m.factor, ok
}

// Valid reports whether e is a known effect tag.
func (e Effect) Valid() bool {
	_, numeric := effectMultipliers[e]
	return numeric || e == EffectPhase
}

// Technology is a one-time research unlock.
type Technology struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon,omitempty"`
	Description string   `json:"description"`
	Cost        float64  `json:"cost"` // Technology-resource units (RP)
	Requires    []string `json:"requires"`
	Effect      Effect   `json:"effect"`
}

// UpgradeKind selects what a resource upgrade improves.
type UpgradeKind string

const (
	UpgradeProduction UpgradeKind = "production" // +Amount per second
	UpgradeCapacity   UpgradeKind = "capacity"   // +Amount max
	UpgradeEfficiency UpgradeKind = "efficiency" // +Amount percent, floored
)

// Upgrade is a repeatable purchase applied to one resource chosen by the player.
type Upgrade struct {
	Kind   UpgradeKind      `json:"kind"`
	Name   string           `json:"name"`
	Amount float64          `json:"amount"`
	Cost   resource.Amounts `json:"cost"`
}

// Catalog is the loaded, validated set of definitions.
type Catalog struct {
	Buildings    []Building
	Technologies []Technology
	Upgrades     []Upgrade

	buildingIndex map[string]int
	techIndex     map[string]int
	depth         map[string]int
}

// Building looks up a building definition by id.
func (c *Catalog) Building(id string) (Building, bool) {
	i, ok := c.buildingIndex[id]
	if !ok {
		return Building{}, false
	}
	return c.Buildings[i], true
}

// Technology looks up a technology definition by id.
func (c *Catalog) Technology(id string) (Technology, bool) {
	i, ok := c.techIndex[id]
	if !ok {
		return Technology{}, false
	}
	return c.Technologies[i], true
}

// Upgrade looks up an upgrade by kind.
func (c *Catalog) Upgrade(kind UpgradeKind) (Upgrade, bool) {
	for _, u := range c.Upgrades {
		if u.Kind == kind {
			return u, true
		}
	}
	return Upgrade{}, false
}

// Depth returns the length of the longest prerequisite chain below a
// technology (0 for roots). Used to lay out the tech tree in columns.
func (c *Catalog) Depth(id string) int {
	return c.depth[id]
}

// Default returns the embedded catalog. The embedded data is covered by
// tests, so a failure here is a build defect.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path returns the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

type rawCatalog struct {
	Buildings []struct {
		ID         string             `yaml:"id"`
		Name       string             `yaml:"name"`
		Icon       string             `yaml:"icon"`
		Cost       map[string]float64 `yaml:"cost"`
		Production map[string]float64 `yaml:"production"`
	} `yaml:"buildings"`
	Technologies []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Icon        string   `yaml:"icon"`
		Description string   `yaml:"description"`
		Cost        float64  `yaml:"cost"`
		Requires    []string `yaml:"requires"`
		Effect      string   `yaml:"effect"`
	} `yaml:"technologies"`
	Upgrades []struct {
		Kind   string             `yaml:"kind"`
		Name   string             `yaml:"name"`
		Amount float64            `yaml:"amount"`
		Cost   map[string]float64 `yaml:"cost"`
	} `yaml:"upgrades"`
}

// Parse validates raw YAML against the catalog schema, decodes it, and
// checks the technology graph.
func Parse(raw []byte) (*Catalog, error) {
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var rc rawCatalog
	if err := yaml.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}

	c := &Catalog{
		buildingIndex: make(map[string]int, len(rc.Buildings)),
		techIndex:     make(map[string]int, len(rc.Technologies)),
	}

	for _, rb := range rc.Buildings {
		if _, dup := c.buildingIndex[rb.ID]; dup {
			return nil, fmt.Errorf("duplicate building %q", rb.ID)
		}
		cost, err := toAmounts(rb.Cost)
		if err != nil {
			return nil, fmt.Errorf("building %q cost: %w", rb.ID, err)
		}
		prod, err := toAmounts(rb.Production)
		if err != nil {
			return nil, fmt.Errorf("building %q production: %w", rb.ID, err)
		}
		c.buildingIndex[rb.ID] = len(c.Buildings)
		c.Buildings = append(c.Buildings, Building{
			ID:         rb.ID,
			Name:       rb.Name,
			Icon:       rb.Icon,
			Cost:       cost,
			Production: prod,
		})
	}

	for _, rt := range rc.Technologies {
		if _, dup := c.techIndex[rt.ID]; dup {
			return nil, fmt.Errorf("duplicate technology %q", rt.ID)
		}
		effect := Effect(rt.Effect)
		if !effect.Valid() {
			return nil, fmt.Errorf("technology %q: unknown effect %q", rt.ID, rt.Effect)
		}
		if rt.Cost < 0 {
			return nil, fmt.Errorf("technology %q: negative cost", rt.ID)
		}
		requires := append([]string(nil), rt.Requires...)
		if requires == nil {
			requires = []string{}
		}
		c.techIndex[rt.ID] = len(c.Technologies)
		c.Technologies = append(c.Technologies, Technology{
			ID:          rt.ID,
			Name:        rt.Name,
			Icon:        rt.Icon,
			Description: rt.Description,
			Cost:        rt.Cost,
			Requires:    requires,
			Effect:      effect,
		})
	}

	seenKinds := make(map[UpgradeKind]bool)
	for _, ru := range rc.Upgrades {
		kind := UpgradeKind(ru.Kind)
		switch kind {
		case UpgradeProduction, UpgradeCapacity, UpgradeEfficiency:
		default:
			return nil, fmt.Errorf("unknown upgrade kind %q", ru.Kind)
		}
		if seenKinds[kind] {
			return nil, fmt.Errorf("duplicate upgrade kind %q", ru.Kind)
		}
		seenKinds[kind] = true
		cost, err := toAmounts(ru.Cost)
		if err != nil {
			return nil, fmt.Errorf("upgrade %q cost: %w", ru.Kind, err)
		}
		c.Upgrades = append(c.Upgrades, Upgrade{
			Kind:   kind,
			Name:   ru.Name,
			Amount: ru.Amount,
			Cost:   cost,
		})
	}

	depth, err := checkGraph(c.Technologies, c.techIndex)
	if err != nil {
		return nil, err
	}
	c.depth = depth

	return c, nil
}

func toAmounts(m map[string]float64) (resource.Amounts, error) {
	out := make(resource.Amounts, len(m))
	for name, v := range m {
		id, ok := resource.Parse(name)
		if !ok {
			return nil, fmt.Errorf("unknown resource %q", name)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative amount for %s", name)
		}
		out[id] = v
	}
	return out, nil
}
