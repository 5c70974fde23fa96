package economy

import (
	"fmt"

	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/resource"
)

// TechState is the tri-state shown on each tech tree node.
type TechState string

const (
	TechResearched TechState = "researched"
	TechAvailable  TechState = "available" // Affordable with prerequisites met
	TechLocked     TechState = "locked"
)

// Research tracks which technologies the colony has researched and applies
// their effects to the ledger. The researched set only grows.
type Research struct {
	catalog *catalog.Catalog
	ledger  *Ledger

	researched []string // In research order
	done       map[string]bool
	milestones []string // Phase technologies reached, in order
}

// NewResearch creates an empty research state.
func NewResearch(c *catalog.Catalog, l *Ledger) *Research {
	return &Research{
		catalog: c,
		ledger:  l,
		done:    make(map[string]bool),
	}
}

// CanResearch reports whether the colony has enough technology points and
// every prerequisite researched. It does not look at whether id itself is
// already researched; Research rejects repeats.
func (r *Research) CanResearch(id string) bool {
	tech, ok := r.catalog.Technology(id)
	if !ok {
		return false
	}
	return r.ledger.Value(resource.Technology) >= tech.Cost && r.prerequisitesMet(tech)
}

func (r *Research) prerequisitesMet(tech catalog.Technology) bool {
	for _, req := range tech.Requires {
		if !r.done[req] {
			return false
		}
	}
	return true
}

// Research spends technology points on a technology and applies its effect
// exactly once. Prerequisites are checked before the balance, so researching
// out of order reports ErrPrerequisitesUnmet however many points are banked.
func (r *Research) Research(id string) (catalog.Technology, error) {
	tech, ok := r.catalog.Technology(id)
	if !ok {
		return catalog.Technology{}, fmt.Errorf("%w: %q", ErrUnknownTechnology, id)
	}
	if r.done[id] {
		return tech, fmt.Errorf("%s: %w", tech.Name, ErrAlreadyResearched)
	}
	if !r.prerequisitesMet(tech) {
		return tech, fmt.Errorf("%s: %w (requires %v)", tech.Name, ErrPrerequisitesUnmet, r.missing(tech))
	}
	if r.ledger.Value(resource.Technology) < tech.Cost {
		return tech, fmt.Errorf("%s: %w", tech.Name, ErrInsufficientTechPoints)
	}

	if err := r.ledger.Pay(resource.Amounts{resource.Technology: tech.Cost}); err != nil {
		return tech, fmt.Errorf("%s: %w", tech.Name, err)
	}
	r.done[id] = true
	r.researched = append(r.researched, id)

	if res, factor, numeric := tech.Effect.Multiplier(); numeric {
		// Cannot fail: res and factor come from the effect table.
		_ = r.ledger.ApplyEfficiencyMultiplier(res, factor)
	} else if tech.Effect == catalog.EffectPhase {
		r.milestones = append(r.milestones, id)
	}

	return tech, nil
}

func (r *Research) missing(tech catalog.Technology) []string {
	var out []string
	for _, req := range tech.Requires {
		if !r.done[req] {
			out = append(out, req)
		}
	}
	return out
}

// IsResearched reports whether id is in the researched set.
func (r *Research) IsResearched(id string) bool {
	return r.done[id]
}

// Researched returns researched technology ids in the order they were researched.
func (r *Research) Researched() []string {
	return append([]string(nil), r.researched...)
}

// Milestones returns the phase technologies researched so far.
func (r *Research) Milestones() []string {
	return append([]string(nil), r.milestones...)
}

// State returns the tech tree state of id. Unknown ids are locked.
func (r *Research) State(id string) TechState {
	switch {
	case r.done[id]:
		return TechResearched
	case r.CanResearch(id):
		return TechAvailable
	default:
		return TechLocked
	}
}
