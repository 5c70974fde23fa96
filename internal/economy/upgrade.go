package economy

import (
	"fmt"

	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/resource"
)

// Shop sells the repeatable per-resource upgrades.
type Shop struct {
	catalog *catalog.Catalog
	ledger  *Ledger
}

// NewShop binds the upgrade catalog to a ledger.
func NewShop(c *catalog.Catalog, l *Ledger) *Shop {
	return &Shop{catalog: c, ledger: l}
}

// Buy pays for one upgrade of kind and applies it to res.
// Each call is an independent, fully paid transaction.
func (s *Shop) Buy(res resource.ID, kind catalog.UpgradeKind) (catalog.Upgrade, error) {
	if !res.Valid() {
		return catalog.Upgrade{}, fmt.Errorf("%w: %s", ErrUnknownResource, res)
	}
	up, ok := s.catalog.Upgrade(kind)
	if !ok {
		return catalog.Upgrade{}, fmt.Errorf("%w: %q", ErrUnknownUpgrade, kind)
	}

	if err := s.ledger.Pay(up.Cost); err != nil {
		return up, fmt.Errorf("%s upgrade: %w", kind, err)
	}

	// The resource and amount were validated above and at catalog load,
	// so these cannot fail after payment.
	switch up.Kind {
	case catalog.UpgradeProduction:
		_ = s.ledger.IncreaseProduction(res, up.Amount)
	case catalog.UpgradeCapacity:
		_ = s.ledger.IncreaseCapacity(res, up.Amount)
	case catalog.UpgradeEfficiency:
		_ = s.ledger.ApplyEfficiencyMultiplier(res, 1+up.Amount/100)
	}
	return up, nil
}
