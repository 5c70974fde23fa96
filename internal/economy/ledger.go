// Package economy implements the colony's resource economy: the ledger of
// six resource accounts, building construction, technology research, and
// resource upgrades.
//
// Types in this package are not safe for concurrent use; the engine
// serializes all calls behind one mutex.
package economy

import (
	"fmt"
	"math"

	"github.com/talgya/planetary-ascension/internal/resource"
)

// Account is the state of one resource.
type Account struct {
	Value      float64 `json:"value"`      // Current stock, 0 ≤ Value ≤ Max
	Production float64 `json:"production"` // Per-second rate, ≥ 0
	Max        float64 `json:"max"`        // Capacity
}

// DefaultAccounts returns the starting colony economy.
func DefaultAccounts() map[resource.ID]Account {
	return map[resource.ID]Account{
		resource.Energy:     {Value: 1250, Production: 45, Max: 10000},
		resource.Minerals:   {Value: 850, Production: 32, Max: 8000},
		resource.Population: {Value: 10250, Production: 12, Max: 50000},
		resource.Technology: {Value: 450, Production: 8, Max: 10000},
		resource.Food:       {Value: 5200, Production: 25, Max: 20000},
		resource.Credits:    {Value: 12500, Production: 18, Max: 50000},
	}
}

// Ledger owns the six resource accounts.
type Ledger struct {
	accounts [resource.Count]Account
}

// NewLedger creates a ledger from starting accounts. Missing resources start
// empty; out-of-range values are clamped so the invariants hold from the start.
func NewLedger(initial map[resource.ID]Account) *Ledger {
	l := &Ledger{}
	for id, a := range initial {
		if !id.Valid() {
			continue
		}
		a.Max = math.Max(a.Max, 0)
		a.Production = math.Max(a.Production, 0)
		a.Value = math.Min(math.Max(a.Value, 0), a.Max)
		l.accounts[id] = a
	}
	return l
}

// Account returns the state of one resource.
func (l *Ledger) Account(id resource.ID) (Account, bool) {
	if !id.Valid() {
		return Account{}, false
	}
	return l.accounts[id], true
}

// Value returns the current stock of a resource (0 for unknown ids).
func (l *Ledger) Value(id resource.ID) float64 {
	if !id.Valid() {
		return 0
	}
	return l.accounts[id].Value
}

// Snapshot copies all accounts, indexed by resource.ID.
func (l *Ledger) Snapshot() [resource.Count]Account {
	return l.accounts
}

// Tick accrues production*deltaSeconds into every account, clamped to capacity.
// Values never decrease under Tick.
func (l *Ledger) Tick(deltaSeconds float64) {
	if deltaSeconds <= 0 {
		return
	}
	for i := range l.accounts {
		a := &l.accounts[i]
		next := a.Value + a.Production*deltaSeconds
		if next > a.Max {
			next = a.Max
		}
		if next > a.Value {
			a.Value = next
		}
	}
}

// CanAfford reports whether every resource named in cost has at least the
// requested amount. Unknown resources fail closed.
func (l *Ledger) CanAfford(cost resource.Amounts) bool {
	return l.check(cost) == nil
}

func (l *Ledger) check(cost resource.Amounts) error {
	for id, amount := range cost {
		if !id.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownResource, id)
		}
		if amount < 0 {
			return fmt.Errorf("%w: %s %g", ErrNegativeAmount, id, amount)
		}
		if have := l.accounts[id].Value; have < amount {
			return fmt.Errorf("%w: need %g %s, have %g", ErrInsufficientResources, amount, id, math.Floor(have))
		}
	}
	return nil
}

// Pay debits cost from the ledger. It re-validates affordability first and
// either debits every named resource or changes nothing.
func (l *Ledger) Pay(cost resource.Amounts) error {
	if err := l.check(cost); err != nil {
		return err
	}
	for id, amount := range cost {
		l.accounts[id].Value -= amount
	}
	return nil
}

// IncreaseProduction adds amount to a resource's per-second rate.
func (l *Ledger) IncreaseProduction(id resource.ID, amount float64) error {
	if err := validDelta(id, amount); err != nil {
		return err
	}
	l.accounts[id].Production += amount
	return nil
}

// IncreaseCapacity raises a resource's maximum.
func (l *Ledger) IncreaseCapacity(id resource.ID, amount float64) error {
	if err := validDelta(id, amount); err != nil {
		return err
	}
	l.accounts[id].Max += amount
	return nil
}

// ApplyEfficiencyMultiplier multiplies a resource's production by factor and
// floors the result to a whole number, matching the game's balance tables.
func (l *Ledger) ApplyEfficiencyMultiplier(id resource.ID, factor float64) error {
	if err := validDelta(id, factor); err != nil {
		return err
	}
	a := &l.accounts[id]
	a.Production = math.Floor(a.Production * factor)
	return nil
}

func validDelta(id resource.ID, amount float64) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	if amount < 0 || math.IsNaN(amount) {
		return fmt.Errorf("%w: %g", ErrNegativeAmount, amount)
	}
	return nil
}
