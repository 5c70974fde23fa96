package resource

import (
	"fmt"
	"strings"
)

// Amounts maps resources to quantities. Used for building costs, upgrade
// costs, and production deltas. Missing or zero entries mean "nothing".
type Amounts map[ID]float64

// Each calls fn for every non-zero entry in display order.
// Entries with ids outside the enumeration are skipped.
func (a Amounts) Each(fn func(ID, float64)) {
	for _, id := range All() {
		if v := a[id]; v != 0 {
			fn(id, v)
		}
	}
}

// Unknown returns the first key that is not a valid resource, if any.
func (a Amounts) Unknown() (ID, bool) {
	for id := range a {
		if !id.Valid() {
			return id, true
		}
	}
	return 0, false
}

// Clone returns an independent copy.
func (a Amounts) Clone() Amounts {
	out := make(Amounts, len(a))
	for id, v := range a {
		out[id] = v
	}
	return out
}

// costOrder is the order the build menu lists cost components in.
var costOrder = []ID{Energy, Minerals, Technology, Food, Population, Credits}

// FormatCost renders a cost like "100 Minerals, 500 Credits", or "Free"
// when nothing is owed.
func (a Amounts) FormatCost() string {
	var parts []string
	for _, id := range costOrder {
		if v := a[id]; v > 0 {
			parts = append(parts, fmt.Sprintf("%g %s", v, id.DisplayName()))
		}
	}
	if len(parts) == 0 {
		return "Free"
	}
	return strings.Join(parts, ", ")
}
