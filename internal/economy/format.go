package economy

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/planetary-ascension/internal/resource"
)

// AccountView is an account prepared for display.
type AccountView struct {
	Resource   resource.ID `json:"resource"`
	Name       string      `json:"name"`
	Unit       string      `json:"unit"`
	Value      float64     `json:"value"`
	Production float64     `json:"production"`
	Max        float64     `json:"max"`
	Display    string      `json:"display"`  // "1,295 MW"
	Rate       string      `json:"rate"`     // "+45/s"
	Capacity   string      `json:"capacity"` // "10,000 MW"
}

// View formats an account for the resource cards.
func View(id resource.ID, a Account) AccountView {
	return AccountView{
		Resource:   id,
		Name:       id.DisplayName(),
		Unit:       id.Unit(),
		Value:      a.Value,
		Production: a.Production,
		Max:        a.Max,
		Display:    FormatAmount(id, a.Value),
		Rate:       fmt.Sprintf("+%s/s", humanize.Commaf(a.Production)),
		Capacity:   FormatAmount(id, a.Max),
	}
}

// FormatAmount renders a whole-number value with thousands separators and
// the resource unit, e.g. "12,500 CR".
func FormatAmount(id resource.ID, v float64) string {
	s := humanize.Comma(int64(math.Floor(v)))
	if u := id.Unit(); u != "" {
		return s + " " + u
	}
	return s
}

// Views formats every account of a ledger in display order.
func (l *Ledger) Views() []AccountView {
	out := make([]AccountView, 0, resource.Count)
	for _, id := range resource.All() {
		out = append(out, View(id, l.accounts[id]))
	}
	return out
}
