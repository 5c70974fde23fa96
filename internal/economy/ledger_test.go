package economy

import (
	"errors"
	"math"
	"testing"

	"github.com/talgya/planetary-ascension/internal/resource"
)

const epsilon = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < epsilon }

func TestTickAccumulation(t *testing.T) {
	l := NewLedger(DefaultAccounts())

	for i := 0; i < 10; i++ {
		l.Tick(0.1)
	}

	if got := l.Value(resource.Energy); !approx(got, 1295) {
		t.Errorf("energy after 1s = %v, want 1295", got)
	}
	if got := l.Value(resource.Credits); !approx(got, 12518) {
		t.Errorf("credits after 1s = %v, want 12518", got)
	}
}

func TestTickClampsToCapacity(t *testing.T) {
	l := NewLedger(map[resource.ID]Account{
		resource.Food: {Value: 95, Production: 30, Max: 100},
	})

	prev := l.Value(resource.Food)
	for i := 0; i < 50; i++ {
		l.Tick(0.1)
		v := l.Value(resource.Food)
		if v > 100 {
			t.Fatalf("tick %d: value %v exceeds max", i, v)
		}
		if v < prev {
			t.Fatalf("tick %d: value decreased %v -> %v", i, prev, v)
		}
		prev = v
	}
	if prev != 100 {
		t.Errorf("food = %v, want clamped at 100", prev)
	}
}

func TestTickIgnoresNonPositiveDelta(t *testing.T) {
	l := NewLedger(DefaultAccounts())
	l.Tick(0)
	l.Tick(-5)
	if got := l.Value(resource.Energy); got != 1250 {
		t.Errorf("energy = %v, want 1250", got)
	}
}

func TestNewLedgerClamps(t *testing.T) {
	l := NewLedger(map[resource.ID]Account{
		resource.Energy:   {Value: 500, Production: -3, Max: 100},
		resource.Minerals: {Value: -10, Production: 1, Max: 100},
		resource.ID(77):   {Value: 1, Max: 1},
	})
	e, _ := l.Account(resource.Energy)
	if e.Value != 100 || e.Production != 0 {
		t.Errorf("energy = %+v, want value 100 production 0", e)
	}
	if got := l.Value(resource.Minerals); got != 0 {
		t.Errorf("minerals = %v, want 0", got)
	}
	if _, ok := l.Account(resource.ID(77)); ok {
		t.Error("unknown resource should not have an account")
	}
}

func TestCanAfford(t *testing.T) {
	l := NewLedger(DefaultAccounts())

	tests := []struct {
		name string
		cost resource.Amounts
		want bool
	}{
		{"empty", resource.Amounts{}, true},
		{"exact", resource.Amounts{resource.Minerals: 850}, true},
		{"short", resource.Amounts{resource.Minerals: 851}, false},
		{"zero entry", resource.Amounts{resource.Energy: 0, resource.Credits: 500}, true},
		{"unknown resource", resource.Amounts{resource.ID(12): 1}, false},
		{"unknown zero", resource.Amounts{resource.ID(12): 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.CanAfford(tt.cost); got != tt.want {
				t.Errorf("CanAfford(%v) = %v, want %v", tt.cost, got, tt.want)
			}
		})
	}
}

func TestPayIsAtomic(t *testing.T) {
	l := NewLedger(DefaultAccounts())
	before := l.Snapshot()

	err := l.Pay(resource.Amounts{resource.Credits: 500, resource.Minerals: 9000})
	if !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("Pay err = %v, want ErrInsufficientResources", err)
	}
	if l.Snapshot() != before {
		t.Error("failed Pay mutated the ledger")
	}

	err = l.Pay(resource.Amounts{resource.ID(99): 1, resource.Credits: 1})
	if !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("Pay err = %v, want ErrUnknownResource", err)
	}
	if l.Snapshot() != before {
		t.Error("failed Pay mutated the ledger")
	}

	if err := l.Pay(resource.Amounts{resource.Credits: 500, resource.Minerals: 200}); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if got := l.Value(resource.Credits); got != 12000 {
		t.Errorf("credits = %v, want 12000", got)
	}
	if got := l.Value(resource.Minerals); got != 650 {
		t.Errorf("minerals = %v, want 650", got)
	}
}

func TestProductionAndCapacity(t *testing.T) {
	l := NewLedger(DefaultAccounts())

	if err := l.IncreaseProduction(resource.Energy, 10); err != nil {
		t.Fatal(err)
	}
	if err := l.IncreaseCapacity(resource.Energy, 1000); err != nil {
		t.Fatal(err)
	}
	a, _ := l.Account(resource.Energy)
	if a.Production != 55 || a.Max != 11000 {
		t.Errorf("energy = %+v, want production 55 max 11000", a)
	}

	if err := l.IncreaseProduction(resource.Energy, -1); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("negative production err = %v", err)
	}
	if err := l.IncreaseCapacity(resource.ID(8), 1); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("unknown capacity err = %v", err)
	}
}

func TestApplyEfficiencyMultiplierFloors(t *testing.T) {
	tests := []struct {
		production float64
		factor     float64
		want       float64
	}{
		{45, 1.2, 54},
		{32, 1.25, 40},
		{25, 1.3, 32},
		{8, 1.15, 9},
		{0, 1.2, 0},
	}
	for _, tt := range tests {
		l := NewLedger(map[resource.ID]Account{resource.Energy: {Production: tt.production, Max: 1}})
		if err := l.ApplyEfficiencyMultiplier(resource.Energy, tt.factor); err != nil {
			t.Fatal(err)
		}
		a, _ := l.Account(resource.Energy)
		if a.Production != tt.want {
			t.Errorf("floor(%v * %v) = %v, want %v", tt.production, tt.factor, a.Production, tt.want)
		}
	}
}

func TestViews(t *testing.T) {
	l := NewLedger(DefaultAccounts())
	views := l.Views()
	if len(views) != resource.Count {
		t.Fatalf("views = %d", len(views))
	}
	credits := views[resource.Credits]
	if credits.Display != "12,500 CR" {
		t.Errorf("credits display = %q", credits.Display)
	}
	if credits.Rate != "+18/s" {
		t.Errorf("credits rate = %q", credits.Rate)
	}
	if views[resource.Population].Capacity != "50,000 hab" {
		t.Errorf("population capacity = %q", views[resource.Population].Capacity)
	}
}
