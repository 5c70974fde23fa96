package economy

import (
	"errors"
	"testing"

	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/resource"
)

func TestShopBuy(t *testing.T) {
	tests := []struct {
		kind     catalog.UpgradeKind
		res      resource.ID
		wantProd float64
		wantMax  float64
	}{
		{catalog.UpgradeProduction, resource.Minerals, 42, 8000},
		{catalog.UpgradeCapacity, resource.Minerals, 32, 9000},
		{catalog.UpgradeEfficiency, resource.Energy, 54, 10000},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			l := NewLedger(DefaultAccounts())
			tech := l.accounts[resource.Technology]
			tech.Value = 1000
			l.accounts[resource.Technology] = tech

			s := NewShop(catalog.Default(), l)
			up, err := s.Buy(tt.res, tt.kind)
			if err != nil {
				t.Fatalf("Buy: %v", err)
			}
			if up.Kind != tt.kind {
				t.Errorf("kind = %q", up.Kind)
			}
			a, _ := l.Account(tt.res)
			if a.Production != tt.wantProd || a.Max != tt.wantMax {
				t.Errorf("%s = %+v, want production %v max %v", tt.res, a, tt.wantProd, tt.wantMax)
			}
		})
	}
}

func TestShopBuyIsRepeatable(t *testing.T) {
	l := NewLedger(DefaultAccounts())
	s := NewShop(catalog.Default(), l)

	for i := 0; i < 2; i++ {
		if _, err := s.Buy(resource.Food, catalog.UpgradeProduction); err != nil {
			t.Fatalf("buy %d: %v", i, err)
		}
	}
	a, _ := l.Account(resource.Food)
	if a.Production != 45 {
		t.Errorf("food production = %v, want 45", a.Production)
	}
	if got := l.Value(resource.Credits); got != 11500 {
		t.Errorf("credits = %v, want 11500", got)
	}
	if got := l.Value(resource.Minerals); got != 450 {
		t.Errorf("minerals = %v, want 450", got)
	}

	// Minerals now 450, capacity needs 400 then another 400.
	if _, err := s.Buy(resource.Food, catalog.UpgradeCapacity); err != nil {
		t.Fatal(err)
	}
	before := l.Snapshot()
	if _, err := s.Buy(resource.Food, catalog.UpgradeCapacity); !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("err = %v, want ErrInsufficientResources", err)
	}
	if l.Snapshot() != before {
		t.Error("failed upgrade mutated the ledger")
	}
}

func TestShopBuyRejects(t *testing.T) {
	l := NewLedger(DefaultAccounts())
	s := NewShop(catalog.Default(), l)
	before := l.Snapshot()

	if _, err := s.Buy(resource.ID(40), catalog.UpgradeProduction); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("unknown resource err = %v", err)
	}
	if _, err := s.Buy(resource.Energy, catalog.UpgradeKind("overclock")); !errors.Is(err, ErrUnknownUpgrade) {
		t.Errorf("unknown upgrade err = %v", err)
	}
	if l.Snapshot() != before {
		t.Error("rejected upgrades mutated the ledger")
	}
}
