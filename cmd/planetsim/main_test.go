package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/config"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Surface.Seed = 5
	return cfg
}

func TestSimulateOneHour(t *testing.T) {
	game, err := simulate(testConfig(), plan{Ticks: 36000})
	if err != nil {
		t.Fatal(err)
	}
	if got := game.ElapsedTime(); got != "01:00:00" {
		t.Errorf("elapsed = %q, want 01:00:00", got)
	}
	// 45 MW/s for an hour overflows the 10,000 MW cap.
	energy := game.Resources()[0]
	if energy.Value != energy.Max {
		t.Errorf("energy = %v, want capped at %v", energy.Value, energy.Max)
	}
}

func TestSimulateFollowsPlan(t *testing.T) {
	p := plan{
		Ticks:    6000,
		Build:    []string{"lab", "solar", "nowhere"},
		Research: []string{"energy1", "ai1"},
	}
	game, err := simulate(testConfig(), p)
	if err != nil {
		t.Fatal(err)
	}

	placed := game.Placements()
	if len(placed) != 2 || placed[0].BuildingID != "lab" || placed[1].BuildingID != "solar" {
		t.Errorf("placements = %+v", placed)
	}
	researched := game.Researched()
	if len(researched) != 2 || researched[0] != "energy1" || researched[1] != "ai1" {
		t.Errorf("researched = %v", researched)
	}
}

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	printCatalog(&buf, catalog.Default())
	out := buf.String()
	for _, want := range []string{"Solar Plant", "Warp Drive", "500 Credits", "+50 MW/s", "Efficiency +20%"} {
		if !strings.Contains(out, want) {
			t.Errorf("catalog output missing %q", want)
		}
	}
}

func TestPrintReport(t *testing.T) {
	game, err := simulate(testConfig(), plan{Ticks: 10, Build: []string{"farm"}})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	printReport(&buf, game, false)
	out := buf.String()
	for _, want := range []string{"00:00:01", "Farm ×1", "Farm built successfully!"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
