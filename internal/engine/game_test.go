package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/economy"
	"github.com/talgya/planetary-ascension/internal/resource"
	"github.com/talgya/planetary-ascension/internal/surface"
)

func newTestGame(t *testing.T, accounts map[resource.ID]economy.Account) (*Game, <-chan Event) {
	t.Helper()
	hub := NewHub(50)
	events, unsubscribe := hub.Subscribe(100)
	t.Cleanup(unsubscribe)

	scfg := surface.DefaultConfig()
	scfg.Seed = 7
	g := NewGame(Options{Accounts: accounts, Surface: scfg, Hub: hub})

	ev := <-events
	if ev.Kind != KindWelcome || ev.Message != WelcomeMessage {
		t.Fatalf("first event = %+v, want welcome", ev)
	}
	return g, events
}

func next(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	default:
		t.Fatal("no event published")
		return Event{}
	}
}

func TestGameTickAccrues(t *testing.T) {
	g, _ := newTestGame(t, nil)
	for i := uint64(1); i <= 10; i++ {
		g.Tick(i)
	}
	v, _ := g.Resource(resource.Energy)
	if v.Value < 1294.999 || v.Value > 1295.001 {
		t.Errorf("energy = %v, want 1295", v.Value)
	}
	if g.ElapsedTime() != "00:00:01" {
		t.Errorf("elapsed = %q", g.ElapsedTime())
	}
}

func TestGamePurchase(t *testing.T) {
	g, events := newTestGame(t, nil)
	g.Tick(3)

	pb, status, err := g.Purchase("solar", economy.Position{X: 200, Y: 100})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if status != "Solar Plant built successfully!" {
		t.Errorf("returned status = %q", status)
	}
	if pb.BuiltTick != 3 || pb.Terrain == "" {
		t.Errorf("placed = %+v", pb)
	}

	ev := next(t, events)
	if ev.Kind != KindBuild || ev.Message != "Solar Plant built successfully!" {
		t.Errorf("event = %+v", ev)
	}
	if g.Status() != ev.Message {
		t.Errorf("status = %q", g.Status())
	}
	if got := g.Placements(); len(got) != 1 || got[0].ID != pb.ID {
		t.Errorf("placements = %+v", got)
	}
	for _, b := range g.Buildings() {
		if b.ID == "solar" && b.Built != 1 {
			t.Errorf("solar built = %d, want 1", b.Built)
		}
	}
}

func TestGamePurchaseFailureKeepsState(t *testing.T) {
	accounts := economy.DefaultAccounts()
	accounts[resource.Credits] = economy.Account{Value: 100, Production: 18, Max: 50000}
	g, events := newTestGame(t, accounts)
	before := g.Accounts()

	_, status, err := g.Purchase("lab", economy.Position{})
	if !errors.Is(err, economy.ErrInsufficientResources) {
		t.Fatalf("err = %v", err)
	}
	if status != "Insufficient resources to build Laboratory" {
		t.Errorf("returned status = %q", status)
	}
	ev := next(t, events)
	if ev.Kind != KindBuildFailed || ev.Message != "Insufficient resources to build Laboratory" {
		t.Errorf("event = %+v", ev)
	}
	if !ev.Failed() {
		t.Error("failure event not marked failed")
	}
	if g.Accounts() != before {
		t.Error("failed purchase changed accounts")
	}
	if len(g.Placements()) != 0 {
		t.Error("failed purchase placed a building")
	}
}

func TestGameResearchPhase(t *testing.T) {
	accounts := economy.DefaultAccounts()
	accounts[resource.Technology] = economy.Account{Value: 5000, Production: 8, Max: 10000}
	g, events := newTestGame(t, accounts)

	_, _, err := g.Research("space1")
	if !errors.Is(err, economy.ErrPrerequisitesUnmet) {
		t.Fatalf("err = %v, want ErrPrerequisitesUnmet", err)
	}
	if ev := next(t, events); ev.Message != "Prerequisites not met for Basic Rockets" {
		t.Errorf("message = %q", ev.Message)
	}

	for _, id := range []string{"energy1", "mining1"} {
		if _, _, err := g.Research(id); err != nil {
			t.Fatal(err)
		}
		next(t, events)
	}
	_, status, err := g.Research("space1")
	if err != nil {
		t.Fatal(err)
	}
	if ev := next(t, events); ev.Kind != KindPhase || ev.Message != "Advanced phase unlocked: Basic Rockets!" {
		t.Errorf("event = %+v", ev)
	}
	if ev := next(t, events); ev.Kind != KindResearch || ev.Message != "Basic Rockets researched successfully!" {
		t.Errorf("event = %+v", ev)
	}
	if status != "Basic Rockets researched successfully!" || g.Status() != status {
		t.Errorf("status = %q, returned %q; want the research line", g.Status(), status)
	}
	if got := g.Milestones(); len(got) != 1 || got[0] != "space1" {
		t.Errorf("milestones = %v", got)
	}

	states := make(map[string]economy.TechState)
	for _, n := range g.TechTree() {
		states[n.ID] = n.State
	}
	if states["space1"] != economy.TechResearched || states["warp1"] != economy.TechLocked {
		t.Errorf("states = %v", states)
	}
	if states["ai1"] != economy.TechAvailable {
		t.Errorf("ai1 = %q, want available with 2400 RP", states["ai1"])
	}

	if _, _, err := g.Research("energy1"); !errors.Is(err, economy.ErrAlreadyResearched) {
		t.Errorf("repeat err = %v", err)
	}
	if ev := next(t, events); ev.Message != "Advanced Energy is already researched" {
		t.Errorf("message = %q", ev.Message)
	}
}

func TestGameUpgradeAndReposition(t *testing.T) {
	g, events := newTestGame(t, nil)

	if _, status, err := g.BuyUpgrade(resource.Food, catalog.UpgradeProduction); err != nil {
		t.Fatal(err)
	} else if status != "Food upgraded: +10 Production" {
		t.Errorf("returned status = %q", status)
	}
	if ev := next(t, events); ev.Message != "Food upgraded: +10 Production" {
		t.Errorf("message = %q", ev.Message)
	}
	food, _ := g.Resource(resource.Food)
	if food.Production != 35 {
		t.Errorf("food production = %v", food.Production)
	}

	pb, _, err := g.Purchase("farm", economy.Position{X: 10, Y: 10})
	if err != nil {
		t.Fatal(err)
	}
	next(t, events)
	before := g.Accounts()

	moved, _, err := g.Reposition(pb.ID, economy.Position{X: 500, Y: 300})
	if err != nil {
		t.Fatal(err)
	}
	if moved.Position != (economy.Position{X: 500, Y: 300}) {
		t.Errorf("position = %+v", moved.Position)
	}
	if ev := next(t, events); ev.Kind != KindReposition || ev.Message != "Farm repositioned" {
		t.Errorf("event = %+v", ev)
	}
	if g.Accounts() != before {
		t.Error("reposition changed the economy")
	}

	if _, status, err := g.Reposition("missing", economy.Position{}); !errors.Is(err, surface.ErrUnknownPlacement) {
		t.Errorf("err = %v", err)
	} else if status != "Farm repositioned" {
		t.Errorf("status after unknown placement = %q, want it unchanged", status)
	}
}

func TestSnapshot(t *testing.T) {
	g, _ := newTestGame(t, nil)
	g.Tick(600)
	s := g.Snapshot()
	if s.Tick != 600 || s.Elapsed != "00:01:00" || s.Status != WelcomeMessage {
		t.Errorf("snapshot = %+v", s)
	}
	if len(s.Resources) != resource.Count || len(s.Technologies) != 6 {
		t.Errorf("resources=%d technologies=%d", len(s.Resources), len(s.Technologies))
	}
}

func TestConcurrentActionsPublishInCommitOrder(t *testing.T) {
	g, events := newTestGame(t, nil)

	var wg sync.WaitGroup
	returned := make(chan string, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var status string
			if i%2 == 0 {
				_, status, _ = g.Purchase("farm", economy.Position{X: float64(i), Y: 1})
			} else {
				_, status, _ = g.Research("nowhere")
			}
			returned <- status
		}(i)
	}
	wg.Wait()
	close(returned)

	published := make(map[string]int)
	var last Event
	for i := 0; i < 40; i++ {
		last = next(t, events)
		published[last.Message]++
	}
	if last.Message != g.Status() {
		t.Errorf("last event %q disagrees with status %q", last.Message, g.Status())
	}
	for status := range returned {
		if published[status] == 0 {
			t.Errorf("returned status %q was never published", status)
		}
	}
}
