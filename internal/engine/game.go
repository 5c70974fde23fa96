package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/economy"
	"github.com/talgya/planetary-ascension/internal/resource"
	"github.com/talgya/planetary-ascension/internal/surface"
)

// WelcomeMessage is the first status line of every session.
const WelcomeMessage = "Welcome to Planetary Ascension! Start building your colony."

// Options configures a new Game.
type Options struct {
	Catalog  *catalog.Catalog                // nil = embedded default
	Accounts map[resource.ID]economy.Account // nil = economy.DefaultAccounts()
	Surface  surface.Config                  // zero = surface.DefaultConfig()
	Interval time.Duration                   // Game time per tick; zero = DefaultInterval
	Hub      *Hub                            // nil = a private hub
}

// Game holds the complete state of one session and serializes every
// operation on it behind a single mutex. Events are published after the
// mutation commits, outside the state lock but in commit order.
type Game struct {
	mu    sync.Mutex
	pubMu sync.Mutex // Held from commit until the events are published

	catalog  *catalog.Catalog
	ledger   *economy.Ledger
	builder  *economy.Constructor
	research *economy.Research
	shop     *economy.Shop
	surface  *surface.Surface

	tick     uint64
	interval time.Duration
	status   string

	hub *Hub
}

// TechNode is one technology as shown on the tech tree.
type TechNode struct {
	catalog.Technology
	State    economy.TechState `json:"state"`
	Depth    int               `json:"depth"`
	CostText string            `json:"cost_text"`
}

// BuildingView is a building definition with its formatted cost.
type BuildingView struct {
	catalog.Building
	CostText string `json:"cost_text"`
	Built    int    `json:"built"`
}

// Snapshot is the full observable state at one tick.
type Snapshot struct {
	Tick         uint64                   `json:"tick"`
	Elapsed      string                   `json:"elapsed"`
	Status       string                   `json:"status"`
	Resources    []economy.AccountView    `json:"resources"`
	Placements   []economy.PlacedBuilding `json:"placements"`
	Technologies []TechNode               `json:"technologies"`
	Milestones   []string                 `json:"milestones"`
}

// NewGame builds a session from opts and publishes the welcome event.
func NewGame(opts Options) *Game {
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	accounts := opts.Accounts
	if accounts == nil {
		accounts = economy.DefaultAccounts()
	}
	scfg := opts.Surface
	if scfg == (surface.Config{}) {
		scfg = surface.DefaultConfig()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(0)
	}

	ledger := economy.NewLedger(accounts)
	g := &Game{
		catalog:  cat,
		ledger:   ledger,
		builder:  economy.NewConstructor(cat, ledger),
		research: economy.NewResearch(cat, ledger),
		shop:     economy.NewShop(cat, ledger),
		surface:  surface.New(scfg),
		interval: interval,
		status:   WelcomeMessage,
		hub:      hub,
	}
	slog.Info("game created",
		"buildings", len(cat.Buildings),
		"technologies", len(cat.Technologies),
		"surface", g.surface.String(),
	)
	g.publish(Event{Kind: KindWelcome, Message: WelcomeMessage})
	return g
}

// Hub returns the hub events are published to.
func (g *Game) Hub() *Hub { return g.hub }

// Catalog returns the immutable definitions this game was built from.
func (g *Game) Catalog() *catalog.Catalog { return g.catalog }

// Tick advances the economy by one tick. It is the engine's OnTick callback.
func (g *Game) Tick(tick uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tick > g.tick {
		g.tick = tick
	}
	g.ledger.Tick(g.interval.Seconds())
}

// PublishResources emits a resource sample for live views.
func (g *Game) PublishResources() {
	g.mu.Lock()
	ev := Event{Tick: g.tick, Kind: KindResources, Meta: map[string]any{"resources": g.ledger.Views()}}
	g.commit(ev)
}

// Purchase buys a building and places it at pos. It returns the status line
// the attempt produced.
func (g *Game) Purchase(buildingID string, pos economy.Position) (economy.PlacedBuilding, string, error) {
	g.mu.Lock()
	pb, err := g.builder.Purchase(buildingID, pos)
	var ev Event
	if err != nil {
		name := buildingID
		if def, ok := g.catalog.Building(buildingID); ok {
			name = def.Name
		}
		ev = g.failure(KindBuildFailed, err, buildMessage(name, err), map[string]any{"building": buildingID})
	} else {
		pb.BuiltTick = g.tick
		pb = g.surface.Place(pb)
		ev = g.success(KindBuild, fmt.Sprintf("%s built successfully!", pb.Name), map[string]any{
			"building":  pb.BuildingID,
			"placement": pb.ID,
			"x":         pb.Position.X,
			"y":         pb.Position.Y,
			"terrain":   pb.Terrain,
		})
	}
	g.commit(ev)
	return pb, ev.Message, err
}

func buildMessage(name string, err error) string {
	switch {
	case errors.Is(err, economy.ErrInsufficientResources):
		return fmt.Sprintf("Insufficient resources to build %s", name)
	case errors.Is(err, economy.ErrUnknownBuilding):
		return fmt.Sprintf("Unknown building: %s", name)
	default:
		return fmt.Sprintf("Could not build %s", name)
	}
}

// Research researches a technology and applies its effect. A phase
// technology emits its phase event first, so the research line stays the
// final status.
func (g *Game) Research(id string) (catalog.Technology, string, error) {
	g.mu.Lock()
	tech, err := g.research.Research(id)
	var evs []Event
	if err != nil {
		name := id
		if tech.Name != "" {
			name = tech.Name
		}
		evs = append(evs, g.failure(KindResearchFailed, err, researchMessage(name, err), map[string]any{"technology": id}))
	} else {
		if tech.Effect == catalog.EffectPhase {
			evs = append(evs, g.success(KindPhase, fmt.Sprintf("Advanced phase unlocked: %s!", tech.Name), map[string]any{"technology": tech.ID}))
		}
		meta := map[string]any{"technology": tech.ID, "effect": string(tech.Effect)}
		evs = append(evs, g.success(KindResearch, fmt.Sprintf("%s researched successfully!", tech.Name), meta))
	}
	status := g.status
	g.commit(evs...)
	return tech, status, err
}

func researchMessage(name string, err error) string {
	switch {
	case errors.Is(err, economy.ErrAlreadyResearched):
		return fmt.Sprintf("%s is already researched", name)
	case errors.Is(err, economy.ErrPrerequisitesUnmet):
		return fmt.Sprintf("Prerequisites not met for %s", name)
	case errors.Is(err, economy.ErrInsufficientTechPoints):
		return fmt.Sprintf("Not enough technology to research %s", name)
	case errors.Is(err, economy.ErrUnknownTechnology):
		return fmt.Sprintf("Unknown technology: %s", name)
	default:
		return fmt.Sprintf("Could not research %s", name)
	}
}

// BuyUpgrade buys one upgrade of kind for res and returns the status line.
func (g *Game) BuyUpgrade(res resource.ID, kind catalog.UpgradeKind) (catalog.Upgrade, string, error) {
	g.mu.Lock()
	up, err := g.shop.Buy(res, kind)
	meta := map[string]any{"resource": res.String(), "kind": string(kind)}
	var ev Event
	if err != nil {
		msg := fmt.Sprintf("Could not upgrade %s", res.DisplayName())
		switch {
		case errors.Is(err, economy.ErrInsufficientResources):
			msg = fmt.Sprintf("Insufficient resources for %s upgrade", res.DisplayName())
		case errors.Is(err, economy.ErrUnknownUpgrade):
			msg = fmt.Sprintf("Unknown upgrade: %s", kind)
		}
		ev = g.failure(KindUpgradeFailed, err, msg, meta)
	} else {
		ev = g.success(KindUpgrade, fmt.Sprintf("%s upgraded: %s", res.DisplayName(), up.Name), meta)
	}
	g.commit(ev)
	return up, ev.Message, err
}

// Reposition moves a placed building. It never touches the economy. An
// unknown placement leaves the status line as it was and returns it.
func (g *Game) Reposition(placementID string, pos economy.Position) (economy.PlacedBuilding, string, error) {
	g.mu.Lock()
	pb, err := g.surface.Move(placementID, pos)
	if err != nil {
		status := g.status
		g.mu.Unlock()
		return pb, status, err
	}
	ev := g.success(KindReposition, fmt.Sprintf("%s repositioned", pb.Name), map[string]any{
		"placement": pb.ID,
		"x":         pb.Position.X,
		"y":         pb.Position.Y,
	})
	g.commit(ev)
	return pb, ev.Message, nil
}

// success sets the status line and returns the event. Caller holds g.mu.
func (g *Game) success(kind, msg string, meta map[string]any) Event {
	g.status = msg
	return Event{Tick: g.tick, Kind: kind, Message: msg, Meta: meta}
}

// failure sets the status line and returns the event. Caller holds g.mu.
func (g *Game) failure(kind string, err error, msg string, meta map[string]any) Event {
	g.status = msg
	if meta == nil {
		meta = make(map[string]any)
	}
	meta["error"] = err.Error()
	return Event{Tick: g.tick, Kind: kind, Message: msg, Meta: meta}
}

// commit releases g.mu and publishes evs. The caller holds g.mu. pubMu is
// taken before g.mu is released so concurrent actions publish in the order
// they committed.
func (g *Game) commit(evs ...Event) {
	g.pubMu.Lock()
	defer g.pubMu.Unlock()
	g.mu.Unlock()
	for _, ev := range evs {
		g.publish(ev)
	}
}

func (g *Game) publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	g.hub.Publish(ev)
}

// Resource returns one formatted account.
func (g *Game) Resource(id resource.ID) (economy.AccountView, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.ledger.Account(id)
	if !ok {
		return economy.AccountView{}, false
	}
	return economy.View(id, a), true
}

// Resources returns every account in display order.
func (g *Game) Resources() []economy.AccountView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Views()
}

// Accounts returns raw account state indexed by resource.ID.
func (g *Game) Accounts() [resource.Count]economy.Account {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Snapshot()
}

// CanAfford reports whether the colony can pay cost right now.
func (g *Game) CanAfford(cost resource.Amounts) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.CanAfford(cost)
}

// Buildings returns the catalog buildings with cost text and build counts.
func (g *Game) Buildings() []BuildingView {
	g.mu.Lock()
	counts := g.surface.CountByBuilding()
	g.mu.Unlock()

	out := make([]BuildingView, len(g.catalog.Buildings))
	for i, b := range g.catalog.Buildings {
		out[i] = BuildingView{Building: b, CostText: b.Cost.FormatCost(), Built: counts[b.ID]}
	}
	return out
}

// Researched returns researched technology ids in research order.
func (g *Game) Researched() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.research.Researched()
}

// TechTree returns every technology with its current state.
func (g *Game) TechTree() []TechNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.techTreeLocked()
}

func (g *Game) techTreeLocked() []TechNode {
	out := make([]TechNode, len(g.catalog.Technologies))
	for i, t := range g.catalog.Technologies {
		out[i] = TechNode{
			Technology: t,
			State:      g.research.State(t.ID),
			Depth:      g.catalog.Depth(t.ID),
			CostText:   resource.Amounts{resource.Technology: t.Cost}.FormatCost(),
		}
	}
	return out
}

// Placements returns every placed building in placement order.
func (g *Game) Placements() []economy.PlacedBuilding {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.surface.All()
}

// Placement returns one placed building.
func (g *Game) Placement(id string) (economy.PlacedBuilding, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.surface.Get(id)
}

// Milestones returns the phase technologies reached, in order.
func (g *Game) Milestones() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.research.Milestones()
}

// Status returns the latest status line.
func (g *Game) Status() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// CurrentTick returns the last tick applied to the economy.
func (g *Game) CurrentTick() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}

// ElapsedTime returns the game time played as HH:MM:SS.
func (g *Game) ElapsedTime() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ElapsedTime(g.tick, g.interval)
}

// SurfaceView describes the planet surface for the map view.
type SurfaceView struct {
	Width  float64             `json:"width"`
	Height float64             `json:"height"`
	Seed   int64               `json:"seed"`
	Grid   [][]surface.Terrain `json:"grid"`
}

// Surface samples the terrain on a cols×rows grid. Terrain never changes
// after generation, so no lock is taken.
func (g *Game) Surface(cols, rows int) SurfaceView {
	return SurfaceView{
		Width:  g.surface.Width(),
		Height: g.surface.Height(),
		Seed:   g.surface.Seed(),
		Grid:   g.surface.Grid(cols, rows),
	}
}

// Snapshot captures the full observable state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Tick:         g.tick,
		Elapsed:      ElapsedTime(g.tick, g.interval),
		Status:       g.status,
		Resources:    g.ledger.Views(),
		Placements:   g.surface.All(),
		Technologies: g.techTreeLocked(),
		Milestones:   g.research.Milestones(),
	}
}
