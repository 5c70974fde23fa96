package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/economy"
	"github.com/talgya/planetary-ascension/internal/engine"
	"github.com/talgya/planetary-ascension/internal/resource"
)

const (
	maxSteps       = 10000
	maxSurfaceCell = 200
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Game.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":          "Planetary Ascension",
		"tick":          snap.Tick,
		"elapsed":       snap.Elapsed,
		"speed":         s.Eng.Speed(),
		"running":       s.Eng.Running(),
		"status":        snap.Status,
		"buildings":     len(snap.Placements),
		"researched":    s.Game.Researched(),
		"milestones":    snap.Milestones,
		"skipped_ticks": s.Eng.Skipped(),
	})
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Game.Resources())
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resource.Parse(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown resource: "+chi.URLParam(r, "id"), "")
		return
	}
	view, _ := s.Game.Resource(id)
	writeJSON(w, http.StatusOK, view)
}

type buildingResponse struct {
	engine.BuildingView
	Affordable bool `json:"affordable"`
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	views := s.Game.Buildings()
	out := make([]buildingResponse, len(views))
	for i, v := range views {
		out[i] = buildingResponse{BuildingView: v, Affordable: s.Game.CanAfford(v.Cost)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlacements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Game.Placements())
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Building string  `json:"building"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Building == "" {
		writeError(w, http.StatusBadRequest, "building is required", "")
		return
	}

	pb, status, err := s.Game.Purchase(req.Building, economy.Position{X: req.X, Y: req.Y})
	if err != nil {
		writeGameError(w, err, status)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"placement": pb,
		"status":    status,
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	pb, status, err := s.Game.Reposition(chi.URLParam(r, "id"), economy.Position{X: req.X, Y: req.Y})
	if err != nil {
		writeGameError(w, err, status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"placement": pb,
		"status":    status,
	})
}

func (s *Server) handleTechnologies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Game.TechTree())
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	tech, status, err := s.Game.Research(chi.URLParam(r, "id"))
	if err != nil {
		writeGameError(w, err, status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"technology": tech,
		"status":     status,
	})
}

type upgradeResponse struct {
	catalog.Upgrade
	CostText   string `json:"cost_text"`
	Affordable bool   `json:"affordable"`
}

func (s *Server) handleUpgrades(w http.ResponseWriter, r *http.Request) {
	ups := s.Game.Catalog().Upgrades
	out := make([]upgradeResponse, len(ups))
	for i, u := range ups {
		out[i] = upgradeResponse{Upgrade: u, CostText: u.Cost.FormatCost(), Affordable: s.Game.CanAfford(u.Cost)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resource string `json:"resource"`
		Kind     string `json:"kind"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, ok := resource.Parse(req.Resource)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown resource: "+req.Resource, s.Game.Status())
		return
	}

	up, status, err := s.Game.BuyUpgrade(res, catalog.UpgradeKind(req.Kind))
	if err != nil {
		writeGameError(w, err, status)
		return
	}
	view, _ := s.Game.Resource(res)
	writeJSON(w, http.StatusOK, map[string]any{
		"upgrade":  up,
		"resource": view,
		"status":   status,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	if s.Journal != nil {
		events, err := s.Journal.RecentEvents(limit)
		if err == nil {
			writeJSON(w, http.StatusOK, events)
			return
		}
		slog.Warn("journal read failed, serving in-memory events", "error", err)
	}
	writeJSON(w, http.StatusOK, s.Game.Hub().Recent(limit))
}

func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	cols := boundedInt(r.URL.Query().Get("cols"), 40, maxSurfaceCell)
	rows := boundedInt(r.URL.Query().Get("rows"), 24, maxSurfaceCell)
	writeJSON(w, http.StatusOK, s.Game.Surface(cols, rows))
}

func (s *Server) handleGetSpeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Speed < 0 || req.Speed > 1000 {
		writeError(w, http.StatusBadRequest, "speed must be 0-1000", "")
		return
	}
	s.Eng.SetSpeed(req.Speed)
	writeJSON(w, http.StatusOK, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Count int `json:"count"`
	}{Count: 1}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	if req.Count < 1 || req.Count > maxSteps {
		writeError(w, http.StatusBadRequest, "count must be 1-"+strconv.Itoa(maxSteps), "")
		return
	}

	stepped := 0
	for i := 0; i < req.Count; i++ {
		if s.Eng.Step() {
			stepped++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stepped": stepped,
		"tick":    s.Eng.Tick(),
		"elapsed": s.Game.ElapsedTime(),
	})
}

func boundedInt(raw string, def, limit int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > limit {
		return limit
	}
	return n
}
