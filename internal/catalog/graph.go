package catalog

import (
	"fmt"
	"strings"
)

// checkGraph verifies that every prerequisite references a known technology
// and that the prerequisite graph is acyclic. It returns the depth of each
// technology (longest chain of prerequisites beneath it).
func checkGraph(techs []Technology, index map[string]int) (map[string]int, error) {
	for _, t := range techs {
		for _, req := range t.Requires {
			if req == t.ID {
				return nil, fmt.Errorf("technology %q requires itself", t.ID)
			}
			if _, ok := index[req]; !ok {
				return nil, fmt.Errorf("technology %q requires unknown technology %q", t.ID, req)
			}
		}
	}

	const (
		white = iota // unvisited
		grey         // on the current path
		black        // finished
	)
	color := make(map[string]int, len(techs))
	depth := make(map[string]int, len(techs))
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case grey:
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]string(nil), path[start:]...), id)
			return fmt.Errorf("technology prerequisites form a cycle: %s", strings.Join(cycle, " -> "))
		case black:
			return nil
		}

		color[id] = grey
		path = append(path, id)

		d := 0
		for _, req := range techs[index[id]].Requires {
			if err := visit(req); err != nil {
				return err
			}
			if depth[req]+1 > d {
				d = depth[req] + 1
			}
		}

		path = path[:len(path)-1]
		color[id] = black
		depth[id] = d
		return nil
	}

	for _, t := range techs {
		if err := visit(t.ID); err != nil {
			return nil, err
		}
	}
	return depth, nil
}

// ResearchOrder returns technology ids ordered so every technology appears
// after all of its prerequisites. Ties keep catalog order.
func (c *Catalog) ResearchOrder() []string {
	order := make([]string, 0, len(c.Technologies))
	done := make(map[string]bool, len(c.Technologies))
	for len(order) < len(c.Technologies) {
		progressed := false
		for _, t := range c.Technologies {
			if done[t.ID] {
				continue
			}
			ready := true
			for _, req := range t.Requires {
				if !done[req] {
					ready = false
					break
				}
			}
			if ready {
				done[t.ID] = true
				order = append(order, t.ID)
				progressed = true
			}
		}
		if !progressed {
			// Unreachable for catalogs that passed checkGraph.
			break
		}
	}
	return order
}
