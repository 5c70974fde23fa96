package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/talgya/planetary-ascension/internal/config"
	"github.com/talgya/planetary-ascension/internal/economy"
	"github.com/talgya/planetary-ascension/internal/engine"
)

// plan is a scripted headless session.
type plan struct {
	Ticks    uint64
	Build    []string // Building ids, bought in order as soon as affordable
	Research []string // Technology ids, researched in order as soon as possible
}

func newSimulateCmd() *cobra.Command {
	var (
		p     plan
		quiet bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a headless session at full speed and print the final economy",
		Example: `  planetsim simulate --ticks 36000 --build solar,mine,lab --research energy1,ai1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			game, err := simulate(cfg, p)
			if err != nil {
				return err
			}
			printReport(os.Stdout, game, quiet)
			return nil
		},
	}
	cmd.Flags().Uint64VarP(&p.Ticks, "ticks", "t", 36000, "Ticks to simulate")
	cmd.Flags().StringSliceVarP(&p.Build, "build", "b", nil, "Buildings to buy, in order")
	cmd.Flags().StringSliceVarP(&p.Research, "research", "r", nil, "Technologies to research, in order")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the resource table")
	return cmd
}

// simulate steps a fresh game through p without wall-clock pacing. Pending
// purchases and research are retried once per game second.
func simulate(cfg config.Config, p plan) (*engine.Game, error) {
	game, eng, err := newGame(cfg)
	if err != nil {
		return nil, err
	}

	build := append([]string(nil), p.Build...)
	research := append([]string(nil), p.Research...)

	eng.OnTick = game.Tick
	eng.OnSecond = func(tick uint64) {
		for len(build) > 0 {
			def, ok := game.Catalog().Building(build[0])
			if !ok {
				build = build[1:]
				continue
			}
			if !game.CanAfford(def.Cost) {
				break
			}
			x := float64(len(game.Placements())%10) * 90
			y := float64(len(game.Placements())/10) * 60
			if _, _, err := game.Purchase(def.ID, economy.Position{X: x + 50, Y: y + 50}); err != nil {
				break
			}
			build = build[1:]
		}
		for len(research) > 0 {
			if _, _, err := game.Research(research[0]); err != nil {
				break
			}
			research = research[1:]
		}
	}

	for eng.Tick() < p.Ticks {
		eng.Step()
	}

	if len(build) > 0 || len(research) > 0 {
		color.Yellow("Unfinished plan: build %v, research %v", build, research)
	}
	return game, nil
}

func printReport(w io.Writer, game *engine.Game, quiet bool) {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	if !quiet {
		titleColor.Fprintf(w, "\nPlanetary Ascension after %s\n\n", game.ElapsedTime())
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Resource", "Value", "Production", "Capacity"}),
	)
	for _, v := range game.Resources() {
		_ = table.Append([]string{v.Name, v.Display, v.Rate, v.Capacity})
	}
	_ = table.Render()

	if quiet {
		return
	}

	counts := make(map[string]int)
	var order []string
	for _, pb := range game.Placements() {
		if counts[pb.Name] == 0 {
			order = append(order, pb.Name)
		}
		counts[pb.Name]++
	}
	var built []string
	for _, name := range order {
		built = append(built, fmt.Sprintf("%s ×%d", name, counts[name]))
	}
	infoColor.Fprintf(w, "\nBuildings:  %s\n", orDash(strings.Join(built, ", ")))
	infoColor.Fprintf(w, "Researched: %s\n", orDash(strings.Join(game.Researched(), ", ")))
	infoColor.Fprintf(w, "Milestones: %s\n", orDash(strings.Join(game.Milestones(), ", ")))
	fmt.Fprintf(w, "Status:     %s\n", game.Status())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
