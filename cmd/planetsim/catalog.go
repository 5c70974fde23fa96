package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/talgya/planetary-ascension/internal/catalog"
	"github.com/talgya/planetary-ascension/internal/resource"
)

func newCatalogCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the building, technology, and upgrade catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.Catalog.Path
			}
			cat, err := catalog.Load(path)
			if err != nil {
				color.Red("Invalid catalog: %v", err)
				return err
			}
			printCatalog(os.Stdout, cat)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "Catalog YAML file (default: embedded)")
	return cmd
}

func printCatalog(w io.Writer, cat *catalog.Catalog) {
	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen, color.Bold)

	titleColor.Fprintln(w, "\nBuildings")
	bt := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"ID", "Name", "Cost", "Production"}),
	)
	for _, b := range cat.Buildings {
		_ = bt.Append([]string{b.ID, b.Name, b.Cost.FormatCost(), formatProduction(b.Production)})
	}
	_ = bt.Render()

	titleColor.Fprintln(w, "\nTechnologies")
	tt := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"#", "ID", "Name", "Cost", "Requires", "Effect", "Tier"}),
	)
	for i, id := range cat.ResearchOrder() {
		t, _ := cat.Technology(id)
		requires := strings.Join(t.Requires, ", ")
		if requires == "" {
			requires = "-"
		}
		_ = tt.Append([]string{
			strconv.Itoa(i + 1), t.ID, t.Name,
			resource.Amounts{resource.Technology: t.Cost}.FormatCost(),
			requires, t.Description, strconv.Itoa(cat.Depth(t.ID)),
		})
	}
	_ = tt.Render()

	titleColor.Fprintln(w, "\nUpgrades (per resource, repeatable)")
	ut := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Kind", "Name", "Cost"}),
	)
	for _, u := range cat.Upgrades {
		_ = ut.Append([]string{string(u.Kind), u.Name, u.Cost.FormatCost()})
	}
	_ = ut.Render()

	successColor.Fprintf(w, "\n✓ %d buildings, %d technologies, %d upgrades\n",
		len(cat.Buildings), len(cat.Technologies), len(cat.Upgrades))
}

func formatProduction(p resource.Amounts) string {
	var parts []string
	p.Each(func(id resource.ID, v float64) {
		parts = append(parts, fmt.Sprintf("+%g %s/s", v, id.Unit()))
	})
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
