package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/internal/config"
	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree"
	"github.com/matzehuels/orgchart/pkg/org/source"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// layoutCommand creates the layout command for inspecting a chart layout.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		hidden  string
		noCache bool
	)
	opts := pipeline.Options{}
	opts.SetLayoutDefaults()

	cmd := &cobra.Command{
		Use:   "layout [employees-file]",
		Short: "Compute the chart layout and summarize it per level",
		Long: `Compute the chart layout and summarize it.

The layout command runs the load and layout stages, prints the number of
visible, collapsed and compacted employees per level and the chart bounds,
and optionally writes the layout JSON (same format as 'render -f json').`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			path, err := sourcePath(args, cfg)
			if err != nil {
				return err
			}
			opts.Source = path
			opts.Hidden = parseHidden(hidden)
			return c.runLayout(cmd.Context(), cfg, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the layout JSON to this file")
	cmd.Flags().StringVar(&opts.Orientation, "orientation", opts.Orientation, "tree orientation: vertical, horizontal")
	cmd.Flags().StringVar(&opts.CollapseLevel, "collapse", "", "initial collapse level: 1-9 or all (default: from settings)")
	cmd.Flags().BoolVar(&opts.FullChart, "full", false, "expand every subtree")
	cmd.Flags().StringVar(&hidden, "hidden", "", "employee ids whose subtrees are hidden (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, cfg config.Config, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	src, err := source.Open(opts.Source)
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)
	h, hit, err := runner.LoadWithCacheInfo(ctx, src, opts)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.Source, err)
	}
	t, err := runner.Layout(ctx, h, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	topts := opts.TreeOptions()
	topts.Overlay = opts.Overlay()
	scene := tree.Build(t, topts)
	prog.done("Layout complete", "cached", hit)

	printSuccess("Layout of %s", h.Root.Name)
	fmt.Fprintln(stdout, levelTable(summarizeLevels(t, scene)))
	printKeyValue("Bounds", fmt.Sprintf("%.0f × %.0f", scene.Bounds.Width(), scene.Bounds.Height()))
	printKeyValue("Orientation", topts.Layout.Orientation.String())
	printHierarchy(h)
	printStats(pipeline.Stats{EmployeeCount: h.Root.Count(), VisibleCount: scene.Len()}, hit)

	if output == "" {
		return nil
	}
	opts.Formats = []string{pipeline.FormatJSON}
	data, err := pipeline.MarshalHierarchy(h)
	if err != nil {
		return err
	}
	arts, err := runner.Render(ctx, t, h, cache.Hash(data), opts)
	if err != nil {
		return fmt.Errorf("render layout: %w", err)
	}
	if err := writeOutput(output, arts[pipeline.FormatJSON].Data); err != nil {
		return err
	}
	printFile(output)
	printNewline()
	printNextStep("Render", appName+" render "+opts.Source)
	return nil
}

// levelRow summarizes one depth of a laid out tree.
type levelRow struct {
	Depth     int
	Visible   int
	Collapsed int
	Hidden    int
	Grouped   int
}

// summarizeLevels counts the scene's elements per depth. Collapsed counts
// visible nodes with stashed reports; Grouped counts nodes placed in a
// compact grid.
func summarizeLevels(t *chart.Tree, scene *tree.Scene) []levelRow {
	grouped := make(map[string]bool)
	for _, g := range scene.Groups {
		for _, n := range g.Children {
			grouped[n.ID()] = true
		}
	}
	var rows []levelRow
	for _, el := range scene.Elements {
		for len(rows) <= el.Depth {
			rows = append(rows, levelRow{Depth: len(rows)})
		}
		r := &rows[el.Depth]
		r.Visible++
		if n := t.Find(el.ID); n != nil && n.Collapsed() {
			r.Collapsed++
		}
		if el.Hidden {
			r.Hidden++
		}
		if grouped[el.ID] {
			r.Grouped++
		}
	}
	return rows
}

func levelTable(rows []levelRow) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Level", "Visible", "Collapsed", "Hidden", "Compacted").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		})
	for _, r := range rows {
		tbl.Row(strconv.Itoa(r.Depth+1), strconv.Itoa(r.Visible), strconv.Itoa(r.Collapsed),
			strconv.Itoa(r.Hidden), strconv.Itoa(r.Grouped))
	}
	return tbl.Render()
}
