package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/internal/config"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string
	formats     string
	hidden      string
	compact     bool
	avatars     bool
	noCache     bool
	useSettings bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts
	opts := pipeline.Options{}
	opts.SetRenderDefaults()

	cmd := &cobra.Command{
		Use:   "render [employees-file]",
		Short: "Render the org chart to SVG, PNG, PDF, JSON, DOT or XLSX",
		Long: `Render the org chart to one or more files.

The chart is built the same way the server builds it: records are filtered
by the display settings, the root is resolved, the initial collapse level is
applied and large teams are compacted. Use --full to include collapsed
subtrees and --hidden to leave subtrees out.`,
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
			opts.Formats = parseFormats(ro.formats)
			opts.Hidden = parseHidden(ro.hidden)
			if cmd.Flags().Changed("compact") {
				opts.Compact = &ro.compact
			}
			if cmd.Flags().Changed("avatars") {
				opts.Avatars = &ro.avatars
			}
			if ro.useSettings {
				st, err := c.storedSettings(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				opts.Settings = &st
			}
			if opts.EnvTopUser == "" {
				opts.EnvTopUser = cfg.Server.TopUserEmail
			}
			return c.runRender(cmd.Context(), cfg, opts, ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (default: <input>)")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot, xlsx (comma-separated)")
	cmd.Flags().StringVarP(&opts.VizType, "type", "t", opts.VizType, "visualization type: tree (default), nodelink")
	cmd.Flags().StringVar(&opts.Orientation, "orientation", opts.Orientation, "tree orientation: vertical, horizontal")
	cmd.Flags().StringVar(&opts.CollapseLevel, "collapse", "", "initial collapse level: 1-9 or all (default: from settings)")
	cmd.Flags().BoolVar(&opts.FullChart, "full", false, "include collapsed subtrees")
	cmd.Flags().StringVar(&ro.hidden, "hidden", "", "employee ids whose subtrees are left out (comma-separated)")
	cmd.Flags().BoolVar(&ro.compact, "compact", false, "wrap large teams into grids (default: from settings)")
	cmd.Flags().BoolVar(&ro.avatars, "avatars", false, "draw profile photos (default: from settings)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG scale factor")
	cmd.Flags().StringVar(&opts.EnvTopUser, "top-user", os.Getenv("TOP_LEVEL_USER_EMAIL"), "email of the root employee")
	cmd.Flags().BoolVar(&opts.Admin, "admin", false, "include admin-only spreadsheet columns")
	cmd.Flags().BoolVar(&ro.useSettings, "settings", true, "use the stored display settings")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")

	return cmd
}

// storedSettings loads the display settings from the configured backend.
func (c *CLI) storedSettings(ctx context.Context, cfg config.Config) (settings.Settings, error) {
	store, err := openSettings(ctx, cfg)
	if err != nil {
		return settings.Settings{}, err
	}
	defer store.Close()
	return store.Load(ctx)
}

func (c *CLI) runRender(ctx context.Context, cfg config.Config, opts pipeline.Options, ro renderOpts) error {
	runner, err := c.newRunner(ctx, cfg, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	base := basePath(ro.output, opts.Source)
	var written []string
	for _, format := range sortedFormats(result.Artifacts) {
		art := result.Artifacts[format]
		path := base + "." + format
		if len(result.Artifacts) == 1 && ro.output != "" {
			path = ro.output
		}
		if err := writeOutput(path, art.Data); err != nil {
			return err
		}
		written = append(written, path)
	}

	printSuccess("Rendered %s", result.Hierarchy.Root.Name)
	for _, p := range written {
		printFile(p)
	}
	printHierarchy(result.Hierarchy)
	printStats(result.Stats, result.CacheInfo.RenderHit)
	return nil
}

// basePath derives the base output path. Known format extensions are
// stripped from output; without output the input's extension is.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func sortedFormats[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
