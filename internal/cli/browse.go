package cli

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/internal/config"
	"github.com/matzehuels/orgchart/pkg/client"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/export"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/org/source"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/prefs"
	"github.com/matzehuels/orgchart/pkg/settings"
	"github.com/matzehuels/orgchart/pkg/view"
)

// browseCommand creates the interactive terminal browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		serverURL string
		password  string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "browse [employees-file]",
		Short: "Browse the org chart in the terminal",
		Long: `Browse the org chart in the terminal.

Without --server the chart is built from a local employees file and the
stored settings, and settings changes are written back. With --server the
chart is fetched from a running 'orgchart serve'; pass --password to log in
as admin.

Hidden subtrees and local display overrides are kept in ` + config.PrefsPath() + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			var (
				backend view.Backend
				authed  bool
			)
			if serverURL != "" {
				cl, err := client.New(serverURL, client.WithLogger(c.Logger))
				if err != nil {
					return err
				}
				if password != "" {
					if err := cl.Login(ctx, password); err != nil {
						return err
					}
				}
				authed, _ = cl.AuthCheck(ctx)
				backend = cl
			} else {
				path, err := sourcePath(args, cfg)
				if err != nil {
					return err
				}
				lb, err := c.newLocalBackend(ctx, cfg, path, noCache)
				if err != nil {
					return err
				}
				defer lb.Close()
				backend = lb
				authed = true
			}

			store, err := openPrefs()
			if err != nil {
				return err
			}
			ctrl := view.New(backend,
				view.WithPrefs(store),
				view.WithLogger(c.Logger),
				view.WithAuthenticated(authed),
				view.WithExporter(export.New(append(exportOptions(cfg), export.WithLogger(c.Logger))...)),
			)
			defer ctrl.Viewport().Close()

			spinner := newSpinner(ctx, "Loading org chart...")
			spinner.Start()
			err = ctrl.Load(ctx)
			spinner.Stop()
			if err != nil {
				return err
			}

			p := tea.NewProgram(newBrowser(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "URL of a running orgchart server")
	cmd.Flags().StringVar(&password, "password", os.Getenv("ORGCHART_ADMIN_PASSWORD"), "admin password for --server")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// openPrefs opens the local preference file, falling back to memory.
func openPrefs() (prefs.Store, error) {
	path := config.PrefsPath()
	if path == "" {
		return prefs.NewMemory(), nil
	}
	return prefs.Open(path)
}

// localBackend serves a view from a local employees file and settings
// store, running the same load stage as the server.
type localBackend struct {
	runner   *pipeline.Runner
	src      source.Source
	settings settings.Store
	envTop   string
}

var _ view.Backend = (*localBackend)(nil)

func (c *CLI) newLocalBackend(ctx context.Context, cfg config.Config, path string, noCache bool) (*localBackend, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	store, err := openSettings(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &localBackend{runner: runner, src: src, settings: store, envTop: cfg.Server.TopUserEmail}, nil
}

func (b *localBackend) hierarchy(ctx context.Context) (*org.Hierarchy, error) {
	st, err := b.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	return b.runner.Load(ctx, b.src, pipeline.Options{
		Source:     b.src.Path(),
		Settings:   &st,
		EnvTopUser: b.envTop,
	})
}

func (b *localBackend) Employees(ctx context.Context) (*org.Employee, error) {
	h, err := b.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return h.Root, nil
}

func (b *localBackend) Settings(ctx context.Context) (settings.Settings, error) {
	return b.settings.Load(ctx)
}

func (b *localBackend) Search(ctx context.Context, q string) ([]org.Summary, error) {
	h, err := b.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return org.Search(h.Root, q, org.DefaultSearchLimit), nil
}

func (b *localBackend) SetMultilineEnabled(ctx context.Context, enabled bool) error {
	patch, err := json.Marshal(map[string]bool{"multiLineChildrenEnabled": enabled})
	if err != nil {
		return err
	}
	_, err = settings.Update(ctx, b.settings, patch)
	return err
}

func (b *localBackend) Close() error {
	return errors.Join(b.settings.Close(), b.runner.Close())
}
