package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/internal/config"
	"github.com/matzehuels/orgchart/pkg/org/source"
	"github.com/matzehuels/orgchart/pkg/server"
)

// serveOpts holds flags that override the [server] config section.
type serveOpts struct {
	addr     string
	photoDir string
	watch    bool
	noCache  bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [employees-file]",
		Short: "Serve the org chart API",
		Long: `Serve the org chart HTTP API.

The employee directory is read from a JSON, YAML or SQLite file, given as an
argument or in the [source] section of the config file. Display settings,
sessions and the render cache use the backends named in the config.

The admin password hash is read from the config or from ORGCHART_ADMIN_HASH;
create one with 'orgchart hash-password'. TOP_LEVEL_USER_EMAIL pins the root
employee.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, &cfg, opts)
			path, err := sourcePath(args, cfg)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, path, opts.noCache)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default: "+server.DefaultAddr+")")
	cmd.Flags().StringVar(&opts.photoDir, "photos", "", "directory of profile photos named {id}.jpg")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload when the employees file changes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

// applyServeFlags lets explicitly set flags and the environment win over
// the config file.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, opts serveOpts) {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if cmd.Flags().Changed("photos") {
		cfg.Server.PhotoDir = opts.photoDir
	}
	if cmd.Flags().Changed("watch") {
		cfg.Server.Watch = opts.watch
	}
	if h := os.Getenv("ORGCHART_ADMIN_HASH"); h != "" {
		cfg.Server.AdminPasswordHash = h
	}
	if email := os.Getenv("TOP_LEVEL_USER_EMAIL"); email != "" {
		cfg.Server.TopUserEmail = email
	}
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config, path string, noCache bool) error {
	src, err := source.Open(path)
	if err != nil {
		return err
	}
	st, err := openSettings(ctx, cfg)
	if err != nil {
		return err
	}
	sessions, err := openSessions(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return err
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		_ = st.Close()
		_ = sessions.Close()
		return fmt.Errorf("initialize runner: %w", err)
	}

	srv, err := server.New(server.Config{
		Addr:              cfg.Server.Addr,
		Source:            src,
		Settings:          st,
		Sessions:          sessions,
		Runner:            runner,
		AdminPasswordHash: cfg.Server.AdminPasswordHash,
		PhotoDir:          cfg.Server.PhotoDir,
		EnvTopUser:        cfg.Server.TopUserEmail,
		SecureCookies:     cfg.Server.SecureCookies,
		Watch:             cfg.Server.Watch,
		Logger:            c.Logger,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	prog := newProgress(c.Logger)
	n, err := srv.Reload(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	prog.done("Loaded employee directory", "employees", n, "source", path)
	if cfg.Server.AdminPasswordHash == "" {
		c.Logger.Warn("no admin password hash configured, admin login disabled")
	}

	return srv.ListenAndServe(ctx)
}
