package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-ps"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/rickrack/internal/config"
	"github.com/jmylchreest/rickrack/internal/handoff"
	"github.com/jmylchreest/rickrack/internal/session"
)

type serveOptions struct {
	addr  string
	hex   string
	rule  string
	watch bool
}

func newServeCmd(g *globals) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose a session to local programs",
		Long: `Start a session and accept line commands from local programs on a
loopback TCP address.

Commands:
  cidx i r g b   set slot i to an RGB colour
  star / stat    start a colour choice / report whether one is pending (1 or 0)
  iset / oset    request a project import or export (.dps path)
  idpt / odpt    request a palette import or export
  data           rule, active slot, anchors and board, length-prefixed
  sess           session identifier
  exit           stop the server

With --watch, edits to the config file update the board settings of the
running session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "loopback listen address (default from config)")
	cmd.Flags().StringVar(&opts.hex, "hex", "FF0000", "starting anchor colour")
	cmd.Flags().StringVarP(&opts.rule, "rule", "r", "", "starting harmony rule (default from config)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "apply config file changes to the running session")
	return cmd
}

func runServe(cmd *cobra.Command, g *globals, opts *serveOptions) error {
	addr := g.cfg.Handoff.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	warnIfRunning(g.logger)

	sess, err := buildSession(g, opts.hex, opts.rule, "", nil)
	if err != nil {
		return err
	}
	sess.SetGridValues(g.cfg.Grid)
	sess.Backup()

	logger := g.logger.Named("handoff")
	sess.Subscribe(session.ObserverFunc(func(c session.Change) {
		logger.Trace("session changed", "kind", c.Kind, "slot", c.Slot)
	}))

	srv, err := handoff.New(sess, handoff.Options{
		Addr:   addr,
		Logger: logger,
		OnRequest: func(r handoff.Request) {
			logger.Info("file exchange requested", "exchange", r.Exchange, "path", r.Path)
		},
	})
	if err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Listen(); err != nil {
		return err
	}
	if opts.watch {
		if err := watchConfig(ctx, g, srv, logger); err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "session %s listening on %s\n", sess.ID, srv.Addr())
	return srv.Serve(ctx)
}

// watchConfig applies reloaded grid values to the served session. Each
// reload that changes the board is a separate undo step.
func watchConfig(ctx context.Context, g *globals, srv *handoff.Server, logger hclog.Logger) error {
	w, err := config.NewWatcher(g.configPath)
	if err != nil {
		return err
	}
	logger.Info("watching config", "path", w.Path())

	go w.Run(ctx, func(cfg config.Config) {
		srv.WithSession(func(s *session.Session) {
			s.SetGridValues(cfg.Grid)
			s.Backup()
		})
		logger.Info("config reloaded", "col", cfg.Grid.Col, "ctp", cfg.Grid.CTP)
	}, func(err error) {
		logger.Warn("config reload failed", "error", err)
	})
	return nil
}

// warnIfRunning logs other running processes with this executable's name.
func warnIfRunning(logger hclog.Logger) {
	self, err := os.Executable()
	if err != nil {
		return
	}
	name := filepath.Base(self)

	processes, err := ps.Processes()
	if err != nil {
		logger.Debug("failed to list processes", "error", err)
		return
	}
	for _, p := range processes {
		if p.Pid() != os.Getpid() && p.Executable() == name {
			logger.Warn("another instance is running", "pid", p.Pid(), "executable", name)
		}
	}
}
