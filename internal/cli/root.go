// Package cli defines the composer command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nidia/composer/internal/app"
	"github.com/nidia/composer/internal/logging"
)

// Options configure the command tree.
type Options struct {
	Out    io.Writer
	ErrOut io.Writer
	// Session overrides how registry commands connect.
	Session app.SessionOptions
}

type env struct {
	ctx        context.Context
	out        io.Writer
	errOut     io.Writer
	sessOpts   app.SessionOptions
	configPath string
	prefsPath  string
	logLevel   string
}

// NewRootCommand builds the composer command. Without a subcommand it runs
// the wizard.
func NewRootCommand(ctx context.Context, opts Options) *cobra.Command {
	e := &env{ctx: ctx, out: opts.Out, errOut: opts.ErrOut, sessOpts: opts.Session}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.errOut == nil {
		e.errOut = os.Stderr
	}

	cmd := &cobra.Command{
		Use:           "composer",
		Short:         "Set up a Home Assistant home: floors, rooms, helpers and dashboards",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return e.runWizard()
		},
	}
	cmd.SetOut(e.out)
	cmd.SetErr(e.errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "config file (default ~/.config/composer/config.toml)")
	flags.StringVar(&e.prefsPath, "prefs", "", "preferences file (default ~/.config/composer/prefs.toml)")
	flags.StringVar(&e.logLevel, "log-level", "", "log level for CLI commands (overrides the config)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "wizard",
			Short: "Run the interactive setup wizard",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				return e.runWizard()
			},
		},
		newCheckCommand(e),
		newFloorsCommand(e),
		newAreasCommand(e),
	)
	return cmd
}

func (e *env) runWizard() error {
	return app.Run(e.ctx, app.Options{ConfigPath: e.configPath, PrefsPath: e.prefsPath})
}

// open loads the config and waits for the connection. CLI logs go to
// stderr as text.
func (e *env) open() (*app.Session, error) {
	cfg, err := app.LoadConfig(e.configPath)
	if err != nil {
		return nil, err
	}
	level := e.logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger, _, err := logging.New(logging.Options{Level: level, Output: e.errOut})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	s := app.NewSession(e.ctx, cfg, logger, e.sessOpts)
	if _, err := s.Wait(e.ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newCheckCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Connect to Home Assistant and verify the access token",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			defer s.Close()

			conn, _ := s.Provider.Conn()
			if p, ok := conn.(interface{ Ping(context.Context) error }); ok {
				if err := p.Ping(e.ctx); err != nil {
					return err
				}
			}
			version := ""
			if v, ok := conn.(interface{ HAVersion() string }); ok && v.HAVersion() != "" {
				version = " (Home Assistant " + v.HAVersion() + ")"
			}
			fmt.Fprintf(e.out, "Connected to %s%s\n", s.Config.URL, version)
			return nil
		},
	}
}
