package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/nidia/composer/internal/config"
	"github.com/nidia/composer/internal/logging"
	"github.com/nidia/composer/internal/prefs"
	"github.com/nidia/composer/internal/ui"
	"github.com/nidia/composer/internal/wizard"
)

// Options configure the composer application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/composer/prefs.toml
}

// LoadConfig reads and validates the configuration.
func LoadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Run boots the wizard until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()
	logger.WithFields(logrus.Fields{"url": cfg.URL, "domain": cfg.Domain}).Info("starting wizard")

	return runWizard(ctx, cfg, logger, opts.PrefsPath, SessionOptions{})
}

func runWizard(ctx context.Context, cfg config.Config, logger logrus.FieldLogger, prefsPath string, sessOpts SessionOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := NewSession(ctx, cfg, logger, sessOpts)
	defer closeQuietly(session, logger)

	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return ui.Run(ui.Options{
		Context:     ctx,
		Conn:        session.Provider,
		Floors:      session.Floors,
		Areas:       session.Areas,
		Wizard:      wizard.New(),
		Prefs:       prefs.Open(prefsPath),
		LogFile:     cfg.LogFile,
		AutoRefresh: cfg.AutoRefresh,
		Logger:      logger,
	})
}

func closeQuietly(c io.Closer, logger logrus.FieldLogger) {
	if err := c.Close(); err != nil {
		logger.WithError(err).Debug("close connection")
	}
}
