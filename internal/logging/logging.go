// Package logging configures the logrus logger shared by composer.
//
// The wizard owns the terminal, so it logs JSON lines to a file that the
// Review step tails for recent activity. CLI subcommands log text to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// AppName prefixes every message.
const AppName = "composer"

// Options select the destination and verbosity.
type Options struct {
	// Level is a logrus level name; empty falls back to LOG_LEVEL, then info.
	Level string
	// File receives JSON lines. When empty, text goes to Output.
	File   string
	Output io.Writer
}

type appNameHook struct {
	appName string
}

func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

// New builds a logger. The returned closer releases the log file, if any.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	closer := io.Closer(nopCloser{})

	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(file)
		logger.SetFormatter(&logrus.JSONFormatter{})
		closer = file
	} else {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		logger.SetOutput(out)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to INFO", opts.Level)
	}
	logger.SetLevel(level)
	logger.AddHook(&appNameHook{appName: AppName})
	return logger, closer, nil
}

// ParseLevel resolves name, then LOG_LEVEL, to a logrus level. Unknown names
// return InfoLevel with an error.
func ParseLevel(name string) (logrus.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	}
	if name == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel, err
	}
	return level, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
