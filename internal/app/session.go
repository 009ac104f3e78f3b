package app

import (
	"context"
	"fmt"
	"io"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/nidia/composer/internal/config"
	"github.com/nidia/composer/internal/hass"
	"github.com/nidia/composer/internal/registry"
	"github.com/nidia/composer/internal/state"
)

// Session is one connection to Home Assistant with the floor and area
// synchronizers that share it.
type Session struct {
	Config   config.Config
	Log      logrus.FieldLogger
	Provider *hass.Provider
	Floors   *state.Synchronizer[registry.Floor]
	Areas    *state.Synchronizer[registry.Area]
}

// SessionOptions override how a session connects. Zero values use the
// config.
type SessionOptions struct {
	Dial   hass.DialFunc
	Policy backoff.BackOff
}

// NewSession starts resolving the connection and returns without waiting.
func NewSession(ctx context.Context, cfg config.Config, log logrus.FieldLogger, opts SessionOptions) *Session {
	dial := opts.Dial
	if dial == nil {
		dial = Dialer(cfg)
	}
	policy := opts.Policy
	if policy == nil {
		policy = hass.DefaultBackOff(cfg.ConnectTimeout)
	}

	provider := hass.NewProvider()
	syncOpts := state.Options{Domain: cfg.Domain, Logger: log}
	s := &Session{
		Config:   cfg,
		Log:      log,
		Provider: provider,
		Floors:   state.New(state.Floors, provider, syncOpts),
		Areas:    state.New(state.Areas, provider, syncOpts),
	}
	StartResolver(ctx, provider, dial, policy, log.WithField("component", "hass"))
	return s
}

// Wait blocks until the connection settles and returns it when ready.
func (s *Session) Wait(ctx context.Context) (hass.Conn, error) {
	select {
	case <-s.Provider.Settled():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	conn, ok := s.Provider.Conn()
	if !ok {
		err := s.Provider.Err()
		if err == nil {
			err = state.ErrNoConnection
		}
		return nil, fmt.Errorf("connect to home assistant: %w", err)
	}
	return conn, nil
}

// Close closes the connection if one was acquired.
func (s *Session) Close() error {
	conn, ok := s.Provider.Conn()
	if !ok {
		return nil
	}
	if c, ok := conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
