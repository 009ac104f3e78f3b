package app

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/nidia/composer/internal/config"
	"github.com/nidia/composer/internal/hass"
)

// StartResolver acquires the shared connection in a background goroutine
// and returns immediately. Observers wait on provider.Settled().
func StartResolver(ctx context.Context, provider *hass.Provider, dial hass.DialFunc, policy backoff.BackOff, log logrus.FieldLogger) {
	go func() {
		attempt := 0
		notify := func(err error, wait time.Duration) {
			attempt++
			log.WithError(err).WithFields(logrus.Fields{
				"attempt": attempt,
				"retry":   wait.Round(time.Millisecond).String(),
			}).Warn("home assistant not reachable, retrying")
		}
		if err := provider.Resolve(ctx, dial, policy, notify); err != nil {
			log.WithError(err).Error("home assistant unavailable")
			return
		}
		log.Info("home assistant connection ready")
	}()
}

// Dialer returns a DialFunc for the configured instance.
func Dialer(cfg config.Config) hass.DialFunc {
	return func(ctx context.Context) (hass.Conn, error) {
		client, err := hass.Dial(ctx, hass.Options{
			URL:            cfg.URL,
			Token:          cfg.Token,
			RequestTimeout: cfg.RequestTimeout,
			RateLimit:      cfg.RateLimit,
			RateBurst:      cfg.RateBurst,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
