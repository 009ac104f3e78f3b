package hass

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// ConnState is the availability of the shared connection.
type ConnState int

const (
	// StateUnresolved means the connection has not been acquired yet.
	StateUnresolved ConnState = iota
	// StateReady means calls can be issued.
	StateReady
	// StateUnavailable means acquisition gave up; it is final for the session.
	StateUnavailable
)

func (s ConnState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unresolved"
	}
}

// DialFunc acquires a connection.
type DialFunc func(ctx context.Context) (Conn, error)

// Provider holds the connection shared by every synchronizer and moves once
// from unresolved to either ready or unavailable.
type Provider struct {
	mu      sync.RWMutex
	state   ConnState
	conn    Conn
	err     error
	settled chan struct{}
}

// NewProvider returns an unresolved provider.
func NewProvider() *Provider {
	return &Provider{settled: make(chan struct{})}
}

// State returns the current availability.
func (p *Provider) State() ConnState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Conn returns the connection when ready.
func (p *Provider) Conn() (Conn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != StateReady {
		return nil, false
	}
	return p.conn, true
}

// Err returns the acquisition error of an unavailable provider.
func (p *Provider) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Settled is closed when the provider leaves the unresolved state.
func (p *Provider) Settled() <-chan struct{} {
	return p.settled
}

// SetReady publishes conn. It has no effect once the provider has settled.
func (p *Provider) SetReady(conn Conn) bool {
	if conn == nil {
		return false
	}
	return p.settle(StateReady, conn, nil)
}

// SetUnavailable marks the connection as permanently unavailable.
func (p *Provider) SetUnavailable(err error) bool {
	if err == nil {
		err = errors.New("home assistant connection unavailable")
	}
	return p.settle(StateUnavailable, nil, err)
}

func (p *Provider) settle(state ConnState, conn Conn, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateUnresolved {
		return false
	}
	p.state = state
	p.conn = conn
	p.err = err
	close(p.settled)
	return true
}

// Resolve dials with exponential backoff until it succeeds, the policy gives
// up, the dial reports an AuthError, or ctx ends. Failures settle the
// provider as unavailable.
func (p *Provider) Resolve(ctx context.Context, dial DialFunc, policy backoff.BackOff, notify backoff.Notify) error {
	if policy == nil {
		policy = DefaultBackOff(30 * time.Second)
	}
	op := func() (Conn, error) {
		conn, err := dial(ctx)
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return conn, nil
	}

	conn, err := backoff.RetryNotifyWithData(op, backoff.WithContext(policy, ctx), notify)
	if err != nil {
		p.SetUnavailable(err)
		return err
	}
	if !p.SetReady(conn) {
		return errors.New("connection already settled")
	}
	return nil
}

// DefaultBackOff returns the exponential policy used for acquisition, bounded
// by maxElapsed.
func DefaultBackOff(maxElapsed time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxElapsed
	return b
}
