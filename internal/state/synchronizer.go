package state

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nidia/composer/internal/hass"
)

// DefaultDomain is the integration domain prefixing every request type.
const DefaultDomain = "nidia_magic_composer"

// ConnSource hands out the shared connection once it is ready.
// *hass.Provider implements it.
type ConnSource interface {
	Conn() (hass.Conn, bool)
}

// Payloader builds the request fields of a create or update call.
type Payloader interface {
	Payload() map[string]any
}

// Snapshot is a point-in-time copy of a synchronizer's state.
type Snapshot[T any] struct {
	Items       []T
	Loading     bool
	Loaded      bool // at least one list call succeeded
	LastError   string
	Revision    uint64 // incremented on every change to Items
	LastUpdated time.Time
}

// Options configure a Synchronizer.
type Options struct {
	Domain string
	Logger logrus.FieldLogger
}

// Synchronizer mirrors the remote list of one resource kind and mediates
// every create, update and delete. Items only ever contain resources the
// remote side has confirmed; mutations are applied after the response
// arrives, never before. Overlapping calls for the same id are not
// serialized: whichever response arrives last wins.
type Synchronizer[T any] struct {
	kind   Kind[T]
	source ConnSource
	domain string
	log    logrus.FieldLogger

	mu          sync.RWMutex
	items       []T
	loading     bool
	loaded      bool
	lastErr     string
	revision    uint64
	refreshGen  uint64
	lastUpdated time.Time
}

// New returns an empty synchronizer for kind.
func New[T any](kind Kind[T], source ConnSource, opts Options) *Synchronizer[T] {
	domain := opts.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Synchronizer[T]{
		kind:   kind,
		source: source,
		domain: domain,
		log:    logger.WithField("kind", kind.Plural),
	}
}

// Kind returns the resource kind descriptor.
func (s *Synchronizer[T]) Kind() Kind[T] {
	return s.kind
}

// Refresh replaces the items with the remote list. Without a ready
// connection it does nothing and reports no error; callers re-run it once the
// connection settles. A failed refresh records the error and keeps the
// previous items.
func (s *Synchronizer[T]) Refresh(ctx context.Context) error {
	conn, ok := s.source.Conn()
	if !ok {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.refreshGen++
	gen := s.refreshGen
	s.loading = true
	s.mu.Unlock()

	log := s.opLogger("list")
	var resp map[string]json.RawMessage
	err := conn.SendMessage(ctx, s.requestType("list"), map[string]any{}, &resp)
	var items []T
	if err == nil {
		items, err = decodeKey[[]T](resp, s.kind.Plural)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.refreshGen {
		log.Debug("superseded list result dropped")
		return ErrDiscarded
	}
	s.loading = false
	if ctx.Err() != nil {
		log.Debug("list result dropped after cancellation")
		return ErrDiscarded
	}
	if err != nil {
		msg := ErrorMessage(err, "Failed to load "+s.kind.NounPlural)
		s.lastErr = msg
		log.WithError(err).Warn("list failed")
		return &Error{Op: "list", Message: msg, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	s.items = items
	s.loaded = true
	s.lastErr = ""
	s.revision++
	s.lastUpdated = time.Now()
	log.WithField("count", len(items)).Debug("list applied")
	return nil
}

// Create sends a create request and appends the confirmed resource.
func (s *Synchronizer[T]) Create(ctx context.Context, req Payloader) (T, error) {
	var zero T
	conn, ok := s.source.Conn()
	if !ok {
		return zero, &Error{Op: "create", Message: noConnectionMessage, Err: ErrNoConnection}
	}

	log := s.opLogger("create")
	var resp map[string]json.RawMessage
	err := conn.SendMessage(ctx, s.requestType("create"), req.Payload(), &resp)
	var item T
	if err == nil {
		item, err = decodeKey[T](resp, s.kind.Singular)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		log.Debug("create result dropped after cancellation")
		return zero, ErrDiscarded
	}
	if err != nil {
		return zero, s.failLocked(log, "create", err)
	}

	next := make([]T, 0, len(s.items)+1)
	next = append(next, s.items...)
	s.items = append(next, item)
	s.revision++
	s.lastUpdated = time.Now()
	log.WithField("id", s.kind.ID(item)).Info("created")
	return item, nil
}

// Update sends id plus the changed fields and replaces the matching entry
// with the server's copy of the resource.
func (s *Synchronizer[T]) Update(ctx context.Context, id string, patch Payloader) (T, error) {
	var zero T
	conn, ok := s.source.Conn()
	if !ok {
		return zero, &Error{Op: "update", Message: noConnectionMessage, Err: ErrNoConnection}
	}

	payload := patch.Payload()
	payload[s.kind.IDField] = id

	log := s.opLogger("update").WithField("id", id)
	var resp map[string]json.RawMessage
	err := conn.SendMessage(ctx, s.requestType("update"), payload, &resp)
	var item T
	if err == nil {
		item, err = decodeKey[T](resp, s.kind.Singular)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		log.Debug("update result dropped after cancellation")
		return zero, ErrDiscarded
	}
	if err != nil {
		return zero, s.failLocked(log, "update", err)
	}

	replaced := false
	next := make([]T, len(s.items))
	for i, existing := range s.items {
		if s.kind.ID(existing) == id {
			next[i] = item
			replaced = true
			continue
		}
		next[i] = existing
	}
	if replaced {
		s.items = next
		s.revision++
		s.lastUpdated = time.Now()
	}
	log.Info("updated")
	return item, nil
}

// Delete sends a delete request and drops the matching entry.
func (s *Synchronizer[T]) Delete(ctx context.Context, id string) error {
	conn, ok := s.source.Conn()
	if !ok {
		return &Error{Op: "delete", Message: noConnectionMessage, Err: ErrNoConnection}
	}

	log := s.opLogger("delete").WithField("id", id)
	err := conn.SendMessage(ctx, s.requestType("delete"), map[string]any{s.kind.IDField: id}, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		log.Debug("delete result dropped after cancellation")
		return ErrDiscarded
	}
	if err != nil {
		return s.failLocked(log, "delete", err)
	}

	next := make([]T, 0, len(s.items))
	for _, existing := range s.items {
		if s.kind.ID(existing) != id {
			next = append(next, existing)
		}
	}
	if len(next) != len(s.items) {
		s.items = next
		s.revision++
		s.lastUpdated = time.Now()
	}
	log.Info("deleted")
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[T]{
		Items:       cloneItems(s.items),
		Loading:     s.loading,
		Loaded:      s.loaded,
		LastError:   s.lastErr,
		Revision:    s.revision,
		LastUpdated: s.lastUpdated,
	}
}

// Items returns a copy of the current items.
func (s *Synchronizer[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Get looks up an item by id.
func (s *Synchronizer[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if s.kind.ID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Revision returns the change counter of Items.
func (s *Synchronizer[T]) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// LastError returns the message of the last failed operation, or "".
func (s *Synchronizer[T]) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError dismisses the error banner.
func (s *Synchronizer[T]) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Synchronizer[T]) failLocked(log logrus.FieldLogger, op string, err error) error {
	msg := ErrorMessage(err, fmt.Sprintf("Failed to %s %s", op, s.kind.Noun))
	s.lastErr = msg
	log.WithError(err).Warn(op + " failed")
	return &Error{Op: op, Message: msg, Err: err}
}

func (s *Synchronizer[T]) requestType(op string) string {
	return s.domain + "/" + s.kind.Plural + "/" + op
}

func (s *Synchronizer[T]) opLogger(op string) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{"op": op, "op_id": uuid.NewString()})
}

func decodeKey[V any](resp map[string]json.RawMessage, key string) (V, error) {
	var out V
	raw, ok := resp[key]
	if !ok {
		return out, fmt.Errorf("response missing %q", key)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %q: %w", key, err)
	}
	return out, nil
}

func cloneItems[T any](items []T) []T {
	if items == nil {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
