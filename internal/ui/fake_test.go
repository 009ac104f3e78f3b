package ui

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/nidia/composer/internal/hass"
	"github.com/nidia/composer/internal/registry"
	"github.com/nidia/composer/internal/state"
)

// fakeConn serves list calls from its slices, echoes creates and updates,
// and fails the operations named in fail.
type fakeConn struct {
	mu       sync.Mutex
	floors   []registry.Floor
	areas    []registry.Area
	fail     map[string]error
	ops      []string
	payloads []map[string]any
}

func (c *fakeConn) SendMessage(_ context.Context, msgType string, payload map[string]any, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	op := strings.TrimPrefix(msgType, state.DefaultDomain+"/")
	c.ops = append(c.ops, op)
	c.payloads = append(c.payloads, payload)
	if err := c.fail[op]; err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var result any
	switch op {
	case "floors/list":
		result = map[string]any{"floors": c.floors}
	case "areas/list":
		result = map[string]any{"areas": c.areas}
	case "floors/create":
		var f registry.Floor
		if err := json.Unmarshal(raw, &f); err != nil {
			return err
		}
		f.FloorID = "new_floor"
		result = map[string]any{"floor": f}
	case "areas/create":
		var a registry.Area
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		a.ID = "new_area"
		result = map[string]any{"area": a}
	case "floors/update":
		for _, f := range c.floors {
			if f.FloorID == payload["floor_id"] {
				if name, ok := payload["name"].(string); ok {
					f.Name = name
				}
				result = map[string]any{"floor": f}
			}
		}
	case "areas/update":
		for _, a := range c.areas {
			if a.ID == payload["area_id"] {
				if name, ok := payload["name"].(string); ok {
					a.Name = name
				}
				result = map[string]any{"area": a}
			}
		}
	default:
		result = map[string]any{"success": true}
	}
	if dest == nil {
		return nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(out, dest)
}

// count returns how many calls of op were sent.
func (c *fakeConn) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, o := range c.ops {
		if o == op {
			n++
		}
	}
	return n
}

// lastPayload returns the payload of the most recent op call.
func (c *fakeConn) lastPayload(op string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.ops) - 1; i >= 0; i-- {
		if c.ops[i] == op {
			return c.payloads[i]
		}
	}
	return nil
}

type fixture struct {
	conn     *fakeConn
	provider *hass.Provider
	floors   *state.Synchronizer[registry.Floor]
	areas    *state.Synchronizer[registry.Area]
}

// newFixture returns synchronizers over a ready connection, already loaded
// with conn's floors and areas.
func newFixture(t *testing.T, conn *fakeConn) fixture {
	t.Helper()
	p := hass.NewProvider()
	p.SetReady(conn)
	fx := fixture{
		conn:     conn,
		provider: p,
		floors:   state.New(state.Floors, p, state.Options{}),
		areas:    state.New(state.Areas, p, state.Options{}),
	}
	require.NoError(t, fx.floors.Refresh(context.Background()))
	require.NoError(t, fx.areas.Refresh(context.Background()))
	return fx
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyOf(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// collect runs cmd and every command batched inside it, returning the
// resulting messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}
