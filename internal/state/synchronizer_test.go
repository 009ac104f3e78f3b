package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nidia/composer/internal/hass"
	"github.com/nidia/composer/internal/registry"
)

type sentCall struct {
	msgType string
	payload map[string]any
}

type fakeConn struct {
	mu      sync.Mutex
	calls   []sentCall
	respond func(ctx context.Context, msgType string, payload map[string]any) (any, error)
}

func (f *fakeConn) SendMessage(ctx context.Context, msgType string, payload map[string]any, dest any) error {
	f.mu.Lock()
	f.calls = append(f.calls, sentCall{msgType: msgType, payload: payload})
	f.mu.Unlock()

	result, err := f.respond(ctx, msgType, payload)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeConn) sent() []sentCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCall(nil), f.calls...)
}

func readyProvider(conn hass.Conn) *hass.Provider {
	p := hass.NewProvider()
	p.SetReady(conn)
	return p
}

func strPtr(v string) *string { return &v }

func seededAreas(t *testing.T, conn *fakeConn, areas ...registry.Area) *Synchronizer[registry.Area] {
	t.Helper()
	base := conn.respond
	conn.respond = func(ctx context.Context, msgType string, payload map[string]any) (any, error) {
		if strings.HasSuffix(msgType, "/areas/list") {
			return map[string]any{"areas": areas}, nil
		}
		return base(ctx, msgType, payload)
	}
	s := New(Areas, readyProvider(conn), Options{})
	require.NoError(t, s.Refresh(context.Background()))
	conn.respond = base
	return s
}

func TestRefresh_UnavailableConnectionIsNoop(t *testing.T) {
	p := hass.NewProvider()
	p.SetUnavailable(errors.New("never came up"))
	s := New(Floors, p, Options{})

	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.LastError)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Loaded)
}

func TestRefresh_UnresolvedConnectionIsNoop(t *testing.T) {
	s := New(Areas, hass.NewProvider(), Options{})
	require.NoError(t, s.Refresh(context.Background()))
	assert.Zero(t, s.Revision())
}

func TestRefresh_ReplacesItemsAndIsIdempotent(t *testing.T) {
	conn := &fakeConn{respond: func(_ context.Context, msgType string, _ map[string]any) (any, error) {
		assert.Equal(t, "nidia_magic_composer/floors/list", msgType)
		return map[string]any{"floors": []registry.Floor{
			{FloorID: "ground", Name: "Ground", Aliases: []string{}},
			{FloorID: "first", Name: "First", Aliases: []string{"upstairs"}},
		}}, nil
	}}
	s := New(Floors, readyProvider(conn), Options{})

	require.NoError(t, s.Refresh(context.Background()))
	first := s.Snapshot()
	require.Len(t, first.Items, 2)
	assert.True(t, first.Loaded)
	assert.False(t, first.Loading)

	require.NoError(t, s.Refresh(context.Background()))
	second := s.Snapshot()
	assert.Equal(t, first.Items, second.Items)
}

func TestRefresh_FailureKeepsPreviousItems(t *testing.T) {
	fail := false
	conn := &fakeConn{respond: func(context.Context, string, map[string]any) (any, error) {
		if fail {
			return nil, &hass.ResultError{Code: "unknown_error", Message: "registry locked"}
		}
		return map[string]any{"areas": []registry.Area{{ID: "a1", Name: "Kitchen"}}}, nil
	}}
	s := New(Areas, readyProvider(conn), Options{})
	require.NoError(t, s.Refresh(context.Background()))

	fail = true
	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, "registry locked", err.Error())

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "a1", snap.Items[0].ID)
	assert.Equal(t, "registry locked", snap.LastError)
	assert.False(t, snap.Loading)

	fail = false
	require.NoError(t, s.Refresh(context.Background()))
	assert.Empty(t, s.LastError())
}

func TestCreate_AppendsServerCopyOnce(t *testing.T) {
	conn := &fakeConn{respond: func(_ context.Context, msgType string, payload map[string]any) (any, error) {
		require.Equal(t, "nidia_magic_composer/floors/create", msgType)
		return map[string]any{"floor": registry.Floor{
			FloorID: "attic",
			Name:    payload["name"].(string),
			Level:   func() *int { v := payload["level"].(int); return &v }(),
			Aliases: []string{},
		}}, nil
	}}
	s := New(Floors, readyProvider(conn), Options{})

	_, found := s.Get("attic")
	assert.False(t, found)

	draft := registry.NewFloorDraft([]registry.Floor{{Level: func() *int { v := 1; return &v }()}})
	draft.Name = "Attic"
	floor, err := s.Create(context.Background(), draft.CreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "attic", floor.FloorID)

	count := 0
	for _, f := range s.Items() {
		if f.FloorID == "attic" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, *floor.Level)

	calls := conn.sent()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{}, calls[0].payload["aliases"])
	assert.Equal(t, registry.DefaultFloorIcon, calls[0].payload["icon"])
}

func TestCreate_WithoutConnection(t *testing.T) {
	s := New(Areas, hass.NewProvider(), Options{})
	_, err := s.Create(context.Background(), registry.AreaCreate{Name: "Kitchen"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoConnection)
	assert.Equal(t, "No connection to Home Assistant", err.Error())
	assert.Empty(t, s.LastError())
}

func TestMutationFailuresLeaveItemsUntouched(t *testing.T) {
	conn := &fakeConn{respond: func(context.Context, string, map[string]any) (any, error) {
		return nil, &hass.ResultError{Code: "duplicate_name"}
	}}
	s := seededAreas(t, conn, registry.Area{ID: "a1", Name: "Kitchen"}, registry.Area{ID: "a2", Name: "Studio"})
	before := s.Snapshot()

	_, err := s.Create(context.Background(), registry.AreaCreate{Name: "Kitchen"})
	require.Error(t, err)
	assert.Equal(t, "Failed to create room (duplicate_name)", err.Error())

	_, err = s.Update(context.Background(), "a1", registry.AreaPatch{Name: registry.Set("Studio")})
	require.Error(t, err)
	assert.Equal(t, "Failed to update room (duplicate_name)", err.Error())

	err = s.Delete(context.Background(), "a2")
	require.Error(t, err)
	assert.Equal(t, "Failed to delete room (duplicate_name)", s.LastError())

	after := s.Snapshot()
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, before.Items, after.Items)
}

func TestUpdate_ReplacesWithServerCopy(t *testing.T) {
	conn := &fakeConn{respond: func(_ context.Context, msgType string, payload map[string]any) (any, error) {
		require.Equal(t, "nidia_magic_composer/areas/update", msgType)
		// The server normalizes the name and attaches an alias nobody sent.
		return map[string]any{"area": registry.Area{
			ID:      payload["area_id"].(string),
			Name:    strings.TrimSpace(payload["name"].(string)),
			Labels:  []string{},
			Aliases: []string{"cucina"},
		}}, nil
	}}
	s := seededAreas(t, conn,
		registry.Area{ID: "a1", Name: "Kitchen", FloorID: strPtr("ground"), Labels: []string{"food"}},
		registry.Area{ID: "a2", Name: "Studio"},
	)

	updated, err := s.Update(context.Background(), "a1", registry.AreaPatch{Name: registry.Set(" Cooking ")})
	require.NoError(t, err)
	assert.Equal(t, "Cooking", updated.Name)

	calls := conn.sent()
	last := calls[len(calls)-1]
	assert.Equal(t, map[string]any{"area_id": "a1", "name": " Cooking "}, last.payload)

	got, ok := s.Get("a1")
	require.True(t, ok)
	assert.Equal(t, []string{"cucina"}, got.Aliases)
	assert.Nil(t, got.FloorID, "local fields absent from the server copy must not survive")
	assert.Equal(t, []string{}, got.Labels)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a1", items[0].ID)
	assert.Equal(t, "Studio", items[1].Name)
}

func TestDelete_RemovesOnlyThatID(t *testing.T) {
	conn := &fakeConn{respond: func(_ context.Context, msgType string, payload map[string]any) (any, error) {
		require.Equal(t, "nidia_magic_composer/areas/delete", msgType)
		return map[string]any{"success": true, "area_id": payload["area_id"]}, nil
	}}
	s := seededAreas(t, conn,
		registry.Area{ID: "a1", Name: "Kitchen"},
		registry.Area{ID: "a2", Name: "Studio"},
		registry.Area{ID: "a3", Name: "Bath"},
	)

	require.NoError(t, s.Delete(context.Background(), "a2"))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a1", items[0].ID)
	assert.Equal(t, "a3", items[1].ID)
	_, found := s.Get("a2")
	assert.False(t, found)
}

func TestUpdate_OverlappingCallsLastResponseWins(t *testing.T) {
	gates := map[string]chan struct{}{
		"first":  make(chan struct{}),
		"second": make(chan struct{}),
	}
	conn := &fakeConn{respond: func(_ context.Context, _ string, payload map[string]any) (any, error) {
		name := payload["name"].(string)
		<-gates[name]
		return map[string]any{"area": registry.Area{ID: "a1", Name: name}}, nil
	}}
	s := seededAreas(t, conn, registry.Area{ID: "a1", Name: "Kitchen"})

	firstDone := make(chan error, 1)
	secondDone := make(chan error, 1)
	go func() {
		_, err := s.Update(context.Background(), "a1", registry.AreaPatch{Name: registry.Set("first")})
		firstDone <- err
	}()
	go func() {
		_, err := s.Update(context.Background(), "a1", registry.AreaPatch{Name: registry.Set("second")})
		secondDone <- err
	}()

	// The second call's response arrives first.
	close(gates["second"])
	require.NoError(t, <-secondDone)
	got, _ := s.Get("a1")
	assert.Equal(t, "second", got.Name)

	close(gates["first"])
	require.NoError(t, <-firstDone)
	got, _ = s.Get("a1")
	assert.Equal(t, "first", got.Name, "the response that arrives last wins")
}

func TestCancelledCallerDiscardsResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	conn := &fakeConn{respond: func(context.Context, string, map[string]any) (any, error) {
		cancel()
		return map[string]any{"area": registry.Area{ID: "a9", Name: "Late"}}, nil
	}}
	s := New(Areas, readyProvider(conn), Options{})

	_, err := s.Create(ctx, registry.AreaCreate{Name: "Late"})
	assert.ErrorIs(t, err, ErrDiscarded)
	assert.Empty(t, s.Items())
	assert.Zero(t, s.Revision())
	assert.Empty(t, s.LastError())
}

func TestRefresh_SupersededResultIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex
	conn := &fakeConn{respond: func(context.Context, string, map[string]any) (any, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return map[string]any{"floors": []registry.Floor{{FloorID: "stale", Name: "Stale"}}}, nil
		}
		return map[string]any{"floors": []registry.Floor{{FloorID: "fresh", Name: "Fresh"}}}, nil
	}}
	s := New(Floors, readyProvider(conn), Options{})

	slow := make(chan error, 1)
	go func() { slow <- s.Refresh(context.Background()) }()
	<-started

	require.NoError(t, s.Refresh(context.Background()))
	close(release)

	select {
	case err := <-slow:
		assert.ErrorIs(t, err, ErrDiscarded)
	case <-time.After(2 * time.Second):
		t.Fatal("slow refresh did not return")
	}
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].FloorID)
	assert.False(t, s.Snapshot().Loading)
}

func TestSnapshot_IsACopy(t *testing.T) {
	conn := &fakeConn{respond: func(context.Context, string, map[string]any) (any, error) { return nil, nil }}
	s := seededAreas(t, conn, registry.Area{ID: "a1", Name: "Kitchen"})

	snap := s.Snapshot()
	snap.Items[0].Name = "Mutated"

	got, _ := s.Get("a1")
	assert.Equal(t, "Kitchen", got.Name)
}

func TestRefresh_MissingKeyIsAnError(t *testing.T) {
	conn := &fakeConn{respond: func(context.Context, string, map[string]any) (any, error) {
		return map[string]any{"items": []any{}}, nil
	}}
	s := New(Areas, readyProvider(conn), Options{})
	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, s.LastError(), `response missing "areas"`)
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "Failed to create room"},
		{"plain", errors.New("socket closed"), "socket closed"},
		{"result message", &hass.ResultError{Code: "invalid_name", Message: "Room name cannot be empty"}, "Room name cannot be empty"},
		{"result code only", &hass.ResultError{Code: "create_failed"}, "Failed to create room (create_failed)"},
		{"empty result", &hass.ResultError{}, "Failed to create room"},
		{"nested result", errors.Join(errors.New("outer"), &hass.ResultError{Message: "inner"}), "inner"},
		{"normalized", &Error{Message: "already normalized", Err: errors.New("x")}, "already normalized"},
		{"connection dropped", fmt.Errorf("websocket: close 1006 (abnormal closure): %w", hass.ErrClosed), "Connection to Home Assistant lost"},
		{"timed out", fmt.Errorf("wait: %w", context.DeadlineExceeded), "Failed to create room (timeout)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ErrorMessage(tc.err, "Failed to create room"))
		})
	}
}

func TestCreate_DroppedConnectionShowsConnectionMessage(t *testing.T) {
	conn := &fakeConn{respond: func(context.Context, string, map[string]any) (any, error) {
		return nil, fmt.Errorf("websocket: close 1006 (abnormal closure): unexpected EOF: %w", hass.ErrClosed)
	}}
	s := New(Floors, readyProvider(conn), Options{})

	_, err := s.Create(context.Background(), registry.NewFloorDraft(nil).CreateRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, hass.ErrClosed)
	assert.Equal(t, "Connection to Home Assistant lost", err.Error())
	assert.Equal(t, "Connection to Home Assistant lost", s.LastError())
	assert.Empty(t, s.Items())
}
