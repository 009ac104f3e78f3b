package hass

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHomeAssistant struct {
	token   string
	handler func(msg map[string]any) map[string]any

	mu       sync.Mutex
	received []map[string]any
}

func (f *fakeHomeAssistant) serve(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != websocketPath {
			http.NotFound(w, r)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		_ = ws.WriteJSON(map[string]any{"type": "auth_required", "ha_version": "2024.4.0"})
		var auth map[string]any
		if err := ws.ReadJSON(&auth); err != nil {
			return
		}
		if auth["access_token"] != f.token {
			_ = ws.WriteJSON(map[string]any{"type": "auth_invalid", "message": "Invalid access token"})
			return
		}
		_ = ws.WriteJSON(map[string]any{"type": "auth_ok", "ha_version": "2024.4.0"})

		for {
			var msg map[string]any
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			f.mu.Lock()
			f.received = append(f.received, msg)
			f.mu.Unlock()

			reply := f.handler(msg)
			if reply == nil {
				continue
			}
			reply["id"] = msg["id"]
			if err := ws.WriteJSON(reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func (f *fakeHomeAssistant) messages() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.received...)
}

func dialFake(t *testing.T, f *fakeHomeAssistant) *Client {
	t.Helper()
	server := f.serve(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	c, err := Dial(ctx, Options{URL: server.URL, Token: f.token, RequestTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestWebsocketURL_Normalizes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "ws://homeassistant.local:8123/api/websocket"},
		{"10.0.0.2:8123", "ws://10.0.0.2:8123/api/websocket"},
		{"https://ha.example.com/lovelace?x=1#frag", "wss://ha.example.com/api/websocket"},
		{"ws://ha:8123/api/websocket", "ws://ha:8123/api/websocket"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			u, err := websocketURL(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, u.String())
		})
	}

	_, err := websocketURL("ftp://ha")
	assert.Error(t, err)
}

func TestClient_SendMessageFlattensPayloadAndDecodesResult(t *testing.T) {
	fake := &fakeHomeAssistant{
		token: "secret",
		handler: func(msg map[string]any) map[string]any {
			return map[string]any{
				"type":    "result",
				"success": true,
				"result":  map[string]any{"floor": map[string]any{"floor_id": "attic", "name": msg["name"]}},
			}
		},
	}
	c := dialFake(t, fake)
	assert.Equal(t, "2024.4.0", c.HAVersion())

	var dest struct {
		Floor struct {
			FloorID string `json:"floor_id"`
			Name    string `json:"name"`
		} `json:"floor"`
	}
	err := c.SendMessage(context.Background(), "nidia_magic_composer/floors/create", map[string]any{"name": "Attic", "level": 2}, &dest)
	require.NoError(t, err)
	assert.Equal(t, "attic", dest.Floor.FloorID)
	assert.Equal(t, "Attic", dest.Floor.Name)

	msgs := fake.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "nidia_magic_composer/floors/create", msgs[0]["type"])
	assert.Equal(t, "Attic", msgs[0]["name"])
	assert.EqualValues(t, 2, msgs[0]["level"])
	assert.EqualValues(t, 1, msgs[0]["id"])
}

func TestClient_FailedResultSurfacesResultError(t *testing.T) {
	fake := &fakeHomeAssistant{
		token: "secret",
		handler: func(msg map[string]any) map[string]any {
			return map[string]any{
				"type":    "result",
				"success": false,
				"error":   map[string]any{"code": "not_found", "message": "Area 'a9' not found"},
			}
		},
	}
	c := dialFake(t, fake)

	err := c.SendMessage(context.Background(), "nidia_magic_composer/areas/delete", map[string]any{"area_id": "a9"}, nil)
	require.Error(t, err)
	var resultErr *ResultError
	require.True(t, errors.As(err, &resultErr))
	assert.Equal(t, "not_found", resultErr.Code)
	assert.Equal(t, "Area 'a9' not found", resultErr.Error())
}

func TestClient_IDsIncreasePerCall(t *testing.T) {
	fake := &fakeHomeAssistant{
		token: "secret",
		handler: func(msg map[string]any) map[string]any {
			if msg["type"] == "ping" {
				return map[string]any{"type": "pong"}
			}
			return map[string]any{"type": "result", "success": true, "result": nil}
		},
	}
	c := dialFake(t, fake)

	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.SendMessage(context.Background(), "x/areas/list", nil, nil))

	msgs := fake.messages()
	require.Len(t, msgs, 2)
	assert.EqualValues(t, 1, msgs[0]["id"])
	assert.EqualValues(t, 2, msgs[1]["id"])
}

func TestClient_TimesOutWithoutReply(t *testing.T) {
	fake := &fakeHomeAssistant{
		token:   "secret",
		handler: func(map[string]any) map[string]any { return nil },
	}
	server := fake.serve(t)
	c, err := Dial(context.Background(), Options{URL: server.URL, Token: "secret", RequestTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	err = c.SendMessage(context.Background(), "x/floors/list", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "err = %v", err)
}

func TestClient_CloseFailsPendingCalls(t *testing.T) {
	fake := &fakeHomeAssistant{
		token:   "secret",
		handler: func(map[string]any) map[string]any { return nil },
	}
	c := dialFake(t, fake)

	done := make(chan error, 1)
	go func() {
		done <- c.SendMessage(context.Background(), "x/floors/list", nil, nil)
	}()
	time.Sleep(50 * time.Millisecond)
	_ = c.Close()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrClosed), "err = %v", err)
		assert.NotContains(t, err.Error(), "x/floors/list")
	case <-time.After(2 * time.Second):
		t.Fatal("pending call did not fail after Close")
	}
}

func TestClient_Ping(t *testing.T) {
	fake := &fakeHomeAssistant{
		token: "secret",
		handler: func(msg map[string]any) map[string]any {
			if msg["type"] == "ping" {
				return map[string]any{"type": "pong"}
			}
			return map[string]any{"type": "result", "success": true}
		},
	}
	c := dialFake(t, fake)
	require.NoError(t, c.Ping(context.Background()))

	msgs := fake.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ping", msgs[0]["type"])
}

func TestDial_InvalidTokenReturnsAuthError(t *testing.T) {
	fake := &fakeHomeAssistant{token: "secret", handler: func(map[string]any) map[string]any { return nil }}
	server := fake.serve(t)

	_, err := Dial(context.Background(), Options{URL: server.URL, Token: "wrong"})
	require.Error(t, err)
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.True(t, strings.Contains(err.Error(), "Invalid access token"))
}

func TestResultError_Message(t *testing.T) {
	assert.Equal(t, "boom", (&ResultError{Code: "x", Message: "boom"}).Error())
	assert.Equal(t, "request failed (duplicate_name)", (&ResultError{Code: "duplicate_name"}).Error())
	assert.Equal(t, "request failed", (&ResultError{}).Error())

	var decoded ResultError
	require.NoError(t, json.Unmarshal([]byte(`{"code":"invalid_name","message":"Room name cannot be empty"}`), &decoded))
	assert.Equal(t, "Room name cannot be empty", decoded.Message)
}
