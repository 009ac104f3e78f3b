package hass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Conn is the single call primitive the synchronizers depend on. The payload
// fields are sent next to the command id and type; the result object of a
// successful response is decoded into dest when dest is non-nil.
type Conn interface {
	SendMessage(ctx context.Context, msgType string, payload map[string]any, dest any) error
}

// Ensure Client implements Conn at compile time.
var _ Conn = (*Client)(nil)

// ErrClosed is returned for calls issued on, or pending in, a closed connection.
var ErrClosed = errors.New("home assistant connection closed")

const (
	defaultBaseURL        = "http://homeassistant.local:8123"
	defaultRequestTimeout = 10 * time.Second
	websocketPath         = "/api/websocket"
)

// Options configure a Client.
type Options struct {
	URL            string // http(s) or ws(s) base URL of the Home Assistant instance
	Token          string // long-lived access token
	RequestTimeout time.Duration
	RateLimit      float64 // calls per second; zero disables limiting
	RateBurst      int
	Dialer         *websocket.Dialer
}

// Client is an authenticated Home Assistant WebSocket connection.
type Client struct {
	ws        *websocket.Conn
	limiter   *rate.Limiter
	timeout   time.Duration
	haVersion string

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan frame

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

type frame struct {
	ID        int64           `json:"id,omitempty"`
	Type      string          `json:"type"`
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *ResultError    `json:"error,omitempty"`
	Message   string          `json:"message,omitempty"`
	HAVersion string          `json:"ha_version,omitempty"`
}

// Dial opens the WebSocket endpoint and completes the auth handshake.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	endpoint, err := websocketURL(opts.URL)
	if err != nil {
		return nil, err
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	ws, resp, err := dialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, errors.Wrapf(err, "dial %s: websocket api not found", endpoint.Redacted())
		}
		return nil, errors.Wrapf(err, "dial %s", endpoint.Redacted())
	}

	c := &Client{
		ws:      ws,
		timeout: opts.RequestTimeout,
		pending: make(map[int64]chan frame),
		closed:  make(chan struct{}),
	}
	if c.timeout <= 0 {
		c.timeout = defaultRequestTimeout
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	if err := c.authenticate(ctx, opts.Token); err != nil {
		_ = ws.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

// HAVersion reports the Home Assistant version announced during the handshake.
func (c *Client) HAVersion() string {
	return c.haVersion
}

func (c *Client) authenticate(ctx context.Context, token string) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.ws.SetReadDeadline(deadline)
		_ = c.ws.SetWriteDeadline(deadline)
		defer func() {
			_ = c.ws.SetReadDeadline(time.Time{})
			_ = c.ws.SetWriteDeadline(time.Time{})
		}()
	}

	var hello frame
	if err := c.ws.ReadJSON(&hello); err != nil {
		return errors.Wrap(err, "read auth_required")
	}
	if hello.Type != "auth_required" {
		return errors.Errorf("unexpected handshake frame %q", hello.Type)
	}
	c.haVersion = hello.HAVersion

	if err := c.ws.WriteJSON(map[string]string{"type": "auth", "access_token": token}); err != nil {
		return errors.Wrap(err, "send auth")
	}

	var reply frame
	if err := c.ws.ReadJSON(&reply); err != nil {
		return errors.Wrap(err, "read auth result")
	}
	switch reply.Type {
	case "auth_ok":
		if reply.HAVersion != "" {
			c.haVersion = reply.HAVersion
		}
		return nil
	case "auth_invalid":
		return &AuthError{Message: reply.Message}
	default:
		return errors.Errorf("unexpected handshake frame %q", reply.Type)
	}
}

// SendMessage issues one command and waits for its result frame.
func (c *Client) SendMessage(ctx context.Context, msgType string, payload map[string]any, dest any) error {
	if c == nil {
		return errors.New("client is nil")
	}
	msg := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		msg[k] = v
	}
	msg["type"] = msgType

	reply, err := c.call(ctx, msg)
	if err != nil {
		return err
	}
	if reply.Type == "result" && !reply.Success {
		if reply.Error == nil {
			return &ResultError{}
		}
		return reply.Error
	}
	if dest == nil || len(reply.Result) == 0 || string(reply.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(reply.Result, dest); err != nil {
		return errors.Wrapf(err, "decode %s result", msgType)
	}
	return nil
}

// Ping round-trips a ping frame.
func (c *Client) Ping(ctx context.Context) error {
	reply, err := c.call(ctx, map[string]any{"type": "ping"})
	if err != nil {
		return errors.WithMessage(err, "ping")
	}
	if reply.Type != "pong" {
		return errors.Errorf("ping: unexpected reply %q", reply.Type)
	}
	return nil
}

// Close terminates the connection; pending calls fail with ErrClosed.
func (c *Client) Close() error {
	err := c.ws.Close()
	c.shutdown(ErrClosed)
	return err
}

// Done is closed once the connection has terminated.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

func (c *Client) call(ctx context.Context, msg map[string]any) (frame, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return frame{}, errors.Wrap(err, "rate limit")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ch := make(chan frame, 1)
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	msg["id"] = id

	select {
	case <-c.closed:
		return frame{}, c.closeErr
	default:
	}

	c.writeMu.Lock()
	err := c.ws.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return frame{}, errors.Wrap(err, "write frame")
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-c.closed:
		return frame{}, c.closeErr
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	for {
		var f frame
		if err := c.ws.ReadJSON(&f); err != nil {
			c.shutdown(errors.Wrap(ErrClosed, err.Error()))
			return
		}
		if f.ID == 0 {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[f.ID]
		delete(c.pending, f.ID)
		c.mu.Unlock()
		if ok {
			ch <- f
		}
	}
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		close(c.closed)
	})
}

func websocketURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, errors.Wrapf(err, "parse home assistant url %q", raw)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, errors.Errorf("unsupported url scheme %q", u.Scheme)
	}
	u.Path = websocketPath
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
