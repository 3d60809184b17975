package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// StreamPath is the websocket path served by the dashboard.
const StreamPath = "/ws"

// MaxFrameSize is the largest inbound frame the dashboard accepts. A
// stats_update frame is well under 100 bytes.
const MaxFrameSize = 64 << 10

// Conn is a duplex event connection.
type Conn interface {
	Send(ev Event) error
	Receive() (Event, error)
	Close() error
}

// Dialer opens a Conn to endpoint.
type Dialer func(ctx context.Context, endpoint string) (Conn, error)

// closeFrameTimeout bounds the close handshake write in Close.
const closeFrameTimeout = 250 * time.Millisecond

// WSConn is a Conn over a gorilla websocket. Send is safe for concurrent
// use; Receive must be called from a single goroutine. Close may be called
// while a Send is blocked and makes that Send return.
type WSConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewConn wraps ws. A positive writeTimeout bounds every Send.
func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *WSConn {
	return &WSConn{ws: ws, writeTimeout: writeTimeout}
}

// Send writes ev as one text frame.
func (c *WSConn) Send(ev Event) error {
	frame, err := Encode(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return net.ErrClosed
	}
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Receive blocks for the next text frame. Binary frames are skipped.
func (c *WSConn) Receive() (Event, error) {
	for {
		mt, frame, err := c.ws.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		if mt != websocket.TextMessage {
			continue
		}
		return Decode(frame)
	}
}

// Close releases the socket. A close frame is sent only when no write is
// in flight, so Close never waits on a stalled peer. Safe to call twice.
func (c *WSConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.writeMu.TryLock() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeFrameTimeout))
		c.writeMu.Unlock()
	}
	return c.ws.Close()
}

// Dial connects to a dashboard stream endpoint.
func Dial(ctx context.Context, endpoint string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(ws, 0), nil
}

// IsClosed reports whether err means the peer or the local side has shut
// the connection down.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	var closeErr *websocket.CloseError
	return stderrors.As(err, &closeErr) ||
		stderrors.Is(err, websocket.ErrCloseSent) ||
		stderrors.Is(err, net.ErrClosed) ||
		stderrors.Is(err, io.EOF) ||
		stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, syscall.EPIPE) ||
		stderrors.Is(err, syscall.ECONNRESET)
}

// EndpointURL maps a display host such as http://localhost:8889 to the
// websocket stream URL ws://localhost:8889/ws.
func EndpointURL(displayHost string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(displayHost))
	if err != nil {
		return "", fmt.Errorf("parse display host: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("display host %q must use http, https, ws or wss", displayHost)
	}
	if u.Host == "" {
		return "", fmt.Errorf("display host %q has no host", displayHost)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + StreamPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
