package broadcast

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/metrics"
	"github.com/rileyhilliard/hoststats/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(ServerOptions{Logger: logger.NewBufferLogger()})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub().Close()
		ts.Close()
	})
	return s, ts
}

func dialPeer(t *testing.T, ts *httptest.Server) transport.Conn {
	t.Helper()
	endpoint, err := transport.EndpointURL(ts.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.Dial(ctx, endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// inbox drains conn into a channel until the connection closes.
func inbox(conn transport.Conn) <-chan transport.Event {
	ch := make(chan transport.Event, 16)
	go func() {
		defer close(ch)
		for {
			ev, err := conn.Receive()
			if err != nil {
				return
			}
			ch <- ev
		}
	}()
	return ch
}

func expectEvent(t *testing.T, ch <-chan transport.Event, want transport.Event) {
	t.Helper()
	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %v", want)
	}
}

func expectNothing(t *testing.T, ch <-chan transport.Event) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("unexpected event %v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestServer_RelaysToOtherPeersOnly(t *testing.T) {
	s, ts := newTestServer(t)

	a, b, c := dialPeer(t, ts), dialPeer(t, ts), dialPeer(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Len() == 3 }, 2*time.Second, 10*time.Millisecond)
	inA, inB, inC := inbox(a), inbox(b), inbox(c)

	ev, err := transport.NewStatsUpdate(metrics.Sample{CPU: 12.5, Memory: 40.1})
	require.NoError(t, err)
	require.NoError(t, a.Send(ev))

	expectEvent(t, inB, ev)
	expectEvent(t, inC, ev)
	expectNothing(t, inA)

	// A peer joining later never sees the earlier event.
	d := dialPeer(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Len() == 4 }, 2*time.Second, 10*time.Millisecond)
	inD := inbox(d)
	expectNothing(t, inD)

	next, err := transport.NewStatsUpdate(metrics.Sample{CPU: 1, Memory: 2})
	require.NoError(t, err)
	require.NoError(t, b.Send(next))

	expectEvent(t, inA, next)
	expectEvent(t, inC, next)
	expectEvent(t, inD, next)
	expectNothing(t, inB)
}

func TestServer_IgnoresOtherEvents(t *testing.T) {
	s, ts := newTestServer(t)

	a, b := dialPeer(t, ts), dialPeer(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Len() == 2 }, 2*time.Second, 10*time.Millisecond)
	inB := inbox(b)

	require.NoError(t, a.Send(transport.Event{Name: "hello", Data: "x"}))
	expectNothing(t, inB)
	assert.Equal(t, 2, s.Hub().Len())
}

func TestServer_DisconnectRemovesPeer(t *testing.T) {
	s, ts := newTestServer(t)

	a := dialPeer(t, ts)
	require.Eventually(t, func() bool { return s.Hub().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return s.Hub().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_Routes(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "viewer page", method: http.MethodGet, path: "/", wantStatus: http.StatusOK, wantBody: "<title>hoststats</title>"},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, wantBody: "hoststats_dashboard_peers"},
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, path: "/", wantStatus: http.StatusMethodNotAllowed},
		{name: "plain GET on stream", method: http.MethodGet, path: "/ws", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), tt.wantBody)
			}
		})
	}
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	s := NewServer(ServerOptions{Addr: "127.0.0.1:0"})
	ln, err := s.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	endpoint, err := transport.EndpointURL(url)
	require.NoError(t, err)
	peer, err := transport.Dial(context.Background(), endpoint)
	require.NoError(t, err)
	defer peer.Close()
	require.Eventually(t, func() bool { return s.Hub().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Zero(t, s.Hub().Len())

	_, err = peer.Receive()
	assert.Error(t, err)
}

func TestServer_ListenConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := NewServer(ServerOptions{Addr: ln.Addr().String()})
	err = s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Failed to listen"))
}

func TestServer_StalledPeerDoesNotBlockBroadcast(t *testing.T) {
	s := NewServer(ServerOptions{QueueSize: 4, WriteTimeout: 3 * time.Second, Logger: logger.NewBufferLogger()})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub().Close()
		ts.Close()
	})

	endpoint, err := transport.EndpointURL(ts.URL)
	require.NoError(t, err)

	// A raw client that never reads stands in for a stalled browser tab.
	stalled, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	require.NoError(t, err)
	defer stalled.Close()

	events := inbox(dialPeer(t, ts))
	require.Eventually(t, func() bool { return s.Hub().Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	big := statsEvent(strings.Repeat("x", 512<<10))
	for i := 0; i < 200 && s.Hub().Len() == 2; i++ {
		start := time.Now()
		s.Hub().Broadcast("", big)
		require.Less(t, time.Since(start), 100*time.Millisecond, "broadcast %d blocked", i)
		expectEvent(t, events, big)
	}
	require.Equal(t, 1, s.Hub().Len(), "stalled peer should be dropped")

	dropped := testutil.ToFloat64(s.metrics.dropped.WithLabelValues(reasonQueueFull)) +
		testutil.ToFloat64(s.metrics.dropped.WithLabelValues(reasonWriteTimeout))
	assert.Equal(t, 1.0, dropped)

	small := statsEvent(`{"cpu":1,"memory":2}`)
	s.Hub().Broadcast("", small)
	expectEvent(t, events, small)
}

func TestServer_OversizedFrameClosesPeer(t *testing.T) {
	s, ts := newTestServer(t)
	endpoint, err := transport.EndpointURL(ts.URL)
	require.NoError(t, err)

	raw, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	require.NoError(t, err)
	defer raw.Close()
	require.Eventually(t, func() bool { return s.Hub().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	frame := `{"event":"stats_update","data":"` + strings.Repeat("x", transport.MaxFrameSize) + `"}`
	_ = raw.WriteMessage(websocket.TextMessage, []byte(frame))

	require.Eventually(t, func() bool { return s.Hub().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, testutil.ToFloat64(s.metrics.received))
}
