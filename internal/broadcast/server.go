// Package broadcast implements the dashboard: a websocket hub that relays
// stats_update events from one peer to all others, plus the static viewer
// page and a Prometheus endpoint.
//
// Each peer gets a read goroutine (in the HTTP handler) and a write
// goroutine (owned by the Hub), so a slow viewer never delays the rest.
package broadcast

import (
	"context"
	_ "embed"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/hoststats/internal/errors"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/transport"
)

//go:embed index.html
var indexHTML []byte

const shutdownTimeout = 5 * time.Second

// ServerOptions configures a Server.
type ServerOptions struct {
	Addr         string
	QueueSize    int
	WriteTimeout time.Duration
	Logger       logger.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	addr         string
	writeTimeout time.Duration
	log          logger.Logger
	hub          *Hub
	metrics      *Metrics
	upgrader     websocket.Upgrader
}

// NewServer creates a dashboard server. Nothing listens until Run or Serve.
func NewServer(opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	m := NewMetrics()
	return &Server{
		addr:         opts.Addr,
		writeTimeout: opts.WriteTimeout,
		log:          opts.Logger,
		metrics:      m,
		hub: NewHub(HubOptions{
			QueueSize:    opts.QueueSize,
			WriteTimeout: opts.WriteTimeout,
			Logger:       opts.Logger.Named("hub"),
			Metrics:      m,
		}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Viewers are unauthenticated and may load the page from anywhere.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Hub returns the server's peer hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routes: the viewer page at /, the websocket stream at
// /ws and Prometheus metrics at /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET "+transport.StreamPath, s.handleStream)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrServe,
			"Failed to listen on "+s.addr,
			"Is another dashboard already running? Try: hoststats status")
	}
	return ln, nil
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully and disconnects every peer.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("Dashboard listening on http://%s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapWithCode(err, errors.ErrServe, "Dashboard server failed", "")
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Debug("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapWithCode(err, errors.ErrServe, "Dashboard did not shut down cleanly", "")
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	ws.SetReadLimit(transport.MaxFrameSize)

	peer := s.hub.Add(transport.NewConn(ws, s.writeTimeout))
	defer s.hub.Remove(peer.ID)

	for {
		ev, err := peer.conn.Receive()
		if err != nil {
			if stderrors.Is(err, transport.ErrBadFrame) {
				s.metrics.ignored.Inc()
				s.log.Debug("ignoring frame from %s: %v", peer.ID, err)
				continue
			}
			return
		}
		if ev.Name != transport.EventStatsUpdate {
			s.metrics.ignored.Inc()
			s.log.Debug("ignoring %q event from %s", ev.Name, peer.ID)
			continue
		}
		s.metrics.received.Inc()
		s.log.Debug("Received message: %s", ev.Data)
		s.hub.Broadcast(peer.ID, ev)
	}
}
