package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/transport"
)

// Drop reasons recorded in peers_dropped_total.
const (
	reasonQueueFull    = "queue_full"
	reasonWriteTimeout = "write_timeout"
	reasonWriteError   = "write_error"
)

// Defaults for the slow-peer policy.
const (
	DefaultQueueSize    = 16
	DefaultWriteTimeout = 2 * time.Second
)

// Peer is one connected client with its own outbound queue.
type Peer struct {
	ID string

	conn  transport.Conn
	queue chan transport.Event
	done  chan struct{}
	once  sync.Once
}

func (p *Peer) stop() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

// HubOptions configures a Hub. Zero values select the defaults.
type HubOptions struct {
	QueueSize    int
	WriteTimeout time.Duration
	Logger       logger.Logger
	Metrics      *Metrics
}

// Hub fans events out to connected peers. Broadcast never blocks on a
// peer: each peer has a bounded queue drained by its own writer goroutine.
// A peer whose queue is full or whose write exceeds WriteTimeout is
// disconnected.
type Hub struct {
	queueSize    int
	writeTimeout time.Duration
	log          logger.Logger
	metrics      *Metrics

	mu     sync.RWMutex
	peers  map[string]*Peer
	closed bool
	wg     sync.WaitGroup
}

// NewHub creates an empty hub.
func NewHub(opts HubOptions) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	return &Hub{
		queueSize:    opts.QueueSize,
		writeTimeout: opts.WriteTimeout,
		log:          opts.Logger,
		metrics:      opts.Metrics,
		peers:        make(map[string]*Peer),
	}
}

// Add registers conn and starts its writer. On a closed hub the connection
// is closed immediately.
func (h *Hub) Add(conn transport.Conn) *Peer {
	p := &Peer{
		ID:    uuid.NewString(),
		conn:  conn,
		queue: make(chan transport.Event, h.queueSize),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		p.stop()
		return p
	}
	h.peers[p.ID] = p
	h.wg.Add(1)
	h.mu.Unlock()

	h.metrics.peers.Inc()
	h.log.Debug("peer %s connected", p.ID)
	go h.writeLoop(p)
	return p
}

// Remove disconnects the peer with id. Unknown ids are ignored.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	p, ok := h.peers[id]
	if ok {
		delete(h.peers, id)
	}
	h.mu.Unlock()

	if ok {
		h.metrics.peers.Dec()
		h.log.Debug("peer %s disconnected", id)
		p.stop()
	}
}

// Broadcast queues ev for every peer except from and returns how many
// peers accepted it.
func (h *Hub) Broadcast(from string, ev transport.Event) int {
	var full []*Peer
	n := 0

	h.mu.RLock()
	for id, p := range h.peers {
		if id == from {
			continue
		}
		select {
		case p.queue <- ev:
			n++
		default:
			full = append(full, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range full {
		h.unregister(p, reasonQueueFull)
		// Its writer may be blocked in Send; closing happens off the caller.
		go p.stop()
	}
	return n
}

// Len returns the number of connected peers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every peer and waits for their writers to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	peers := make([]*Peer, 0, len(h.peers))
	for id, p := range h.peers {
		peers = append(peers, p)
		delete(h.peers, id)
	}
	h.mu.Unlock()

	for _, p := range peers {
		h.metrics.peers.Dec()
		p.stop()
	}
	h.wg.Wait()
}

func (h *Hub) writeLoop(p *Peer) {
	defer h.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case ev := <-p.queue:
			if !h.write(p, ev) {
				return
			}
		}
	}
}

func (h *Hub) write(p *Peer, ev transport.Event) bool {
	// Dropping the peer closes its connection, which fails the pending Send.
	timer := time.AfterFunc(h.writeTimeout, func() { h.drop(p, reasonWriteTimeout) })
	err := p.conn.Send(ev)
	if !timer.Stop() {
		return false
	}
	if err != nil {
		h.log.Debug("write to peer %s failed: %v", p.ID, err)
		h.drop(p, reasonWriteError)
		return false
	}
	h.metrics.delivered.Inc()
	return true
}

// drop unregisters p and closes its connection.
func (h *Hub) drop(p *Peer, reason string) {
	h.unregister(p, reason)
	p.stop()
}

// unregister removes p if it is still registered and records why.
func (h *Hub) unregister(p *Peer, reason string) {
	h.mu.Lock()
	cur, ok := h.peers[p.ID]
	if ok && cur == p {
		delete(h.peers, p.ID)
	}
	h.mu.Unlock()

	if ok && cur == p {
		h.metrics.peers.Dec()
		h.metrics.dropped.WithLabelValues(reason).Inc()
		h.log.Warn("dropping peer %s: %s", p.ID, reason)
	}
}
