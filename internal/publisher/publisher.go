// Package publisher pushes samples from the collector to the dashboard.
//
// A Publisher moves through Disconnected, Connecting and Connected. Connect
// blocks until the dashboard accepts a connection or the retry policy gives
// up. Publish never queues: a sample that cannot be sent right now is
// logged and dropped.
package publisher

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/rileyhilliard/hoststats/internal/errors"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/metrics"
	"github.com/rileyhilliard/hoststats/internal/transport"
)

// State is the connection state of a Publisher.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Options configures a Publisher.
type Options struct {
	// Endpoint is the websocket URL of the dashboard stream.
	Endpoint string
	// Enabled turns emission on. When false samples are only logged.
	Enabled bool
	Policy  RetryPolicy
	// Dial defaults to transport.Dial.
	Dial   transport.Dialer
	Logger logger.Logger
}

// Publisher sends stats_update events over a single connection.
type Publisher struct {
	endpoint string
	enabled  bool
	policy   RetryPolicy
	dial     transport.Dialer
	log      logger.Logger

	mu            sync.Mutex
	state         State
	conn          transport.Conn
	everConnected bool
	closed        bool
	lastErr       error
}

// New creates a Publisher in the Disconnected state.
func New(opts Options) *Publisher {
	if opts.Dial == nil {
		opts.Dial = transport.Dial
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	return &Publisher{
		endpoint: opts.Endpoint,
		enabled:  opts.Enabled,
		policy:   opts.Policy,
		dial:     opts.Dial,
		log:      opts.Logger,
	}
}

// State returns the current connection state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastError returns the most recent emit failure, if any.
func (p *Publisher) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Connect dials the endpoint, pausing for the policy backoff after each
// failure. It returns the number of dials made. A disabled publisher
// returns immediately.
func (p *Publisher) Connect(ctx context.Context) (int, error) {
	if !p.enabled {
		return 0, nil
	}
	p.setState(Connecting)

	for attempt := 1; ; attempt++ {
		conn, err := p.dial(ctx, p.endpoint)
		if err == nil {
			p.attach(conn)
			p.log.Info("Connected to %s", p.endpoint)
			return attempt, nil
		}
		p.log.Debug("connect attempt %d to %s failed: %v", attempt, p.endpoint, err)

		if p.policy.exhausted(attempt) {
			p.setState(Disconnected)
			return attempt, errors.WrapWithCode(err, errors.ErrConnect,
				fmt.Sprintf("Could not connect to %s after %d attempts", p.endpoint, attempt),
				"Make sure the dashboard is running: hoststats dashboard")
		}
		if err := p.policy.Wait(ctx); err != nil {
			p.setState(Disconnected)
			return attempt, err
		}
	}
}

// Publish logs the sample and, when connected, emits it as a stats_update
// event. Send failures are logged and the sample is dropped; Publish only
// returns an error if the sample cannot be encoded.
func (p *Publisher) Publish(ctx context.Context, s metrics.Sample) error {
	p.log.Debug("cpu usage: %.2f", s.CPU)
	p.log.Debug("memory usage: %.2f", s.Memory)

	if !p.enabled {
		return nil
	}

	conn := p.current()
	if conn == nil {
		conn = p.reconnect(ctx)
		if conn == nil {
			p.log.Debug("not connected, dropping sample")
			return nil
		}
	}

	ev, err := transport.NewStatsUpdate(s)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrEmit, "Failed to encode sample", "")
	}

	if err := conn.Send(ev); err != nil {
		emitErr := errors.WrapWithCode(err, errors.ErrEmit,
			"Failed to emit "+transport.EventStatsUpdate, "")
		p.mu.Lock()
		p.lastErr = emitErr
		p.mu.Unlock()
		p.log.Error("failed to emit %s: %v", transport.EventStatsUpdate, err)

		if transport.IsClosed(err) {
			p.detach(conn)
		}
	}
	return nil
}

// Close drops the connection and returns to Disconnected. Publish will not
// reconnect afterwards.
func (p *Publisher) Close() error {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.state = Disconnected
	p.closed = true
	p.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (p *Publisher) current() transport.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Connected {
		return nil
	}
	return p.conn
}

// reconnect makes a single dial attempt after a connection that was once
// established has been lost.
func (p *Publisher) reconnect(ctx context.Context) transport.Conn {
	p.mu.Lock()
	if p.closed || !p.everConnected || p.state != Disconnected {
		p.mu.Unlock()
		return nil
	}
	p.state = Connecting
	p.mu.Unlock()

	conn, err := p.dial(ctx, p.endpoint)
	if err != nil {
		p.log.Debug("reconnect to %s failed: %v", p.endpoint, err)
		p.setState(Disconnected)
		return nil
	}
	p.attach(conn)
	p.log.Info("Reconnected to %s", p.endpoint)
	return conn
}

func (p *Publisher) attach(conn transport.Conn) {
	p.mu.Lock()
	p.conn = conn
	p.state = Connected
	p.everConnected = true
	p.mu.Unlock()

	go p.drain(conn)
}

// drain consumes inbound frames so control messages are processed and a
// closed connection is noticed without waiting for the next send.
func (p *Publisher) drain(conn transport.Conn) {
	for {
		_, err := conn.Receive()
		if err == nil {
			continue
		}
		if stderrors.Is(err, transport.ErrBadFrame) {
			p.log.Debug("ignoring inbound frame: %v", err)
			continue
		}
		p.log.Debug("connection to %s closed: %v", p.endpoint, err)
		p.detach(conn)
		return
	}
}

func (p *Publisher) detach(conn transport.Conn) {
	p.mu.Lock()
	if p.conn == conn {
		p.conn = nil
		p.state = Disconnected
	}
	p.mu.Unlock()
	_ = conn.Close()
}

func (p *Publisher) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}
