package viewer

import (
	"context"
	stderrors "errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/metrics"
	"github.com/rileyhilliard/hoststats/internal/publisher"
	"github.com/rileyhilliard/hoststats/internal/transport"
)

// SampleMsg carries a sample received from the dashboard.
type SampleMsg struct {
	Sample metrics.Sample
	At     time.Time
}

// ConnMsg reports a change in the connection to the dashboard.
type ConnMsg struct {
	Connected bool
	Err       error
}

// Subscribe connects to endpoint as a read-only peer and delivers
// SampleMsg and ConnMsg values until ctx is cancelled, reconnecting after
// each failure per policy. The channel is closed on return.
func Subscribe(ctx context.Context, endpoint string, dial transport.Dialer, policy publisher.RetryPolicy, log logger.Logger) <-chan tea.Msg {
	if dial == nil {
		dial = transport.Dial
	}
	if log == nil {
		log = logger.Noop()
	}
	out := make(chan tea.Msg, 16)

	send := func(msg tea.Msg) bool {
		select {
		case out <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(out)
		for ctx.Err() == nil {
			conn, err := dial(ctx, endpoint)
			if err != nil {
				log.Debug("dial %s failed: %v", endpoint, err)
				if !send(ConnMsg{Err: err}) {
					return
				}
				if policy.Wait(ctx) != nil {
					return
				}
				continue
			}
			if !send(ConnMsg{Connected: true}) {
				_ = conn.Close()
				return
			}

			err = readSamples(ctx, conn, send, log)
			_ = conn.Close()
			if ctx.Err() != nil {
				return
			}
			if !send(ConnMsg{Err: err}) {
				return
			}
		}
	}()
	return out
}

func readSamples(ctx context.Context, conn transport.Conn, send func(tea.Msg) bool, log logger.Logger) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		ev, err := conn.Receive()
		if err != nil {
			if stderrors.Is(err, transport.ErrBadFrame) {
				log.Debug("ignoring frame: %v", err)
				continue
			}
			return err
		}
		sample, err := ev.Sample()
		if err != nil {
			log.Debug("ignoring %q event: %v", ev.Name, err)
			continue
		}
		if !send(SampleMsg{Sample: sample, At: time.Now()}) {
			return ctx.Err()
		}
	}
}
