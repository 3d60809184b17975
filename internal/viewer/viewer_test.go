package viewer

import (
	"context"
	stderrors "errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/hoststats/internal/broadcast"
	"github.com/rileyhilliard/hoststats/internal/metrics"
	"github.com/rileyhilliard/hoststats/internal/publisher"
	"github.com/rileyhilliard/hoststats/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestHistory_KeepsMostRecent(t *testing.T) {
	h := NewHistory(3)
	assert.Nil(t, h.CPU(5))

	for i := 1; i <= 5; i++ {
		h.Push(metrics.Sample{CPU: float64(i), Memory: float64(i * 10)})
	}

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{3, 4, 5}, h.CPU(10))
	assert.Equal(t, []float64{40, 50}, h.Memory(2))
}

func TestModel_RendersLastSample(t *testing.T) {
	events := make(chan tea.Msg)
	m := NewModel("ws://localhost:8889/ws", events)

	view := m.View()
	assert.Contains(t, view, "connecting")
	assert.Contains(t, view, "waiting for samples")

	next, cmd := m.Update(SampleMsg{Sample: metrics.Sample{CPU: 12.5, Memory: 40.1}, At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)})
	require.NotNil(t, cmd)
	m = next.(Model)

	view = m.View()
	assert.Contains(t, view, "live")
	assert.Contains(t, view, " 12.5%")
	assert.Contains(t, view, " 40.1%")
	assert.Contains(t, view, "updated 03:04:05")
	assert.Equal(t, 1, m.history.Len())
}

func TestModel_ConnectionStates(t *testing.T) {
	m := NewModel("ws://x/ws", make(chan tea.Msg))

	next, _ := m.Update(ConnMsg{Err: stderrors.New("connection refused")})
	m = next.(Model)
	assert.Contains(t, m.View(), "reconnecting")
	assert.Contains(t, m.View(), "connection refused")

	next, _ = m.Update(ConnMsg{Connected: true})
	m = next.(Model)
	assert.Contains(t, m.View(), "live")
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		t.Run(key.String(), func(t *testing.T) {
			m := NewModel("ws://x/ws", make(chan tea.Msg))
			next, cmd := m.Update(key)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, next.View())
		})
	}
}

func TestModel_StreamClosedQuits(t *testing.T) {
	events := make(chan tea.Msg)
	close(events)
	m := NewModel("ws://x/ws", events)

	msg := m.waitForEvent()()
	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_SparkWidthFitsTerminal(t *testing.T) {
	m := NewModel("ws://x/ws", nil)
	assert.Equal(t, DefaultHistorySize, m.sparkWidth())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	assert.Equal(t, minSparkWidth, next.(Model).sparkWidth())

	next, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	assert.Equal(t, 80-labelWidth-meterWidth-12, next.(Model).sparkWidth())
}

func TestSubscribe_ReceivesBroadcastSamples(t *testing.T) {
	srv := broadcast.NewServer(broadcast.ServerOptions{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Hub().Close()

	endpoint, err := transport.EndpointURL(ts.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := Subscribe(ctx, endpoint, nil, publisher.RetryPolicy{Backoff: 10 * time.Millisecond}, nil)
	assert.Equal(t, ConnMsg{Connected: true}, <-events)
	require.Eventually(t, func() bool { return srv.Hub().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	collector, err := transport.Dial(ctx, endpoint)
	require.NoError(t, err)
	defer collector.Close()
	require.Eventually(t, func() bool { return srv.Hub().Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	ev, err := transport.NewStatsUpdate(metrics.Sample{CPU: 33, Memory: 66})
	require.NoError(t, err)
	require.NoError(t, collector.Send(ev))

	select {
	case msg := <-events:
		got, ok := msg.(SampleMsg)
		require.True(t, ok, "unexpected %T", msg)
		assert.Equal(t, metrics.Sample{CPU: 33, Memory: 66}, got.Sample)
	case <-ctx.Done():
		t.Fatal("no sample received")
	}

	cancel()
	for range events {
	}
}

func TestSubscribe_ReportsDialFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dial := func(context.Context, string) (transport.Conn, error) {
		return nil, stderrors.New("connection refused")
	}
	events := Subscribe(ctx, "ws://nowhere/ws", dial, publisher.RetryPolicy{Backoff: time.Millisecond}, nil)

	for i := 0; i < 2; i++ {
		msg := <-events
		conn, ok := msg.(ConnMsg)
		require.True(t, ok)
		assert.False(t, conn.Connected)
		assert.True(t, strings.Contains(conn.Err.Error(), "refused"))
	}

	cancel()
	for range events {
	}
}
