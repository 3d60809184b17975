package viewer

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/publisher"
	"github.com/rileyhilliard/hoststats/internal/transport"
)

// Options configures Run.
type Options struct {
	Endpoint string
	Dial     transport.Dialer
	Policy   publisher.RetryPolicy
	Logger   logger.Logger
}

// Run shows the viewer full screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Policy.Backoff == 0 {
		opts.Policy = publisher.DefaultRetryPolicy()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := Subscribe(ctx, opts.Endpoint, opts.Dial, opts.Policy, opts.Logger)
	p := tea.NewProgram(NewModel(opts.Endpoint, events), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
