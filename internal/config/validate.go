package config

import (
	"fmt"
	"net"
	"net/url"

	"github.com/rileyhilliard/hoststats/internal/errors"
)

// Validate checks a resolved config and returns a CONFIG error describing
// the first problem found.
func Validate(cfg *Config) error {
	if cfg.SleepSeconds < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("sleep_seconds must be at least 1, got %d", cfg.SleepSeconds),
			"Set sleep_seconds to a whole number of seconds >= 1")
	}

	if err := validateDisplayHost(cfg.DisplayHost); err != nil {
		return err
	}

	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("listen_addr %q is not a host:port address", cfg.ListenAddr),
			"Use something like 127.0.0.1:8889 or :8889")
	}

	if cfg.PeerWriteTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"peer_write_timeout must be positive",
			"Use a duration like 2s or 500ms")
	}

	if cfg.PeerQueueSize < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("peer_queue_size must be at least 1, got %d", cfg.PeerQueueSize),
			"")
	}
	return nil
}

func validateDisplayHost(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("display_host %q is not a valid URL", raw),
			"Use something like "+DefaultDisplayHost)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("display_host %q must use http, https, ws or wss", raw),
			"Use something like "+DefaultDisplayHost)
	}
	if u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("display_host %q has no host", raw),
			"Use something like "+DefaultDisplayHost)
	}
	return nil
}
