package config

import "time"

// Config holds the settings shared by the collector and dashboard processes.
type Config struct {
	// Debug enables verbose logging (retry chatter, per-sample values).
	Debug bool `yaml:"debug" mapstructure:"debug"`

	// DisplayHost is the base URL of the dashboard the collector publishes to.
	DisplayHost string `yaml:"display_host" mapstructure:"display_host"`

	// SleepSeconds is the pause between two samples. Must be >= 1.
	SleepSeconds int `yaml:"sleep_seconds" mapstructure:"sleep_seconds"`

	// ListenAddr is the host:port the dashboard binds.
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`

	// PeerWriteTimeout bounds a single write to a dashboard peer. A peer
	// that cannot accept an event within this window is dropped.
	PeerWriteTimeout time.Duration `yaml:"peer_write_timeout" mapstructure:"peer_write_timeout"`

	// PeerQueueSize is the number of events buffered per dashboard peer.
	PeerQueueSize int `yaml:"peer_queue_size" mapstructure:"peer_queue_size"`
}

// Defaults written to a fresh config file.
const (
	DefaultDisplayHost      = "http://localhost:8889"
	DefaultSleepSeconds     = 1
	DefaultListenAddr       = "127.0.0.1:8889"
	DefaultPeerWriteTimeout = 2 * time.Second
	DefaultPeerQueueSize    = 16
)

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		DisplayHost:      DefaultDisplayHost,
		SleepSeconds:     DefaultSleepSeconds,
		ListenAddr:       DefaultListenAddr,
		PeerWriteTimeout: DefaultPeerWriteTimeout,
		PeerQueueSize:    DefaultPeerQueueSize,
	}
}

// SleepPeriod returns SleepSeconds as a duration.
func (c *Config) SleepPeriod() time.Duration {
	return time.Duration(c.SleepSeconds) * time.Second
}

// fileConfig is the on-disk shape. Durations are kept as strings so the
// generated file stays readable ("2s" rather than nanoseconds).
type fileConfig struct {
	Debug            bool   `yaml:"debug"`
	DisplayHost      string `yaml:"display_host"`
	SleepSeconds     int    `yaml:"sleep_seconds"`
	ListenAddr       string `yaml:"listen_addr"`
	PeerWriteTimeout string `yaml:"peer_write_timeout"`
	PeerQueueSize    int    `yaml:"peer_queue_size"`
}

func toFileConfig(c *Config) fileConfig {
	return fileConfig{
		Debug:            c.Debug,
		DisplayHost:      c.DisplayHost,
		SleepSeconds:     c.SleepSeconds,
		ListenAddr:       c.ListenAddr,
		PeerWriteTimeout: c.PeerWriteTimeout.String(),
		PeerQueueSize:    c.PeerQueueSize,
	}
}
