package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/hoststats/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the config file name inside the config root.
	ConfigFileName = "config.yaml"
	// GlobalConfigDir is the config root relative to the home directory.
	GlobalConfigDir = ".config/hoststats"
	// HomeEnv overrides the config root (used by tests and packaging).
	HomeEnv = "HOSTSTATS_HOME"
	// EnvPrefix is the prefix for per-key environment overrides,
	// e.g. HOSTSTATS_DISPLAY_HOST.
	EnvPrefix = "HOSTSTATS"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"debug":         "debug",
	"display-host":  "display_host",
	"sleep-seconds": "sleep_seconds",
	"listen":        "listen_addr",
}

// Root returns the per-user directory holding the config file and pid records.
func Root() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return ExpandTilde(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set "+HomeEnv+" to choose where hoststats keeps its files")
	}
	return filepath.Join(home, GlobalConfigDir), nil
}

// Init writes a config file with the documented defaults into root unless
// one already exists. Returns the file path and whether it was created.
func Init(root string) (string, bool, error) {
	path := filepath.Join(root, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to create config directory "+root,
			"Check permissions on the parent directory")
	}

	data, err := yaml.Marshal(toFileConfig(DefaultConfig()))
	if err != nil {
		return "", false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to render default config", "")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check permissions on "+root)
	}
	return path, true, nil
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Root overrides the config root. Empty means Root().
	Root string
	// Flags are consulted for explicitly set flags only.
	Flags *pflag.FlagSet
	// Overrides win over every other source.
	Overrides map[string]interface{}
}

// Load resolves the configuration. Precedence, lowest first:
// defaults, config file, HOSTSTATS_* environment, explicitly set flags,
// caller overrides. A missing config file is created with defaults.
func Load(opts LoadOptions) (*Config, error) {
	root := opts.Root
	if root == "" {
		var err error
		if root, err = Root(); err != nil {
			return nil, err
		}
	}

	path, _, err := Init(root)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check that "+path+" is valid YAML")
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.WrapWithCode(err, errors.ErrConfig,
						"Failed to bind flag --"+name, "")
				}
			}
		}
	}

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("debug", def.Debug)
	v.SetDefault("display_host", def.DisplayHost)
	v.SetDefault("sleep_seconds", def.SleepSeconds)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("peer_write_timeout", def.PeerWriteTimeout.String())
	v.SetDefault("peer_queue_size", def.PeerQueueSize)
}
