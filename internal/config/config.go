// Package config loads the daemon configuration from <dir>/warpvpn.yaml,
// WARPVPN_* environment variables and built-in defaults, in increasing
// order of precedence for the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/warpdl/warpvpn/common"
)

const (
	FileName  = "warpvpn"
	EnvPrefix = "WARPVPN"

	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

type Store struct {
	// Backend is "sqlite" or "file".
	Backend string `mapstructure:"backend"`
	// Path is the sqlite database file or the file backend directory.
	Path string `mapstructure:"path"`
}

type Transport struct {
	// Kind is "exec" or "noop".
	Kind   string   `mapstructure:"kind"`
	Binary string   `mapstructure:"binary"`
	Args   []string `mapstructure:"args"`
}

type Readiness struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type RPC struct {
	// Secret enables the JSON-RPC endpoint. Empty disables it.
	Secret    string `mapstructure:"secret"`
	Port      int    `mapstructure:"port"`
	ListenAll bool   `mapstructure:"listen_all"`
}

type Config struct {
	Dir          string    `mapstructure:"-"`
	Store        Store     `mapstructure:"store"`
	Transport    Transport `mapstructure:"transport"`
	Readiness    Readiness `mapstructure:"readiness"`
	RPC          RPC       `mapstructure:"rpc"`
	ExitWhenIdle bool      `mapstructure:"exit_when_idle"`

	// IdleGrace is how long the daemon stays up after going idle.
	IdleGrace  time.Duration `mapstructure:"idle_grace"`
	SocketPath string        `mapstructure:"socket_path"`
	TCPPort    int           `mapstructure:"tcp_port"`
	LogFile    string        `mapstructure:"log_file"`
	Debug      bool          `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.path", "")
	v.SetDefault("transport.kind", "exec")
	v.SetDefault("transport.binary", "openvpn")
	v.SetDefault("transport.args", []string{})
	v.SetDefault("readiness.attempts", 3)
	v.SetDefault("readiness.delay", time.Second)
	v.SetDefault("rpc.secret", "")
	v.SetDefault("rpc.port", common.DefaultRPCPort)
	v.SetDefault("rpc.listen_all", false)
	v.SetDefault("exit_when_idle", false)
	v.SetDefault("idle_grace", 30*time.Second)
	v.SetDefault("socket_path", "")
	v.SetDefault("tcp_port", common.DefaultTCPPort)
	v.SetDefault("log_file", "")
	v.SetDefault("debug", false)
}

// Load reads the configuration of dir. A missing config file is not an
// error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.Dir = dir
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath(dir, cfg.Store.Backend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// defaultStorePath is the sqlite database file or the file backend
// directory inside dir.
func defaultStorePath(dir, backend string) string {
	if backend == BackendFile {
		return filepath.Join(dir, "state")
	}
	return filepath.Join(dir, "state.db")
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	switch c.Transport.Kind {
	case "exec", "noop":
	default:
		return fmt.Errorf("config: unknown transport.kind %q", c.Transport.Kind)
	}
	if c.Readiness.Attempts < 1 {
		return fmt.Errorf("config: readiness.attempts must be at least 1, got %d", c.Readiness.Attempts)
	}
	if c.Readiness.Delay < 0 {
		return fmt.Errorf("config: readiness.delay must not be negative")
	}
	if c.IdleGrace < 0 {
		return fmt.Errorf("config: idle_grace must not be negative")
	}
	return nil
}

// ResolveDir returns the absolute configuration directory, creating it.
// WARPVPN_CONFIG_DIR overrides the per-user default.
func ResolveDir() (string, error) {
	dir := os.Getenv(common.ConfigDirEnv)
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "warpvpn")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return "", err
	}
	return abs, nil
}
