// Package config loads quickdir settings from defaults, an optional
// .quickdir.yaml file, a .env file and QUICKDIR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"

	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultOutputFormat     = "tree"
	DefaultScaffoldLeaves   = "file"
	DefaultScaffoldFileMode = 0o644
	DefaultMountCacheSize   = 4096
	DefaultServeAddr        = "127.0.0.1:7420"
	DefaultSessionCacheSize = 128
)

var (
	ErrInvalidVerbosity    = errors.New("log.verbosity must be between -1 and 5")
	ErrInvalidLeaves       = errors.New("scaffold.leaves must be file or dir")
	ErrInvalidFileMode     = errors.New("scaffold.file_mode must be a permission between 0 and 0777")
	ErrInvalidCacheSize    = errors.New("cache sizes must be positive")
	ErrInvalidServeAddr    = errors.New("serve.addr must be host:port")
	ErrInvalidOutputFormat = errors.New("output.format must not be empty")
)

// Config is the top-level configuration.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Scaffold ScaffoldConfig `mapstructure:"scaffold" yaml:"scaffold"`
	Mount    MountConfig    `mapstructure:"mount" yaml:"mount"`
	Serve    ServeConfig    `mapstructure:"serve" yaml:"serve"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
}

type LogConfig struct {
	// Verbosity follows commonlog: -1 silences, 0 errors only, 5 debug.
	Verbosity int    `mapstructure:"verbosity" yaml:"verbosity"`
	File      string `mapstructure:"file" yaml:"file"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Color  bool   `mapstructure:"color" yaml:"color"`
}

type ScaffoldConfig struct {
	// Leaves is "file" or "dir".
	Leaves   string `mapstructure:"leaves" yaml:"leaves"`
	FileMode uint32 `mapstructure:"file_mode" yaml:"file_mode"`
}

type MountConfig struct {
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type SessionConfig struct {
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Output:   OutputConfig{Format: DefaultOutputFormat, Color: true},
		Scaffold: ScaffoldConfig{Leaves: DefaultScaffoldLeaves, FileMode: DefaultScaffoldFileMode},
		Mount:    MountConfig{CacheSize: DefaultMountCacheSize},
		Serve:    ServeConfig{Addr: DefaultServeAddr},
		Session:  SessionConfig{CacheSize: DefaultSessionCacheSize},
	}
}

// LeavesAsDirs reports whether scaffolded leaves become directories.
func (c Config) LeavesAsDirs() bool {
	return c.Scaffold.Leaves == "dir"
}

// Validate checks every field and returns the first violation.
func (c Config) Validate() error {
	if c.Log.Verbosity < -1 || c.Log.Verbosity > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidVerbosity, c.Log.Verbosity)
	}
	if c.Output.Format == "" {
		return ErrInvalidOutputFormat
	}
	if c.Scaffold.Leaves != "file" && c.Scaffold.Leaves != "dir" {
		return fmt.Errorf("%w: got %q", ErrInvalidLeaves, c.Scaffold.Leaves)
	}
	if c.Scaffold.FileMode > 0o777 {
		return fmt.Errorf("%w: got %#o", ErrInvalidFileMode, c.Scaffold.FileMode)
	}
	if c.Mount.CacheSize <= 0 || c.Session.CacheSize <= 0 {
		return ErrInvalidCacheSize
	}
	if _, _, err := net.SplitHostPort(c.Serve.Addr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServeAddr, err)
	}
	return nil
}

// WriteYAML writes c in config file form.
func (c Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
