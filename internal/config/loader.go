package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".quickdir"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for quickdir settings.
const envPrefix = "QUICKDIR"

// Load reads configuration from defaults, a config file and the environment.
// If configPath is non-empty it names the config file; otherwise .quickdir.yaml
// is searched in the working directory and $HOME. A missing config file is
// not an error. A .env file in the working directory is loaded first, without
// overriding variables that are already set.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.verbosity", d.Log.Verbosity)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("scaffold.leaves", d.Scaffold.Leaves)
	v.SetDefault("scaffold.file_mode", d.Scaffold.FileMode)
	v.SetDefault("mount.cache_size", d.Mount.CacheSize)
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("session.cache_size", d.Session.CacheSize)
}
