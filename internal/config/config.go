// Package config loads CLI settings from flags, FORMSTATE_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formstate/pkg/authapi"
)

// EnvPrefix namespaces environment overrides (FORMSTATE_BASE_URL, ...).
const EnvPrefix = "FORMSTATE"

// Config holds the CLI settings.
type Config struct {
	BaseURL     string `mapstructure:"base_url"`
	LogLevel    string `mapstructure:"log_level"`
	Definitions string `mapstructure:"definitions"`
	TokenFile   string `mapstructure:"token_file"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		BaseURL:  authapi.DefaultBaseURL,
		LogLevel: "warn",
	}
}

// DefaultPath returns ~/.config/formstate/config.yaml, or "" when the home
// directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "formstate", "config.yaml")
}

// Load resolves settings. flagNames maps config keys to flag names in flags;
// only flags the user actually set override the file and environment. An
// explicit path must exist; the default path is optional.
func Load(path string, flags *pflag.FlagSet, flagNames map[string]string) (Config, string, error) {
	v := viper.New()
	defaults := Defaults()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("definitions", defaults.Definitions)
	v.SetDefault("token_file", defaults.TokenFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	used := ""
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			switch {
			case explicit:
				return Config{}, "", fmt.Errorf("config: read %s: %w", path, err)
			case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			default:
				return Config{}, "", fmt.Errorf("config: read %s: %w", path, err)
			}
		} else {
			used = v.ConfigFileUsed()
		}
	}

	if flags != nil {
		for key, name := range flagNames {
			if flag := flags.Lookup(name); flag != nil && flag.Changed {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, "", fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("config: decode: %w", err)
	}
	return cfg, used, nil
}
