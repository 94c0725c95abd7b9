// Package config loads CLI settings from defaults, a YAML file, BYTECODEC_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Memo backends accepted by Config.Memo.
const (
	MemoNone      = "none"
	MemoBigcache  = "bigcache"
	MemoRistretto = "ristretto"
	MemoRedis     = "redis"
)

// Config holds every CLI setting. Keys match the flag names so flags bind
// without a mapping table.
type Config struct {
	LogLevel     string        `mapstructure:"log-level"`
	MaxInput     int           `mapstructure:"max-input"`
	Normalize    bool          `mapstructure:"normalize"`
	Namespace    string        `mapstructure:"namespace"`
	Memo         string        `mapstructure:"memo"`
	MemoTTL      time.Duration `mapstructure:"memo-ttl"`
	MemoMinInput int           `mapstructure:"memo-min-input"`
	RedisAddr    string        `mapstructure:"redis-addr"`
}

// Defaults returns the baseline values applied before any file, env or flag.
func Defaults() map[string]any {
	return map[string]any{
		"log-level":      "warn",
		"max-input":      16 << 20,
		"normalize":      false,
		"namespace":      "bytecodec",
		"memo":           MemoNone,
		"memo-ttl":       10 * time.Minute,
		"memo-min-input": 256,
		"redis-addr":     "127.0.0.1:6379",
	}
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	var errs []error
	if c.MaxInput < 0 {
		errs = append(errs, fmt.Errorf("max-input must be >= 0, got %d", c.MaxInput))
	}
	if c.MemoMinInput < 0 {
		errs = append(errs, fmt.Errorf("memo-min-input must be >= 0, got %d", c.MemoMinInput))
	}
	if c.MemoTTL < 0 {
		errs = append(errs, fmt.Errorf("memo-ttl must be >= 0, got %s", c.MemoTTL))
	}
	switch c.Memo {
	case MemoNone, MemoBigcache, MemoRistretto:
	case MemoRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("memo=redis requires redis-addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown memo backend %q", c.Memo))
	}
	return errors.Join(errs...)
}

func userConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, "bytecodec"), nil
}

// LoadConfig resolves T from defaults, bytecodec.yaml (explicit path, user
// config dir, or the working directory), BYTECODEC_* env vars and the flags
// of cmd. A missing search-path file is fine; a missing explicit file is not.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("bytecodec")
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if dir, err := userConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &nf) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("bytecodec")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}
