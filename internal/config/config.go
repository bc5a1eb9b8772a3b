// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package config loads the esctl configuration with precedence
// flags > environment > .env file > defaults.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elastic/go-esclient"
)

// EnvPrefix prefixes the environment variables, such as ESCTL_ES_URL.
const EnvPrefix = "ESCTL"

// Default configuration values.
const (
	DefaultESURL   = "http://localhost:9200"
	DefaultTimeout = 30 * time.Second
	DefaultOutput  = "json"
	DefaultEnvFile = ".env"
)

// Config holds the esctl configuration.
type Config struct {
	ES      ESConfig `mapstructure:"es"`
	Output  string   `mapstructure:"output"`
	Verbose bool     `mapstructure:"verbose"`
}

// ESConfig holds Elasticsearch connection settings.
type ESConfig struct {
	URL              string        `mapstructure:"url"` // comma separated
	CloudID          string        `mapstructure:"cloud_id"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	CompressionLevel int           `mapstructure:"compression_level"`
}

// Hosts returns the configured node URLs.
func (c ESConfig) Hosts() []string {
	var hosts []string
	for _, h := range strings.Split(c.URL, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// ClientConfig returns the esclient configuration for c.
func (c ESConfig) ClientConfig(logger *zap.Logger) esclient.Config {
	return esclient.Config{
		Hosts:            c.Hosts(),
		CloudID:          c.CloudID,
		Username:         c.Username,
		Password:         c.Password,
		APIKey:           c.APIKey,
		RequestTimeout:   c.Timeout,
		CompressionLevel: c.CompressionLevel,
		Logger:           logger,
	}
}

type contextKey struct{}

// FromContext retrieves Config from ctx.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(contextKey{}).(Config)
	return cfg, ok
}

// WithContext stores cfg in ctx.
func WithContext(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// Load builds a Config from the flags of cmd and its parents, the
// environment and the env file named by the env-file flag.
func Load(cmd *cobra.Command) (Config, error) {
	if err := loadEnvFile(cmd); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindFlagsRecursive(v, cmd); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile adds the variables of the env file to the environment.
// Variables already set take precedence. A missing default file is
// ignored.
func loadEnvFile(cmd *cobra.Command) error {
	path := DefaultEnvFile
	explicit := false
	if f := lookupFlag(cmd, "env-file"); f != nil {
		path = f.Value.String()
		explicit = f.Changed
	}
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	for c := cmd; c != nil; c = c.Parent() {
		if f := c.Flags().Lookup(name); f != nil {
			return f
		}
		if f := c.PersistentFlags().Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("es.url", DefaultESURL)
	v.SetDefault("es.cloud_id", "")
	v.SetDefault("es.username", "")
	v.SetDefault("es.password", "")
	v.SetDefault("es.api_key", "")
	v.SetDefault("es.timeout", DefaultTimeout)
	v.SetDefault("es.compression_level", 0)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("verbose", false)
}

func bindFlagsRecursive(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := bindFlagSet(v, cmd.Flags()); err != nil {
		return err
	}
	if err := bindFlagSet(v, cmd.PersistentFlags()); err != nil {
		return err
	}
	return bindFlagsRecursive(v, cmd.Parent())
}

// flagToKey maps flag names to nested configuration keys.
var flagToKey = map[string]string{
	"es-url":      "es.url",
	"cloud-id":    "es.cloud_id",
	"username":    "es.username",
	"password":    "es.password",
	"api-key":     "es.api_key",
	"timeout":     "es.timeout",
	"compression": "es.compression_level",
	"output":      "output",
	"verbose":     "verbose",
}

func bindFlagSet(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToKey[f.Name]
		if !ok {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = bindErr
		}
	})
	return err
}

// Validate fails fast on invalid configuration.
func (c Config) Validate() error {
	if len(c.ES.Hosts()) == 0 && c.ES.CloudID == "" {
		return errors.New("es.url or es.cloud_id is required")
	}
	if c.ES.Timeout <= 0 {
		return errors.New("es.timeout must be > 0")
	}
	if c.ES.CompressionLevel < -1 || c.ES.CompressionLevel > 9 {
		return fmt.Errorf("es.compression_level must be in range [-1,9], got %d", c.ES.CompressionLevel)
	}
	if c.ES.APIKey != "" && c.ES.Username != "" {
		return errors.New("es.api_key and es.username are mutually exclusive")
	}
	switch c.Output {
	case "json", "yaml":
	default:
		return fmt.Errorf("output must be json or yaml, got %q", c.Output)
	}
	return nil
}

// NewLogger returns a console logger writing to stderr, at debug level if
// verbose is set and at warn level otherwise.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
