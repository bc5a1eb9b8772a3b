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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCmd(t *testing.T) *cobra.Command {
	root := &cobra.Command{Use: "test"}
	root.PersistentFlags().String("es-url", DefaultESURL, "")
	root.PersistentFlags().String("cloud-id", "", "")
	root.PersistentFlags().String("username", "", "")
	root.PersistentFlags().String("password", "", "")
	root.PersistentFlags().String("api-key", "", "")
	root.PersistentFlags().Duration("timeout", DefaultTimeout, "")
	root.PersistentFlags().Int("compression", 0, "")
	root.PersistentFlags().StringP("output", "o", DefaultOutput, "")
	root.PersistentFlags().BoolP("verbose", "v", false, "")
	// A missing default env file is ignored.
	root.PersistentFlags().String("env-file", filepath.Join(t.TempDir(), DefaultEnvFile), "")

	sub := &cobra.Command{Use: "sub", RunE: func(*cobra.Command, []string) error { return nil }}
	root.AddCommand(sub)
	return sub
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"ESCTL_ES_URL", "ESCTL_ES_CLOUD_ID", "ESCTL_ES_USERNAME", "ESCTL_ES_PASSWORD",
		"ESCTL_ES_API_KEY", "ESCTL_ES_TIMEOUT", "ESCTL_ES_COMPRESSION_LEVEL",
		"ESCTL_OUTPUT", "ESCTL_VERBOSE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(newTestCmd(t))
	require.NoError(t, err)
	assert.Equal(t, Config{
		ES:     ESConfig{URL: DefaultESURL, Timeout: DefaultTimeout},
		Output: DefaultOutput,
	}, cfg)
	assert.Equal(t, []string{DefaultESURL}, cfg.ES.Hosts())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESCTL_ES_URL", "http://a:9200, http://b:9200")
	t.Setenv("ESCTL_ES_API_KEY", "c2VjcmV0")
	t.Setenv("ESCTL_ES_TIMEOUT", "5s")
	t.Setenv("ESCTL_OUTPUT", "yaml")
	t.Setenv("ESCTL_VERBOSE", "true")

	cfg, err := Load(newTestCmd(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, cfg.ES.Hosts())
	assert.Equal(t, "c2VjcmV0", cfg.ES.APIKey)
	assert.Equal(t, 5*time.Second, cfg.ES.Timeout)
	assert.Equal(t, "yaml", cfg.Output)
	assert.True(t, cfg.Verbose)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESCTL_ES_URL", "http://env:9200")
	cmd := newTestCmd(t)
	require.NoError(t, cmd.Root().PersistentFlags().Set("es-url", "http://flag:9200"))
	require.NoError(t, cmd.Root().PersistentFlags().Set("username", "elastic"))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:9200", cfg.ES.URL)
	assert.Equal(t, "elastic", cfg.ES.Username)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	// Set by the env file, so not covered by t.Setenv.
	t.Cleanup(func() { os.Unsetenv("ESCTL_ES_CLOUD_ID") })
	os.Unsetenv("ESCTL_ES_CLOUD_ID")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"ESCTL_ES_CLOUD_ID=name:abc\nESCTL_OUTPUT=json\n",
	), 0o600))
	t.Setenv("ESCTL_OUTPUT", "yaml")

	cmd := newTestCmd(t)
	require.NoError(t, cmd.Root().PersistentFlags().Set("env-file", path))
	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "name:abc", cfg.ES.CloudID)
	// The environment takes precedence over the env file.
	assert.Equal(t, "yaml", cfg.Output)

	require.NoError(t, cmd.Root().PersistentFlags().Set("env-file", filepath.Join(t.TempDir(), "missing.env")))
	_, err = Load(cmd)
	assert.ErrorContains(t, err, "load env file")
}

func TestValidate(t *testing.T) {
	valid := Config{ES: ESConfig{URL: DefaultESURL, Timeout: time.Second}, Output: "json"}
	require.NoError(t, valid.Validate())

	for name, test := range map[string]struct {
		modify func(*Config)
		err    string
	}{
		"no_hosts":    {func(c *Config) { c.ES.URL = " , " }, "es.url or es.cloud_id is required"},
		"timeout":     {func(c *Config) { c.ES.Timeout = 0 }, "es.timeout must be > 0"},
		"compression": {func(c *Config) { c.ES.CompressionLevel = 10 }, "es.compression_level must be in range [-1,9], got 10"},
		"auth": {func(c *Config) {
			c.ES.APIKey = "key"
			c.ES.Username = "elastic"
		}, "es.api_key and es.username are mutually exclusive"},
		"output": {func(c *Config) { c.Output = "xml" }, `output must be json or yaml, got "xml"`},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			test.modify(&cfg)
			assert.EqualError(t, cfg.Validate(), test.err)
		})
	}
}

func TestClientConfig(t *testing.T) {
	c := ESConfig{URL: "http://a:9200,http://b:9200", Username: "u", Password: "p", Timeout: time.Second, CompressionLevel: 1}
	cc := c.ClientConfig(nil)
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, cc.Hosts)
	assert.Equal(t, "u", cc.Username)
	assert.Equal(t, "p", cc.Password)
	assert.Equal(t, time.Second, cc.RequestTimeout)
	assert.Equal(t, 1, cc.CompressionLevel)
}
