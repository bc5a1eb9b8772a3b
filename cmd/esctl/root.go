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

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elastic/go-esclient"
	"github.com/elastic/go-esclient/internal/config"
)

// env holds what every command needs, set up before the command runs.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	client *esclient.Client
}

type envKey struct{}

func envFrom(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey{}).(*env)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return e, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "esctl",
		Short:        "Command line client for Elasticsearch",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			client, err := esclient.New(cfg.ES.ClientConfig(logger))
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			ctx := config.WithContext(cmd.Context(), cfg)
			cmd.SetContext(context.WithValue(ctx, envKey{}, &env{
				cfg:    cfg,
				logger: logger,
				client: client,
			}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e, err := envFrom(cmd.Context()); err == nil {
				_ = e.logger.Sync()
			}
		},
	}

	// Precedence: flags > env > .env file > defaults.
	flags := root.PersistentFlags()
	flags.String("es-url", config.DefaultESURL, "Elasticsearch URLs, comma separated (env: ESCTL_ES_URL)")
	flags.String("cloud-id", "", "Elastic Cloud deployment ID (env: ESCTL_ES_CLOUD_ID)")
	flags.String("username", "", "basic auth username (env: ESCTL_ES_USERNAME)")
	flags.String("password", "", "basic auth password (env: ESCTL_ES_PASSWORD)")
	flags.String("api-key", "", "encoded API key (env: ESCTL_ES_API_KEY)")
	flags.Duration("timeout", config.DefaultTimeout, "request timeout (env: ESCTL_ES_TIMEOUT)")
	flags.Int("compression", 0, "gzip level for request bodies, 0 disables (env: ESCTL_ES_COMPRESSION_LEVEL)")
	flags.StringP("output", "o", config.DefaultOutput, "output format: json or yaml (env: ESCTL_OUTPUT)")
	flags.BoolP("verbose", "v", false, "log requests (env: ESCTL_VERBOSE)")
	flags.String("env-file", config.DefaultEnvFile, "file of environment variables to load")

	root.AddCommand(
		newPingCmd(),
		newInfoCmd(),
		newHealthCmd(),
		newIndicesCmd(),
		newGetCmd(),
		newSearchCmd(),
		newBulkCmd(),
		newReindexCmd(),
	)
	return root
}
