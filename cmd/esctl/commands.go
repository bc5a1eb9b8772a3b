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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elastic/go-esclient"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the cluster is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd.Context())
			if err != nil {
				return err
			}
			ok, err := e.client.Ping(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("cluster unreachable")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cluster information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := e.client.Info(cmd.Context())
			if err != nil {
				return err
			}
			return writeBody(cmd.OutOrStdout(), e.cfg.Output, resp.Body)
		},
	}
}

func newHealthCmd() *cobra.Command {
	var waitFor string
	cmd := &cobra.Command{
		Use:   "health [index...]",
		Short: "Show cluster health",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd.Context())
			if err != nil {
				return err
			}
			var opts []esclient.Option
			if waitFor != "" {
				opts = append(opts, esclient.WithParam("wait_for_status", waitFor))
			}
			resp, err := e.client.Cluster.Health(cmd.Context(), args, opts...)
			if err != nil {
				return err
			}
			return writeBody(cmd.OutOrStdout(), e.cfg.Output, resp.Body)
		},
	}
	cmd.Flags().StringVar(&waitFor, "wait-for", "", "wait for the status: green, yellow or red")
	return cmd
}

func newIndicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indices [pattern...]",
		Short: "List indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := e.client.Cat.Indices(cmd.Context(), args, esclient.WithParam("format", "json"))
			if err != nil {
				return err
			}
			return writeBody(cmd.OutOrStdout(), e.cfg.Output, resp.Body)
		},
	}
}

func newGetCmd() *cobra.Command {
	var sourceOnly bool
	cmd := &cobra.Command{
		Use:   "get <index> <id>",
		Short: "Get a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd.Context())
			if err != nil {
				return err
			}
			var resp *esclient.Response
			if sourceOnly {
				resp, err = e.client.GetSource(cmd.Context(), args[0], args[1])
			} else {
				resp, err = e.client.Get(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return err
			}
			return writeBody(cmd.OutOrStdout(), e.cfg.Output, resp.Body)
		},
	}
	cmd.Flags().BoolVar(&sourceOnly, "source", false, "print only the document source")
	return cmd
}
