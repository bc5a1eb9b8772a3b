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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elastic/go-esclient/dsl"
)

func newSearchCmd() *cobra.Command {
	var (
		queryString string
		queryJSON   string
		size        int
		from        int
		sortFields  []string
	)
	cmd := &cobra.Command{
		Use:   "search <index>",
		Short: "Search documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd.Context())
			if err != nil {
				return err
			}
			s := dsl.NewSearch(args[0]).UsingClient(e.client).From(from).Size(size)
			if queryString != "" {
				s = s.Query(dsl.QueryString(queryString))
			}
			if queryJSON != "" {
				q, err := parseQuery(queryJSON)
				if err != nil {
					return err
				}
				s = s.Query(q)
			}
			var sort []dsl.SortOption
			for _, f := range sortFields {
				sort = append(sort, dsl.Sort(f))
			}
			if len(sort) > 0 {
				s = s.Sort(sort...)
			}
			e.logger.Debug("searching", zap.String("index", args[0]), zap.Any("body", s.Map()))

			resp, err := s.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), e.cfg.Output, map[string]any{
				"total": resp.Hits.Total,
				"hits":  resp.Hits.Hits,
			})
		},
	}
	cmd.Flags().StringVarP(&queryString, "query", "q", "", "query in the Lucene query string syntax")
	cmd.Flags().StringVar(&queryJSON, "dsl", "", `query in the Query DSL, e.g. '{"match":{"title":"go"}}'`)
	cmd.Flags().IntVar(&size, "size", 10, "number of hits to return")
	cmd.Flags().IntVar(&from, "from", 0, "number of hits to skip")
	cmd.Flags().StringSliceVar(&sortFields, "sort", nil, "sort fields, prefixed with - for descending order")
	return cmd
}

// parseQuery parses a Query DSL object.
func parseQuery(s string) (dsl.Query, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	q, err := dsl.Q(m)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return q, nil
}
