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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elastic/go-esclient"
	"github.com/elastic/go-esclient/helpers"
)

// maxLineSize bounds the size of a single document read by bulk.
const maxLineSize = 16 << 20

func newBulkCmd() *cobra.Command {
	var (
		index     string
		idField   string
		chunkSize int
		pipeline  string
	)
	cmd := &cobra.Command{
		Use:   "bulk <file>",
		Short: "Index newline delimited JSON documents, - reads stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd.Context())
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			items, err := readDocuments(r, index, idField)
			if err != nil {
				return err
			}
			result, err := helpers.Bulk(cmd.Context(), e.client, items, helpers.BulkConfig{
				ChunkSize:        chunkSize,
				CompressionLevel: e.cfg.ES.CompressionLevel,
				Pipeline:         pipeline,
				Logger:           e.logger,
			})
			if err != nil {
				return err
			}
			return reportBulk(cmd, e, result)
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "index to write to")
	cmd.Flags().StringVar(&idField, "id-field", "", "top level field holding the document id")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 500, "documents per bulk request")
	cmd.Flags().StringVar(&pipeline, "pipeline", "", "ingest pipeline")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

// readDocuments reads one JSON document per line, skipping blank lines.
func readDocuments(r io.Reader, index, idField string) ([]helpers.BulkIndexerItem, error) {
	var items []helpers.BulkIndexerItem
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for line := 1; scanner.Scan(); line++ {
		doc := bytes.TrimSpace(scanner.Bytes())
		if len(doc) == 0 {
			continue
		}
		if !json.Valid(doc) {
			return nil, fmt.Errorf("line %d: invalid JSON", line)
		}
		doc = bytes.Clone(doc)
		item := helpers.BulkIndexerItem{Index: index, Body: bytes.NewReader(doc)}
		if idField != "" {
			id := json.Get(doc, idField)
			if id.LastError() == nil {
				item.DocumentID = id.ToString()
			}
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func reportBulk(cmd *cobra.Command, e *env, result helpers.BulkResult) error {
	for _, item := range result.Failed {
		e.logger.Error("document rejected",
			zap.String("index", item.Index),
			zap.String("id", item.DocumentID),
			zap.Int("status", item.Status),
			zap.String("error.type", item.Error.Type),
			zap.String("error.reason", item.Error.Reason),
		)
	}
	if err := writeValue(cmd.OutOrStdout(), e.cfg.Output, map[string]any{
		"succeeded": result.Succeeded,
		"failed":    len(result.Failed),
	}); err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d documents failed", len(result.Failed))
	}
	return nil
}

func newReindexCmd() *cobra.Command {
	var (
		queryJSON string
		targetURL string
		chunkSize int
	)
	cmd := &cobra.Command{
		Use:   "reindex <source> <target>",
		Short: "Copy documents from one index to another, possibly on another cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFrom(cmd.Context())
			if err != nil {
				return err
			}
			cfg := helpers.ReindexConfig{
				SourceIndex: []string{args[0]},
				TargetIndex: args[1],
				Scan:        helpers.ScanConfig{Logger: e.logger},
				Bulk: helpers.BulkConfig{
					ChunkSize:        chunkSize,
					CompressionLevel: e.cfg.ES.CompressionLevel,
					Logger:           e.logger,
				},
			}
			if queryJSON != "" {
				q, err := parseQuery(queryJSON)
				if err != nil {
					return err
				}
				cfg.Query = map[string]any{"query": q.Source()}
			}
			if targetURL != "" {
				targetCfg := e.cfg.ES
				targetCfg.URL = targetURL
				targetCfg.CloudID = ""
				cfg.TargetClient, err = esclient.New(targetCfg.ClientConfig(e.logger))
				if err != nil {
					return fmt.Errorf("create target client: %w", err)
				}
			}
			result, err := helpers.Reindex(cmd.Context(), e.client, cfg)
			if err != nil {
				return err
			}
			return reportBulk(cmd, e, result)
		},
	}
	cmd.Flags().StringVar(&queryJSON, "dsl", "", "query selecting the documents to copy")
	cmd.Flags().StringVar(&targetURL, "target-url", "", "URL of the target cluster, defaults to the source cluster")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 500, "documents per bulk request")
	return cmd
}
