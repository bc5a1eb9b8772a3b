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

package helpers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elastic/go-esclient"
)

// BulkConfig holds configuration for Bulk.
type BulkConfig struct {
	// ChunkSize holds the maximum number of items per bulk request.
	//
	// If ChunkSize is zero, the default of 500 will be used.
	ChunkSize int

	// MaxChunkBytes holds the maximum size of a bulk request body, before
	// compression.
	//
	// If MaxChunkBytes is zero, the default of 100MiB will be used.
	MaxChunkBytes int

	// InitialBackoff holds the wait before the first retry of documents
	// rejected with a retriable status. It doubles with every retry up to
	// MaxBackoff.
	//
	// If InitialBackoff is zero, the default of 2 seconds will be used.
	InitialBackoff time.Duration

	// MaxBackoff holds the maximum wait between retries.
	//
	// If MaxBackoff is zero, the default of 10 minutes will be used.
	MaxBackoff time.Duration

	// CompressionLevel, MaxDocumentRetries, RetryOnDocumentStatus, Pipeline
	// and Refresh configure the bulk indexer, see BulkIndexerConfig.
	CompressionLevel      int
	MaxDocumentRetries    int
	RetryOnDocumentStatus []int
	Pipeline              string
	Refresh               string

	// Logger holds an optional Logger.
	Logger *zap.Logger
}

func (cfg BulkConfig) withDefaults() BulkConfig {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.MaxChunkBytes <= 0 {
		cfg.MaxChunkBytes = 100 * 1024 * 1024
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// BulkResult holds the outcome of Bulk and Reindex.
type BulkResult struct {
	// Succeeded holds the number of items indexed successfully.
	Succeeded int64
	// Failed holds the items Elasticsearch rejected, after retries.
	Failed []BulkIndexerResponseItem
}

// Bulk sends items in bulk requests of at most cfg.ChunkSize items and
// cfg.MaxChunkBytes bytes. Rejected items are reported in the result; an
// error is returned only when a bulk request fails as a whole.
func Bulk(ctx context.Context, client *esclient.Client, items []BulkIndexerItem, cfg BulkConfig) (BulkResult, error) {
	var i int
	return bulk(ctx, client, cfg, func() (BulkIndexerItem, bool, error) {
		if i >= len(items) {
			return BulkIndexerItem{}, false, nil
		}
		i++
		return items[i-1], true, nil
	})
}

// bulk drains next into chunked bulk requests.
func bulk(
	ctx context.Context,
	client *esclient.Client,
	cfg BulkConfig,
	next func() (BulkIndexerItem, bool, error),
) (BulkResult, error) {
	cfg = cfg.withDefaults()
	bi, err := NewBulkIndexer(BulkIndexerConfig{
		Client:                client,
		MaxDocumentRetries:    cfg.MaxDocumentRetries,
		RetryOnDocumentStatus: cfg.RetryOnDocumentStatus,
		CompressionLevel:      cfg.CompressionLevel,
		Pipeline:              cfg.Pipeline,
		Refresh:               cfg.Refresh,
	})
	if err != nil {
		return BulkResult{}, err
	}
	var result BulkResult
	flush := func() error {
		backoff := cfg.InitialBackoff
		for bi.Items() > 0 {
			resp, err := bi.Flush(ctx)
			if err != nil {
				return err
			}
			result.Succeeded += resp.Indexed
			result.Failed = append(result.Failed, resp.FailedDocs...)
			if len(resp.FailedDocs) > 0 {
				cfg.Logger.Error("failed to index documents",
					zap.Int("documents", len(resp.FailedDocs)),
					zap.String("reason", resp.FailedDocs[0].Error.Reason),
				)
			}
			if resp.RetriedDocs == 0 {
				continue
			}
			cfg.Logger.Debug("retrying rejected documents",
				zap.Int64("documents", resp.RetriedDocs),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(2*backoff, cfg.MaxBackoff)
		}
		return nil
	}
	for {
		item, ok, err := next()
		if err != nil {
			return result, err
		}
		if !ok {
			break
		}
		if err := bi.Add(item); err != nil {
			return result, err
		}
		// Send what was buffered before item if item pushed the request
		// over the limit.
		if bi.Items() > 1 && bi.Len() > cfg.MaxChunkBytes {
			last := bi.popLast()
			if err := flush(); err != nil {
				return result, err
			}
			bi.addEncoded(last)
		}
		if bi.Items() >= cfg.ChunkSize || bi.Len() >= cfg.MaxChunkBytes {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	return result, flush()
}

// ReindexConfig holds configuration for Reindex.
type ReindexConfig struct {
	// SourceIndex holds the indices to read from.
	SourceIndex []string

	// TargetIndex holds the index to write to.
	TargetIndex string

	// TargetClient holds the client to write with.
	//
	// If TargetClient is nil, the source client will be used.
	TargetClient *esclient.Client

	// Query holds an optional query selecting the documents to copy.
	Query any

	// Scan and Bulk configure reading and writing. Scan.Index and
	// Scan.Query are overridden.
	Scan ScanConfig
	Bulk BulkConfig
}

// Reindex copies all documents matching cfg.Query from cfg.SourceIndex
// into cfg.TargetIndex, keeping their ids. Unlike Client.Reindex it works
// across clusters, reading and writing concurrently.
func Reindex(ctx context.Context, client *esclient.Client, cfg ReindexConfig) (BulkResult, error) {
	if len(cfg.SourceIndex) == 0 {
		return BulkResult{}, &esclient.ArgumentError{Name: "source_index"}
	}
	if cfg.TargetIndex == "" {
		return BulkResult{}, &esclient.ArgumentError{Name: "target_index"}
	}
	target := cfg.TargetClient
	if target == nil {
		target = client
	}
	scanCfg := cfg.Scan
	scanCfg.Index = cfg.SourceIndex
	scanCfg.Query = cfg.Query

	g, gctx := errgroup.WithContext(ctx)
	items := make(chan BulkIndexerItem, max(scanCfg.Size, 1))
	g.Go(func() error {
		defer close(items)
		s := Scan(gctx, client, scanCfg)
		for s.Next() {
			hit := s.Hit()
			item := BulkIndexerItem{
				Index:      cfg.TargetIndex,
				DocumentID: hit.ID,
				Body:       bytes.NewReader(hit.Source),
			}
			select {
			case <-gctx.Done():
				s.Close()
				return gctx.Err()
			case items <- item:
			}
		}
		if err := s.Err(); err != nil {
			s.Close()
			return fmt.Errorf("failed to scan %v: %w", cfg.SourceIndex, err)
		}
		return s.Close()
	})
	var result BulkResult
	g.Go(func() error {
		var err error
		result, err = bulk(gctx, target, cfg.Bulk, func() (BulkIndexerItem, bool, error) {
			select {
			case <-gctx.Done():
				return BulkIndexerItem{}, false, gctx.Err()
			case item, ok := <-items:
				return item, ok, nil
			}
		})
		return err
	})
	err := g.Wait()
	return result, err
}
