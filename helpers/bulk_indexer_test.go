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

package helpers_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/go-esclient"
	"github.com/elastic/go-esclient/estest"
	"github.com/elastic/go-esclient/helpers"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestBulkIndexer(t *testing.T) {
	for _, tc := range []struct {
		Name             string
		CompressionLevel int
	}{
		{Name: "no_compression", CompressionLevel: gzip.NoCompression},
		{Name: "default_compression", CompressionLevel: gzip.DefaultCompression},
		{Name: "best_speed", CompressionLevel: gzip.BestSpeed},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			var items []estest.BulkItem
			client, srv := estest.NewClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var result any
				items, result = estest.DecodeBulkRequest(r)
				estest.WriteJSON(w, http.StatusOK, result)
			}))
			indexer, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{
				Client:           client,
				CompressionLevel: tc.CompressionLevel,
			})
			require.NoError(t, err)

			require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
				Index:      "logs",
				DocumentID: "1",
				Body:       newJSONReader(map[string]any{"message": "one"}),
			}))
			require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
				Action:     helpers.ActionCreate,
				Index:      "logs",
				DocumentID: "2",
				Body:       newJSONReader(map[string]any{"message": "two"}),
			}))
			require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
				Action:     helpers.ActionUpdate,
				Index:      "logs",
				DocumentID: "1",
				Body:       newJSONReader(map[string]any{"doc": map[string]any{"message": "uno"}}),
			}))
			require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
				Action:     helpers.ActionDelete,
				Index:      "logs",
				DocumentID: "2",
			}))
			assert.Equal(t, 4, indexer.Items())
			uncompressed := indexer.Len()

			stat, err := indexer.Flush(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(4), stat.Indexed)
			assert.Empty(t, stat.FailedDocs)
			assert.Equal(t, 0, indexer.Items())
			assert.Equal(t, 0, indexer.Len())
			assert.Equal(t, uncompressed, indexer.BytesUncompressedFlushed())
			if tc.CompressionLevel == gzip.NoCompression {
				assert.Equal(t, uncompressed, indexer.BytesFlushed())
			}

			require.Len(t, items, 4)
			assert.Equal(t, []string{"index", "create", "update", "delete"}, []string{
				items[0].Action, items[1].Action, items[2].Action, items[3].Action,
			})
			assert.JSONEq(t, `{"message":"one"}`, string(items[0].Source))
			assert.JSONEq(t, `{"doc":{"message":"uno"}}`, string(items[2].Source))
			assert.Nil(t, items[3].Source)

			req := srv.LastRequest()
			assert.Equal(t, "/_bulk", req.Path)
			assert.Equal(t, "application/x-ndjson", req.Header.Get("Content-Type"))
			assert.NotEmpty(t, req.Query.Get("filter_path"))
			if tc.CompressionLevel != gzip.NoCompression {
				assert.Equal(t, "gzip", req.Header.Get("Content-Encoding"))
			} else {
				assert.Empty(t, req.Header.Get("Content-Encoding"))
			}
		})
	}
}

func TestBulkIndexerFlushEmpty(t *testing.T) {
	client, srv := estest.NewClient(t, estest.JSON(http.StatusOK, `{"items":[]}`))
	indexer, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{Client: client})
	require.NoError(t, err)
	stat, err := indexer.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, helpers.BulkIndexerResponseStat{}, stat)
	assert.Empty(t, srv.Requests())
}

func TestBulkIndexerAddInvalid(t *testing.T) {
	client, _ := estest.NewClient(t, estest.JSON(http.StatusOK, `{"items":[]}`))
	indexer, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{Client: client})
	require.NoError(t, err)

	assert.EqualError(t, indexer.Add(helpers.BulkIndexerItem{Index: "logs"}), "index action requires a body")
	assert.EqualError(t, indexer.Add(helpers.BulkIndexerItem{
		Action: helpers.ActionDelete,
		Index:  "logs",
		Body:   strings.NewReader("{}"),
	}), "delete action must not have a body")
	assert.EqualError(t, indexer.Add(helpers.BulkIndexerItem{
		Action: "upsert",
		Index:  "logs",
		Body:   strings.NewReader("{}"),
	}), `unknown bulk action "upsert"`)
	assert.Equal(t, 0, indexer.Items())
	assert.Equal(t, 0, indexer.Len())
}

func TestBulkIndexerConfigValidate(t *testing.T) {
	_, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{})
	assert.EqualError(t, err, "client is nil")

	client, _ := estest.NewClient(t, estest.JSON(http.StatusOK, `{}`))
	_, err = helpers.NewBulkIndexer(helpers.BulkIndexerConfig{Client: client, CompressionLevel: 10})
	assert.EqualError(t, err, "expected CompressionLevel in range [-1,9], got 10")
}

func TestBulkIndexerPipelineRefresh(t *testing.T) {
	client, srv := estest.NewClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, result := estest.DecodeBulkRequest(r)
		estest.WriteJSON(w, http.StatusOK, result)
	}))
	indexer, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{
		Client:   client,
		Pipeline: "my-pipeline",
		Refresh:  "wait_for",
	})
	require.NoError(t, err)
	require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
		Index:   "logs",
		Routing: "user-1",
		Body:    newJSONReader(map[string]any{}),
	}))
	_, err = indexer.Flush(context.Background())
	require.NoError(t, err)

	req := srv.LastRequest()
	assert.Equal(t, "my-pipeline", req.Query.Get("pipeline"))
	assert.Equal(t, "wait_for", req.Query.Get("refresh"))
	meta, _, _ := bytes.Cut(req.Body, []byte("\n"))
	assert.JSONEq(t, `{"index":{"_index":"logs","routing":"user-1"}}`, string(meta))
}

func TestBulkIndexerFailedItems(t *testing.T) {
	client, _ := estest.NewClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, result := estest.DecodeBulkRequest(r)
		result.HasErrors = true
		for action, item := range result.Items[1] {
			item.Status = http.StatusBadRequest
			item.Error.Type = "mapper_parsing_exception"
			item.Error.Reason = "failed to parse field [a] of type [long]. Preview of field's value: 'x'"
			result.Items[1][action] = item
		}
		estest.WriteJSON(w, http.StatusOK, result)
	}))
	indexer, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{
		Client:             client,
		MaxDocumentRetries: 3,
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
			Index: "logs",
			Body:  newJSONReader(map[string]any{"a": i}),
		}))
	}
	stat, err := indexer.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stat.Indexed)
	assert.Equal(t, int64(0), stat.RetriedDocs)
	require.Len(t, stat.FailedDocs, 1)
	failed := stat.FailedDocs[0]
	assert.Equal(t, "index", failed.Action)
	assert.Equal(t, "logs", failed.Index)
	assert.Equal(t, 1, failed.Position)
	assert.Equal(t, http.StatusBadRequest, failed.Status)
	assert.Equal(t, "mapper_parsing_exception", failed.Error.Type)
	assert.Equal(t, "failed to parse field [a] of type [long]", failed.Error.Reason)
	// Non retriable failures are not kept.
	assert.Equal(t, 0, indexer.Items())
}

func TestBulkIndexerRetryDocument(t *testing.T) {
	var requests atomic.Int64
	var bodies [][]estest.BulkItem
	client, _ := estest.NewClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items, result := estest.DecodeBulkRequest(r)
		bodies = append(bodies, items)
		if requests.Add(1) == 1 {
			// Reject the second and fourth documents.
			for _, i := range []int{1, 3} {
				for action, item := range result.Items[i] {
					item.Status = http.StatusTooManyRequests
					result.Items[i][action] = item
				}
			}
		}
		estest.WriteJSON(w, http.StatusOK, result)
	}))
	indexer, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{
		Client:             client,
		MaxDocumentRetries: 1,
		CompressionLevel:   gzip.BestSpeed,
	})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
			Index:      "logs",
			DocumentID: fmt.Sprint(i),
			Body:       newJSONReader(map[string]any{"n": i}),
		}))
	}

	stat, err := indexer.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stat.Indexed)
	assert.Equal(t, int64(2), stat.RetriedDocs)
	assert.Equal(t, 1, stat.GreatestRetry)
	assert.Empty(t, stat.FailedDocs)
	assert.Equal(t, 2, indexer.Items())

	// A new document is sent together with the retried ones.
	require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
		Index:      "logs",
		DocumentID: "4",
		Body:       newJSONReader(map[string]any{"n": 4}),
	}))
	stat, err = indexer.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stat.Indexed)
	assert.Equal(t, int64(0), stat.RetriedDocs)

	require.Len(t, bodies, 2)
	var ids []string
	for _, item := range bodies[1] {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"1", "3", "4"}, ids)
	assert.JSONEq(t, `{"n":1}`, string(bodies[1][0].Source))
}

func TestBulkIndexerRetryLimit(t *testing.T) {
	client, _ := estest.NewClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, result := estest.DecodeBulkRequest(r)
		for i := range result.Items {
			for action, item := range result.Items[i] {
				item.Status = http.StatusServiceUnavailable
				result.Items[i][action] = item
			}
		}
		estest.WriteJSON(w, http.StatusOK, result)
	}))
	indexer, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{
		Client:                client,
		MaxDocumentRetries:    2,
		RetryOnDocumentStatus: []int{http.StatusServiceUnavailable},
	})
	require.NoError(t, err)
	require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
		Index: "logs",
		Body:  newJSONReader(map[string]any{}),
	}))

	for retry := 1; retry <= 2; retry++ {
		stat, err := indexer.Flush(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), stat.RetriedDocs)
		assert.Equal(t, retry, stat.GreatestRetry)
		assert.Empty(t, stat.FailedDocs)
	}
	stat, err := indexer.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stat.RetriedDocs)
	require.Len(t, stat.FailedDocs, 1)
	assert.Equal(t, http.StatusServiceUnavailable, stat.FailedDocs[0].Status)
	assert.Equal(t, 0, indexer.Items())
}

func TestBulkIndexerFlushError(t *testing.T) {
	client, _ := estest.NewClient(t, estest.JSON(http.StatusTooManyRequests, map[string]any{
		"error":  map[string]any{"type": "es_rejected_execution_exception", "reason": "rejected"},
		"status": http.StatusTooManyRequests,
	}))
	indexer, err := helpers.NewBulkIndexer(helpers.BulkIndexerConfig{Client: client})
	require.NoError(t, err)
	require.NoError(t, indexer.Add(helpers.BulkIndexerItem{
		Index: "logs",
		Body:  newJSONReader(map[string]any{}),
	}))

	_, err = indexer.Flush(context.Background())
	var flushErr *helpers.FlushError
	require.ErrorAs(t, err, &flushErr)
	assert.Equal(t, http.StatusTooManyRequests, flushErr.StatusCode)
	assert.True(t, flushErr.TooManyRequests())

	var respErr *esclient.ResponseError
	assert.True(t, errors.As(err, &respErr))
	assert.Equal(t, 0, indexer.Items())
	assert.Equal(t, 0, indexer.BytesFlushed())
}

func newJSONReader(v any) *bytes.Reader {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(data)
}
