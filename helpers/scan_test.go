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
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/go-esclient"
	"github.com/elastic/go-esclient/estest"
	"github.com/elastic/go-esclient/helpers"
)

// scrollHandler serves pages of hits, one per request, with a new scroll
// id for each page.
func scrollHandler(t testing.TB, shards map[string]int, pages ...[]map[string]any) http.HandlerFunc {
	var page int
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/_search/scroll":
			estest.WriteJSON(w, http.StatusOK, map[string]any{"succeeded": true, "num_freed": 1})
			return
		case r.URL.Path == "/_search/scroll":
			var body map[string]any
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, "scroll-"+string(rune('0'+page-1)), body["scroll_id"])
		}
		var hits []map[string]any
		if page < len(pages) {
			hits = pages[page]
		}
		if shards == nil {
			shards = map[string]int{"total": 1, "successful": 1, "skipped": 0}
		}
		estest.WriteJSON(w, http.StatusOK, map[string]any{
			"_scroll_id": "scroll-" + string(rune('0'+page)),
			"_shards":    shards,
			"hits":       map[string]any{"hits": hits},
		})
		page++
	}
}

func hit(index, id string, source map[string]any) map[string]any {
	return map[string]any{"_index": index, "_id": id, "_score": nil, "_source": source}
}

func TestScan(t *testing.T) {
	client, srv := estest.NewClient(t, scrollHandler(t, nil,
		[]map[string]any{hit("logs", "1", map[string]any{"n": 1}), hit("logs", "2", map[string]any{"n": 2})},
		[]map[string]any{hit("logs", "3", map[string]any{"n": 3})},
	))

	s := helpers.Scan(context.Background(), client, helpers.ScanConfig{
		Index: []string{"logs"},
		Query: map[string]any{"query": map[string]any{"term": map[string]any{"user": "kimchy"}}},
		Size:  2,
	})
	var ids []string
	for s.Next() {
		h := s.Hit()
		assert.Equal(t, "logs", h.Index)
		assert.NotEmpty(t, h.Source)
		ids = append(ids, h.ID)
	}
	require.NoError(t, s.Err())
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	requests := srv.Requests()
	require.Len(t, requests, 4)

	search := requests[0]
	assert.Equal(t, http.MethodPost, search.Method)
	assert.Equal(t, "/logs/_search", search.Path)
	assert.Equal(t, "300000ms", search.Query.Get("scroll"))
	assert.Equal(t, "2", search.Query.Get("size"))
	assert.JSONEq(t, `{"query":{"term":{"user":"kimchy"}},"sort":"_doc"}`, string(search.Body))

	assert.Equal(t, "/_search/scroll", requests[1].Path)
	assert.JSONEq(t, `{"scroll_id":"scroll-0","scroll":"300000ms"}`, string(requests[1].Body))
	assert.Equal(t, "/_search/scroll", requests[2].Path)

	clear := requests[3]
	assert.Equal(t, http.MethodDelete, clear.Method)
	assert.Equal(t, "/_search/scroll", clear.Path)
	assert.JSONEq(t, `{"scroll_id":["scroll-2"]}`, string(clear.Body))

	// Close is idempotent and sends no further requests.
	require.NoError(t, s.Close())
	assert.Len(t, srv.Requests(), 4)
	assert.False(t, s.Next())
}

func TestScanPreserveOrder(t *testing.T) {
	client, srv := estest.NewClient(t, scrollHandler(t, nil))
	s := helpers.Scan(context.Background(), client, helpers.ScanConfig{
		Query:         map[string]any{"sort": []any{"timestamp"}},
		PreserveOrder: true,
	})
	assert.False(t, s.Next())
	require.NoError(t, s.Err())
	require.NoError(t, s.Close())

	search := srv.Requests()[0]
	assert.Equal(t, "/_search", search.Path)
	assert.Equal(t, "1000", search.Query.Get("size"))
	assert.JSONEq(t, `{"sort":["timestamp"]}`, string(search.Body))
}

func TestScanShardFailures(t *testing.T) {
	shards := map[string]int{"total": 2, "successful": 1, "skipped": 0}
	pages := [][]map[string]any{{hit("logs", "1", map[string]any{})}}

	client, _ := estest.NewClient(t, scrollHandler(t, shards, pages...))
	s := helpers.Scan(context.Background(), client, helpers.ScanConfig{})
	// The hits of the page with failed shards come before the error.
	require.True(t, s.Next())
	assert.Equal(t, "1", s.Hit().ID)
	assert.NoError(t, s.Err())
	assert.False(t, s.Next())
	var scanErr *helpers.ScanError
	require.ErrorAs(t, s.Err(), &scanErr)
	assert.Equal(t, helpers.ScanError{ScrollID: "scroll-0", Successful: 1, Total: 2}, *scanErr)
	assert.EqualError(t, scanErr, "scroll request scroll-0 has only succeeded on 1 (+0 skipped) shards out of 2")
	require.NoError(t, s.Close())

	client, _ = estest.NewClient(t, scrollHandler(t, shards, pages...))
	s = helpers.Scan(context.Background(), client, helpers.ScanConfig{AllowPartialResults: true})
	assert.True(t, s.Next())
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
	require.NoError(t, s.Close())
}

func TestScanSearchError(t *testing.T) {
	client, srv := estest.NewClient(t, estest.JSON(http.StatusNotFound, map[string]any{
		"error":  map[string]any{"type": "index_not_found_exception", "reason": "no such index [missing]"},
		"status": http.StatusNotFound,
	}))
	s := helpers.Scan(context.Background(), client, helpers.ScanConfig{Index: []string{"missing"}})
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), esclient.ErrNotFound)
	require.NoError(t, s.Close())
	// No scroll was opened, so there is nothing to clear.
	assert.Len(t, srv.Requests(), 1)
}
