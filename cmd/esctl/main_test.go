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
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/go-esclient/estest"
)

func runCmd(t *testing.T, srv *estest.Server, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--es-url", srv.URL, "--env-file="}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPing(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, nil))
	out, err := runCmd(t, srv, "ping")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
	assert.Equal(t, http.MethodHead, srv.LastRequest().Method)

	down := estest.NewServer(t, estest.JSON(http.StatusNotFound, nil))
	_, err = runCmd(t, down, "ping")
	assert.EqualError(t, err, "cluster unreachable")
}

func TestInfoOutput(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, map[string]any{
		"cluster_name": "test",
		"version":      map[string]any{"number": "8.15.0"},
	}))

	out, err := runCmd(t, srv, "info")
	require.NoError(t, err)
	assert.JSONEq(t, `{"cluster_name":"test","version":{"number":"8.15.0"}}`, out)

	out, err = runCmd(t, srv, "info", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "cluster_name: test\nversion:\n  number: 8.15.0\n", out)

	_, err = runCmd(t, srv, "info", "-o", "xml")
	assert.EqualError(t, err, `output must be json or yaml, got "xml"`)
}

func TestHealth(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, map[string]any{"status": "green"}))
	_, err := runCmd(t, srv, "health", "logs", "--wait-for", "yellow")
	require.NoError(t, err)
	req := srv.LastRequest()
	assert.Equal(t, "/_cluster/health/logs", req.Path)
	assert.Equal(t, "yellow", req.Query.Get("wait_for_status"))
}

func TestIndices(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, []any{map[string]any{"index": "logs-1"}}))
	out, err := runCmd(t, srv, "indices", "logs-*")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"index":"logs-1"}]`, out)
	req := srv.LastRequest()
	assert.Equal(t, "/_cat/indices/logs-*", req.Path)
	assert.Equal(t, "json", req.Query.Get("format"))
}

func TestGet(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, map[string]any{"_id": "1", "_source": map[string]any{"a": 1}}))
	_, err := runCmd(t, srv, "get", "blog", "1")
	require.NoError(t, err)
	assert.Equal(t, "/blog/_doc/1", srv.LastRequest().Path)

	_, err = runCmd(t, srv, "get", "blog", "1", "--source")
	require.NoError(t, err)
	assert.Equal(t, "/blog/_source/1", srv.LastRequest().Path)

	_, err = runCmd(t, srv, "get", "blog")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, `{"hits":{"total":{"value":1,"relation":"eq"},"hits":[
		{"_index":"blog","_id":"1","_score":1,"_source":{"title":"go"}}
	]}}`))

	out, err := runCmd(t, srv, "search", "blog", "--dsl", `{"match":{"title":"go"}}`, "--sort", "-date", "--size", "5")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"total":{"value":1,"relation":"eq"},
		"hits":[{"_index":"blog","_id":"1","_score":1,"_source":{"title":"go"}}]
	}`, out)

	req := srv.LastRequest()
	assert.Equal(t, "/blog/_search", req.Path)
	assert.JSONEq(t, `{
		"query":{"match":{"title":"go"}},
		"sort":[{"date":{"order":"desc"}}],
		"from":0,
		"size":5
	}`, string(req.Body))

	_, err = runCmd(t, srv, "search", "blog", "--dsl", `{"match":{},"term":{}}`)
	assert.ErrorContains(t, err, "invalid query")
}

func TestBulk(t *testing.T) {
	var received []estest.BulkItem
	srv := estest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items, result := estest.DecodeBulkRequest(r)
		received = append(received, items...)
		estest.WriteJSON(w, http.StatusOK, result)
	}))

	path := filepath.Join(t.TempDir(), "docs.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		`{"id":"a","title":"first"}`,
		``,
		`{"id":"b","title":"second"}`,
	}, "\n")), 0o600))

	out, err := runCmd(t, srv, "bulk", path, "--index", "blog", "--id-field", "id")
	require.NoError(t, err)
	assert.JSONEq(t, `{"succeeded":2,"failed":0}`, out)
	require.Len(t, received, 2)
	assert.Equal(t, "blog", received[0].Index)
	assert.Equal(t, "a", received[0].ID)
	assert.Equal(t, "b", received[1].ID)
	assert.JSONEq(t, `{"id":"b","title":"second"}`, string(received[1].Source))

	_, err = runCmd(t, srv, "bulk", path)
	assert.ErrorContains(t, err, `required flag(s) "index" not set`)
}

func TestReadDocumentsInvalid(t *testing.T) {
	_, err := readDocuments(strings.NewReader("{}\nnot json\n"), "blog", "")
	assert.EqualError(t, err, "line 2: invalid JSON")
}

func TestReindex(t *testing.T) {
	var indexed []estest.BulkItem
	srv := estest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_bulk":
			items, result := estest.DecodeBulkRequest(r)
			indexed = append(indexed, items...)
			estest.WriteJSON(w, http.StatusOK, result)
		case r.Method == http.MethodDelete:
			estest.WriteJSON(w, http.StatusOK, map[string]any{"succeeded": true})
		case r.URL.Path == "/src/_search":
			estest.WriteJSON(w, http.StatusOK, map[string]any{
				"_scroll_id": "s1",
				"_shards":    map[string]any{"total": 1, "successful": 1},
				"hits": map[string]any{"hits": []any{
					map[string]any{"_index": "src", "_id": "1", "_source": map[string]any{"n": 1}},
				}},
			})
		default:
			estest.WriteJSON(w, http.StatusOK, map[string]any{
				"_scroll_id": "s1",
				"_shards":    map[string]any{"total": 1, "successful": 1},
				"hits":       map[string]any{"hits": []any{}},
			})
		}
	}))

	out, err := runCmd(t, srv, "reindex", "src", "dst", "--dsl", `{"term":{"n":1}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"succeeded":1,"failed":0}`, out)
	require.Len(t, indexed, 1)
	assert.Equal(t, "dst", indexed[0].Index)
	assert.Equal(t, "1", indexed[0].ID)

	search := srv.Requests()[0]
	assert.Equal(t, "/src/_search", search.Path)
	assert.JSONEq(t, `{"query":{"term":{"n":1}},"sort":"_doc"}`, string(search.Body))
}
