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

package esclient_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/elastic/go-esclient"
	"github.com/elastic/go-esclient/estest"
)

func TestRequiredArgumentsDoNotSendRequests(t *testing.T) {
	client, srv := estest.NewClient(t, estest.JSON(http.StatusOK, "{}"))
	ctx := context.Background()

	_, err := client.Get(ctx, "", "1")
	assert.ErrorIs(t, err, esclient.ErrEmptyArgument)
	_, err = client.Index(ctx, "index", nil, "")
	assert.EqualError(t, err, "empty value passed for a required argument 'body'")
	_, err = client.Indices.Delete(ctx, []string{})
	assert.ErrorIs(t, err, esclient.ErrEmptyArgument)
	_, err = client.Scroll(ctx, "", nil)
	assert.ErrorIs(t, err, esclient.ErrEmptyArgument)
	_, err = client.ClearScroll(ctx, nil, nil)
	assert.ErrorIs(t, err, esclient.ErrEmptyArgument)
	_, err = client.ML.PutJob(ctx, "job", nil)
	assert.ErrorIs(t, err, esclient.ErrEmptyArgument)
	_, err = client.Search(ctx, nil, nil, esclient.WithParam("no_such_param", 1))
	assert.ErrorIs(t, err, esclient.ErrUnknownParameter)

	assert.Empty(t, srv.Requests())
}

func TestRequestConstruction(t *testing.T) {
	client, srv := estest.NewClient(t, estest.JSON(http.StatusOK, `{"acknowledged":true}`))
	ctx := context.Background()

	for name, tc := range map[string]struct {
		do     func() error
		method string
		path   string
		query  string
		body   string
	}{
		"index without id": {
			do: func() error {
				_, err := client.Index(ctx, "my-index", map[string]any{"a": 1}, "", esclient.WithParam("refresh", "wait_for"))
				return err
			},
			method: http.MethodPost,
			path:   "/my-index/_doc",
			query:  "refresh=wait_for",
			body:   `{"a":1}`,
		},
		"index with id": {
			do: func() error {
				_, err := client.Index(ctx, "my-index", `{"a":1}`, "中文")
				return err
			},
			method: http.MethodPut,
			path:   "/my-index/_doc/%E4%B8%AD%E6%96%87",
			body:   `{"a":1}`,
		},
		"search all indices": {
			do: func() error {
				_, err := client.Search(ctx, nil, map[string]any{"size": 0})
				return err
			},
			method: http.MethodPost,
			path:   "/_search",
			body:   `{"size":0}`,
		},
		"search index list": {
			do: func() error {
				_, err := client.Search(ctx, []string{"a", "b"}, nil, esclient.WithParam("size", 10))
				return err
			},
			method: http.MethodPost,
			path:   "/a,b/_search",
			query:  "size=10",
		},
		"scroll id only": {
			do: func() error {
				_, err := client.Scroll(ctx, "abc", nil, esclient.WithParam("scroll", "1m"))
				return err
			},
			method: http.MethodPost,
			path:   "/_search/scroll",
			query:  "scroll=1m",
			body:   `{"scroll_id":"abc"}`,
		},
		"scroll id and body": {
			do: func() error {
				_, err := client.Scroll(ctx, "abc", map[string]any{"scroll": "1m"})
				return err
			},
			method: http.MethodPost,
			path:   "/_search/scroll",
			query:  "scroll_id=abc",
			body:   `{"scroll":"1m"}`,
		},
		"clear scroll": {
			do: func() error {
				_, err := client.ClearScroll(ctx, []string{"a", "b"}, nil)
				return err
			},
			method: http.MethodDelete,
			path:   "/_search/scroll",
			body:   `{"scroll_id":["a","b"]}`,
		},
		"cluster state defaults metric": {
			do: func() error {
				_, err := client.Cluster.State(ctx, nil, []string{"my-index"})
				return err
			},
			method: http.MethodGet,
			path:   "/_cluster/state/_all/my-index",
		},
		"put mapping defaults index": {
			do: func() error {
				_, err := client.Indices.PutMapping(ctx, map[string]any{"properties": map[string]any{}}, nil)
				return err
			},
			method: http.MethodPut,
			path:   "/_all/_mapping",
			body:   `{"properties":{}}`,
		},
		"ml": {
			do: func() error {
				_, err := client.ML.GetJobStats(ctx, "job-1")
				return err
			},
			method: http.MethodGet,
			path:   "/_ml/anomaly_detectors/job-1/_stats",
		},
		"legacy ml": {
			do: func() error {
				_, err := client.XPack.ML.GetJobStats(ctx, "job-1")
				return err
			},
			method: http.MethodGet,
			path:   "/_xpack/ml/anomaly_detectors/job-1/_stats",
		},
		"legacy security": {
			do: func() error {
				_, err := client.XPack.Security.GetUser(ctx, []string{"a", "b"})
				return err
			},
			method: http.MethodGet,
			path:   "/_xpack/security/user/a,b",
		},
		"license": {
			do: func() error {
				_, err := client.License.Get(ctx)
				return err
			},
			method: http.MethodGet,
			path:   "/_license",
		},
		"legacy monitoring bulk": {
			do: func() error {
				_, err := client.XPack.Monitoring.Bulk(ctx, []any{map[string]any{"index": map[string]any{}}, map[string]any{"a": 1}}, "")
				return err
			},
			method: http.MethodPost,
			path:   "/_xpack/monitoring/_bulk",
			body:   "{\"index\":{}}\n{\"a\":1}\n",
		},
		"monitoring bulk": {
			do: func() error {
				_, err := client.Monitoring.Bulk(ctx, "{}", "kibana")
				return err
			},
			method: http.MethodPost,
			path:   "/_monitoring/kibana/bulk",
			body:   "{}\n",
		},
		"watcher ack": {
			do: func() error {
				_, err := client.Watcher.AckWatch(ctx, "w", []string{"a1", "a2"})
				return err
			},
			method: http.MethodPut,
			path:   "/_watcher/watch/w/_ack/a1,a2",
		},
		"cat indices": {
			do: func() error {
				_, err := client.Cat.Indices(ctx, []string{"logs-*"}, esclient.WithParam("format", "json"))
				return err
			},
			method: http.MethodGet,
			path:   "/_cat/indices/logs-*",
			query:  "format=json",
		},
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tc.do())
			req := srv.LastRequest()
			assert.Equal(t, tc.method, req.Method)
			assert.Equal(t, tc.path, req.Path)
			assert.Equal(t, tc.query, req.Query.Encode())
			assert.Equal(t, tc.body, string(req.Body))
		})
	}
}

func TestBulkContentType(t *testing.T) {
	client, srv := estest.NewClient(t, estest.JSON(http.StatusOK, `{"errors":false,"items":[]}`))
	_, err := client.Bulk(context.Background(), []any{
		map[string]any{"index": map[string]any{"_index": "i"}},
		map[string]any{"a": 1},
	}, "")
	require.NoError(t, err)
	req := srv.LastRequest()
	assert.Equal(t, "application/x-ndjson", req.Header.Get("Content-Type"))
	assert.Equal(t, "{\"index\":{\"_index\":\"i\"}}\n{\"a\":1}\n", string(req.Body))
}

func TestBulkReaderBodyNewline(t *testing.T) {
	client, srv := estest.NewClient(t, estest.JSON(http.StatusOK, `{"errors":false,"items":[]}`))
	_, err := client.Bulk(context.Background(), strings.NewReader("{\"index\":{\"_index\":\"i\"}}\n{\"a\":1}"), "")
	require.NoError(t, err)
	assert.Equal(t, "{\"index\":{\"_index\":\"i\"}}\n{\"a\":1}\n", string(srv.LastRequest().Body))
}

func TestExists(t *testing.T) {
	srv := estest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/present/_mapping/doc", "/present":
			w.WriteHeader(http.StatusOK)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	client := srv.Client(t, esclient.Config{})
	ctx := context.Background()

	ok, err := client.Indices.ExistsType(ctx, []string{"present"}, []string{"doc"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, http.MethodHead, srv.LastRequest().Method)

	ok, err = client.Indices.ExistsType(ctx, []string{"missing"}, []string{"doc"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = client.Indices.Exists(ctx, []string{"present"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = client.Indices.Exists(ctx, []string{"broken"})
	var respErr *esclient.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusInternalServerError, respErr.StatusCode)
}

func TestPing(t *testing.T) {
	client, _ := estest.NewClient(t, estest.JSON(http.StatusOK, nil))
	ok, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	client, _ = estest.NewClient(t, estest.JSON(http.StatusServiceUnavailable, nil))
	ok, err = client.Ping(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	unreachable, err := esclient.New(esclient.Config{
		Hosts:        []string{"http://127.0.0.1:1"},
		DisableRetry: true,
	})
	require.NoError(t, err)
	ok, err = unreachable.Ping(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHostPathPrefixKeepsEscaping(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, "{}"))
	client, err := esclient.New(esclient.Config{
		Hosts:        []string{srv.URL, srv.URL + "/prefix"},
		DisableRetry: true,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), "idx", "a/b?c")
		require.NoError(t, err)
	}
	var paths []string
	for _, r := range srv.Requests() {
		paths = append(paths, r.Path)
	}
	assert.ElementsMatch(t, []string{
		"/idx/_doc/a%2Fb%3Fc",
		"/prefix/idx/_doc/a%2Fb%3Fc",
	}, paths)
}

func TestResponseErrors(t *testing.T) {
	client, _ := estest.NewClient(t, estest.JSON(http.StatusConflict, `{
		"error": {"type": "version_conflict_engine_exception", "reason": "document already exists"},
		"status": 409
	}`))
	ctx := context.Background()

	_, err := client.Create(ctx, "i", "1", map[string]any{"a": 1})
	assert.ErrorIs(t, err, esclient.ErrConflict)
	var respErr *esclient.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, "version_conflict_engine_exception", respErr.Type)
	assert.Equal(t, "document already exists", respErr.Reason)

	res, err := client.Create(ctx, "i", "1", map[string]any{"a": 1}, esclient.WithIgnore(http.StatusConflict))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, err = client.Create(ctx, "i", "1", map[string]any{"a": 1}, esclient.WithParam("ignore", 409))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestRequestTimeout(t *testing.T) {
	done := make(chan struct{})
	client, _ := estest.NewClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	// Unblock the handler before the server is closed.
	t.Cleanup(func() { close(done) })

	_, err := client.Info(context.Background(), esclient.WithRequestTimeout(50*time.Millisecond))
	assert.ErrorIs(t, err, esclient.ErrConnectionTimeout)
	var connErr *esclient.ConnectionError
	assert.True(t, errors.As(err, &connErr))
}

func TestResponseDecode(t *testing.T) {
	client, _ := estest.NewClient(t, estest.JSON(http.StatusOK, `{"_id":"1","found":true,"_source":{"title":"hello"}}`))
	res, err := client.Get(context.Background(), "i", "1")
	require.NoError(t, err)

	var doc struct {
		ID     string `json:"_id"`
		Found  bool   `json:"found"`
		Source struct {
			Title string `json:"title"`
		} `json:"_source"`
	}
	require.NoError(t, res.Decode(&doc))
	assert.Equal(t, "1", doc.ID)
	assert.True(t, doc.Found)
	assert.Equal(t, "hello", doc.Source.Title)
	assert.Contains(t, res.String(), "200 OK")
}

func TestCompression(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, "{}"))
	client := srv.Client(t, esclient.Config{CompressionLevel: 5})
	_, err := client.Search(context.Background(), []string{"i"}, map[string]any{"size": 1})
	require.NoError(t, err)

	req := srv.LastRequest()
	assert.Equal(t, "gzip", req.Header.Get("Content-Encoding"))
	assert.JSONEq(t, `{"size":1}`, string(req.Body))
}

func TestSendGetBodyAs(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, "{}"))
	body := map[string]any{"datafeed_config": map[string]any{"indices": []string{"i"}}}
	ctx := context.Background()

	client := srv.Client(t, esclient.Config{})
	_, err := client.ML.PreviewDatafeed(ctx, "", body)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, srv.LastRequest().Method)
	assert.Equal(t, "/_ml/datafeeds/_preview", srv.LastRequest().Path)

	client = srv.Client(t, esclient.Config{SendGetBodyAs: "POST"})
	_, err = client.ML.PreviewDatafeed(ctx, "", body)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, srv.LastRequest().Method)

	client = srv.Client(t, esclient.Config{SendGetBodyAs: "source"})
	_, err = client.ML.PreviewDatafeed(ctx, "", body)
	require.NoError(t, err)
	req := srv.LastRequest()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Empty(t, req.Body)
	assert.JSONEq(t, `{"datafeed_config":{"indices":["i"]}}`, req.Query.Get("source"))
	assert.Equal(t, "application/json", req.Query.Get("source_content_type"))

	_, err = esclient.NewWithTransport(srv.ElasticsearchClient(t), esclient.Config{SendGetBodyAs: "PUT"})
	assert.Error(t, err)
}

func TestAuthHeaders(t *testing.T) {
	srv := estest.NewServer(t, estest.JSON(http.StatusOK, "{}"))
	client := srv.Client(t, esclient.Config{
		APIKey: "Zm9vOmJhcg==",
		Header: http.Header{"X-Custom": []string{"yes"}},
	})
	_, err := client.Info(context.Background())
	require.NoError(t, err)
	req := srv.LastRequest()
	assert.Equal(t, "ApiKey Zm9vOmJhcg==", req.Header.Get("Authorization"))
	assert.Equal(t, "yes", req.Header.Get("X-Custom"))

	_, err = client.Info(context.Background(), esclient.WithHTTPAuth("elastic", "changeme"))
	require.NoError(t, err)
	assert.Equal(t, "Basic ZWxhc3RpYzpjaGFuZ2VtZQ==", srv.LastRequest().Header.Get("Authorization"))
}

func TestTelemetry(t *testing.T) {
	srv := estest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing/_doc/1" {
			estest.WriteJSON(w, http.StatusNotFound, `{"found":false}`)
			return
		}
		estest.WriteJSON(w, http.StatusOK, "{}")
	}))

	rdr := sdkmetric.NewManualReader()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	core, logs := observer.New(zapcore.DebugLevel)
	client := srv.Client(t, esclient.Config{
		MeterProvider:    sdkmetric.NewMeterProvider(sdkmetric.WithReader(rdr)),
		MetricAttributes: attribute.NewSet(attribute.String("a", "b")),
		TracerProvider:   tp,
		Logger:           zap.New(core),
	})

	ctx := context.Background()
	_, err := client.Index(ctx, "i", map[string]any{"a": 1}, "1")
	require.NoError(t, err)
	_, err = client.Get(ctx, "missing", "1")
	require.ErrorIs(t, err, esclient.ErrNotFound)

	var rm metricdata.ResourceMetrics
	require.NoError(t, rdr.Collect(ctx, &rm))
	var requests int64
	var sawDuration bool
	for _, m := range rm.ScopeMetrics[0].Metrics {
		switch m.Name {
		case "elasticsearch.client.requests.count":
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				requests += dp.Value
				v, ok := dp.Attributes.Value("a")
				assert.True(t, ok)
				assert.Equal(t, "b", v.AsString())
				if endpoint, _ := dp.Attributes.Value("endpoint"); endpoint.AsString() == "get" {
					outcome, _ := dp.Attributes.Value("outcome")
					assert.Equal(t, "failed_client", outcome.AsString())
				}
			}
		case "elasticsearch.client.request.duration":
			sawDuration = true
		}
	}
	assert.Equal(t, int64(2), requests)
	assert.True(t, sawDuration)

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "index", spans[0].Name)
	assert.Equal(t, "get", spans[1].Name)
	assert.Equal(t, "Error", spans[1].Status.Code.String())

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "index", entries[0].ContextMap()["endpoint"])
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
}
