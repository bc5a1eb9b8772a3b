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

// Package estest provides a mock Elasticsearch server for testing code
// built on esclient.
package estest

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
	"go.elastic.co/apm/module/apmelasticsearch/v2"

	"github.com/elastic/go-esclient"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TimestampFormat holds the time format for formatting timestamps according to
// Elasticsearch's strict_date_optional_time date format, which includes a fractional
// seconds component.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Request holds a request received by Server, with its body decompressed.
type Request struct {
	Method string
	// Path holds the escaped request path.
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server is a mock Elasticsearch recording the requests it receives.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
}

// NewServer starts a Server passing every request to h. The server is
// closed via t.Cleanup.
func NewServer(t testing.TB, h http.Handler) *Server {
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.Header.Del("Content-Encoding")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or a zero Request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// ElasticsearchClient returns a go-elasticsearch client for s, with
// retries disabled and an APM instrumented transport.
func (s *Server) ElasticsearchClient(t testing.TB) *elasticsearch.Client {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{s.URL},
		DisableRetry: true,
		Transport:    apmelasticsearch.WrapRoundTripper(http.DefaultTransport),
	})
	require.NoError(t, err)
	return client
}

// Client returns an esclient.Client sending requests to s through a
// go-elasticsearch client.
func (s *Server) Client(t testing.TB, cfg esclient.Config) *esclient.Client {
	client, err := esclient.NewWithTransport(s.ElasticsearchClient(t), cfg)
	require.NoError(t, err)
	return client
}

// NewClient starts a Server with h and returns a client for it.
func NewClient(t testing.TB, h http.Handler) (*esclient.Client, *Server) {
	s := NewServer(t, h)
	return s.Client(t, esclient.Config{}), s
}

// JSON returns a handler responding with status and body encoded as JSON.
// Strings and byte slices are written as-is.
func JSON(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch b := body.(type) {
	case nil:
	case string:
		io.WriteString(w, b)
	case []byte:
		w.Write(b)
	default:
		json.NewEncoder(w).Encode(body)
	}
}

// BulkItem is a single action decoded from a /_bulk request body.
type BulkItem struct {
	Action string
	Index  string
	ID     string
	// Source holds the document, or nil for delete actions.
	Source []byte
}

// DecodeBulkRequest decodes a /_bulk request's body, returning the decoded
// items and a response body reporting every item as successful.
func DecodeBulkRequest(r *http.Request) ([]BulkItem, esutil.BulkIndexerResponse) {
	body, err := readBody(r)
	if err != nil {
		panic(err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var items []BulkItem
	var result esutil.BulkIndexerResponse
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var action map[string]struct {
			Index string `json:"_index"`
			ID    string `json:"_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &action); err != nil {
			panic(err)
		}
		var item BulkItem
		for name, meta := range action {
			item = BulkItem{Action: name, Index: meta.Index, ID: meta.ID}
		}
		if item.Action != "delete" {
			if !scanner.Scan() {
				panic("expected source")
			}
			item.Source = append([]byte{}, scanner.Bytes()...)
			if !json.Valid(item.Source) {
				panic(fmt.Errorf("invalid JSON: %s", item.Source))
			}
		}
		items = append(items, item)

		status := http.StatusCreated
		if item.Action != "index" && item.Action != "create" {
			status = http.StatusOK
		}
		result.Items = append(result.Items, map[string]esutil.BulkIndexerResponseItem{
			item.Action: {Index: item.Index, DocumentID: item.ID, Status: status},
		})
	}
	return items, result
}

func readBody(r *http.Request) ([]byte, error) {
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}
	return io.ReadAll(body)
}
