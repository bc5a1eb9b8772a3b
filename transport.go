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

package esclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"go.elastic.co/apm/module/apmelasticsearch/v2"
	"go.uber.org/zap"
)

// Transport sends requests to Elasticsearch. It is implemented by
// *elastictransport.Client and *elasticsearch.Client, which take care of
// node selection, retries and connection pooling.
type Transport interface {
	Perform(*http.Request) (*http.Response, error)
}

// nodeURLs resolves the configured CloudID or hosts to node URLs.
func nodeURLs(cfg Config) ([]*url.URL, error) {
	hosts := NormalizeHosts(cfg.Hosts)
	if cfg.CloudID != "" {
		h, err := parseCloudID(cfg.CloudID)
		if err != nil {
			return nil, err
		}
		hosts = []Host{h}
	}
	urls := make([]*url.URL, 0, len(hosts))
	for _, h := range hosts {
		u, err := h.URL()
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// newTransport builds the default transport. Authentication and global
// headers are applied per request by the client, so they are not passed
// on here.
func newTransport(cfg Config) (*elastictransport.Client, error) {
	urls, err := nodeURLs(cfg)
	if err != nil {
		return nil, err
	}
	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if cfg.Tracer != nil {
		rt = apmelasticsearch.WrapRoundTripper(rt)
	}
	rt = escapedPathTransport{next: rt}
	tp, err := elastictransport.New(elastictransport.Config{
		URLs:                  urls,
		Transport:             rt,
		MaxRetries:            cfg.MaxRetries,
		RetryOnStatus:         cfg.RetryOnStatus,
		DisableRetry:          cfg.DisableRetry,
		RetryBackoff:          cfg.RetryBackoff,
		DiscoverNodesInterval: cfg.SniffInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating transport: %w", err)
	}
	if cfg.SniffOnStart {
		go func() {
			if err := tp.DiscoverNodes(); err != nil {
				cfg.Logger.Warn("failed to discover nodes on start", zap.Error(err))
			}
		}()
	}
	return tp, nil
}

// escapedPathTransport restores the escaped request path for nodes with a
// path prefix. elastictransport prepends the prefix to URL.Path but leaves
// URL.RawPath untouched, so without this an escaped '/' in a document id
// would be sent as a path separator.
type escapedPathTransport struct {
	next http.RoundTripper
}

func (t escapedPathTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u := req.URL
	if u.RawPath == "" {
		return t.next.RoundTrip(req)
	}
	decoded, err := url.PathUnescape(u.RawPath)
	if err != nil || decoded == u.Path || !strings.HasSuffix(u.Path, decoded) {
		return t.next.RoundTrip(req)
	}
	prefix := &url.URL{Path: strings.TrimSuffix(u.Path, decoded)}
	req = req.Clone(req.Context())
	req.URL.RawPath = prefix.EscapedPath() + u.RawPath
	return t.next.RoundTrip(req)
}
