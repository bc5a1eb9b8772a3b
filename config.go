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
	"strings"
	"time"

	"go.elastic.co/apm/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config holds configuration for Client.
type Config struct {
	// Hosts holds the Elasticsearch nodes to connect to, see NormalizeHosts
	// for the accepted formats.
	//
	// If Hosts and CloudID are empty, http://localhost:9200 will be used.
	Hosts []string

	// CloudID holds an Elastic Cloud deployment ID. It takes precedence
	// over Hosts.
	CloudID string

	// Username and Password hold optional HTTP basic auth credentials
	// applied to every request.
	Username string
	Password string

	// APIKey holds an optional base64 encoded API key applied to every
	// request. It takes precedence over Username and Password.
	APIKey string

	// Header holds headers added to every request.
	Header http.Header

	// Transport holds the HTTP transport used to reach Elasticsearch.
	//
	// If Transport is nil, http.DefaultTransport will be used.
	Transport http.RoundTripper

	// MaxRetries holds the maximum number of retries of a request on
	// another node. It is only used by New.
	//
	// If MaxRetries is zero, the default of 3 will be used.
	MaxRetries int

	// RetryOnStatus holds the HTTP status codes that trigger a retry.
	//
	// If RetryOnStatus is empty, 502, 503 and 504 will be used.
	RetryOnStatus []int

	// DisableRetry disables retries entirely.
	DisableRetry bool

	// RetryBackoff holds an optional backoff between retries.
	RetryBackoff func(attempt int) time.Duration

	// SniffOnStart discovers the cluster nodes when the client is created.
	SniffOnStart bool

	// SniffInterval holds the interval between periodic node discovery.
	//
	// If SniffInterval is zero, nodes are not discovered periodically.
	SniffInterval time.Duration

	// RequestTimeout holds the default per request timeout. It can be
	// overridden per request with WithRequestTimeout.
	//
	// If RequestTimeout is zero, no timeout will be used.
	RequestTimeout time.Duration

	// CompressionLevel holds the gzip compression level for request
	// bodies, from 0 (gzip.NoCompression) to 9 (gzip.BestCompression).
	// The special value -1 (gzip.DefaultCompression) selects the default
	// compression level.
	//
	// Compression is disabled by default.
	CompressionLevel int

	// SendGetBodyAs controls how GET requests with a body are sent: "GET"
	// (the default), "POST", or "source" to send the body as the source
	// query parameter.
	SendGetBodyAs string

	// Serializer encodes request bodies and decodes responses.
	//
	// If Serializer is nil, JSONSerializer will be used.
	Serializer Serializer

	// Logger holds an optional Logger to use for logging requests.
	//
	// If Logger is nil, logging will be disabled.
	Logger *zap.Logger

	// Tracer holds an optional apm.Tracer. When set, the HTTP transport
	// is instrumented and requests made within an APM transaction are
	// recorded as spans.
	Tracer *apm.Tracer

	// TracerProvider holds an optional OTel TracerProvider. When set, each
	// request is traced as a span.
	TracerProvider trace.TracerProvider

	// MeterProvider holds the OTel MeterProvider to be used to create and
	// record client metrics.
	//
	// If unset, the global OTel MeterProvider will be used, if that is unset,
	// no metrics will be recorded.
	MeterProvider metric.MeterProvider

	// MetricAttributes holds any extra attributes to set in the recorded
	// metrics.
	MetricAttributes attribute.Set
}

func (cfg Config) normalize() (Config, error) {
	if cfg.CompressionLevel < -1 || cfg.CompressionLevel > 9 {
		return cfg, fmt.Errorf(
			"expected CompressionLevel in range [-1,9], got %d",
			cfg.CompressionLevel,
		)
	}
	switch strings.ToUpper(cfg.SendGetBodyAs) {
	case "", http.MethodGet:
		cfg.SendGetBodyAs = http.MethodGet
	case http.MethodPost:
		cfg.SendGetBodyAs = http.MethodPost
	case "SOURCE":
		cfg.SendGetBodyAs = "source"
	default:
		return cfg, fmt.Errorf("invalid SendGetBodyAs %q: expected GET, POST or source", cfg.SendGetBodyAs)
	}
	if cfg.Serializer == nil {
		cfg.Serializer = JSONSerializer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if len(cfg.RetryOnStatus) == 0 {
		cfg.RetryOnStatus = []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout}
	}
	return cfg, nil
}
