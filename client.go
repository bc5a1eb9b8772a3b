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
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.elastic.co/apm/module/apmzap/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const ndjsonContentType = "application/x-ndjson"

// Client is an Elasticsearch REST client. Each method maps to a single
// REST endpoint; namespaced endpoints are reached through the namespace
// fields, e.g. client.Indices.Create.
//
// Client is safe for concurrent use.
type Client struct {
	transport Transport
	config    Config
	metrics   metrics

	// tracer is an OTel tracer, and should not be confused with
	// `config.Tracer` which is an Elastic APM Tracer.
	tracer trace.Tracer

	Indices    *IndicesClient
	Cluster    *ClusterClient
	Cat        *CatClient
	Nodes      *NodesClient
	Snapshot   *SnapshotClient
	Ingest     *IngestClient
	Tasks      *TasksClient
	ILM        *ILMClient
	ML         *MLClient
	Security   *SecurityClient
	License    *LicenseClient
	Watcher    *WatcherClient
	Monitoring *MonitoringClient
	XPack      *XPackClient
}

// New returns a Client sending requests through an elastictransport
// client built from cfg.
func New(cfg Config) (*Client, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	tp, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	return newClient(tp, cfg)
}

// NewWithTransport returns a Client sending requests through tp, such as
// a go-elasticsearch client. Transport related fields of cfg are ignored.
func NewWithTransport(tp Transport, cfg Config) (*Client, error) {
	if tp == nil {
		return nil, errors.New("transport is nil")
	}
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return newClient(tp, cfg)
}

func newClient(tp Transport, cfg Config) (*Client, error) {
	ms, err := newMetrics(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{transport: tp, config: cfg, metrics: ms}
	if cfg.TracerProvider != nil {
		c.tracer = cfg.TracerProvider.Tracer(instrumentationScope)
	}
	c.Indices = &IndicesClient{c}
	c.Cluster = &ClusterClient{c}
	c.Cat = &CatClient{c}
	c.Nodes = &NodesClient{c}
	c.Snapshot = &SnapshotClient{c}
	c.Ingest = &IngestClient{c}
	c.Tasks = &TasksClient{c}
	c.ILM = &ILMClient{c}
	c.ML = &MLClient{namespace{c, "_ml"}}
	c.Security = &SecurityClient{namespace{c, "_security"}}
	c.License = &LicenseClient{namespace{c, "_license"}}
	c.Watcher = &WatcherClient{namespace{c, "_watcher"}}
	c.Monitoring = &MonitoringClient{namespace{c, "_monitoring"}, "bulk"}
	c.XPack = newXPackClient(c)
	return c, nil
}

// Serializer returns the serializer used for request and response bodies.
func (c *Client) Serializer() Serializer {
	return c.config.Serializer
}

// Response holds a response from Elasticsearch with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	serializer Serializer
}

// Decode deserializes the response body into v.
func (r *Response) Decode(v any) error {
	return r.serializer.Loads(r.Body, v)
}

// String returns the status line and body, for debugging.
func (r *Response) String() string {
	return fmt.Sprintf("[%d %s] %s", r.StatusCode, http.StatusText(r.StatusCode), r.Body)
}

// perform sends a single request for ep and maps the response.
func (c *Client) perform(
	ctx context.Context,
	ep *endpoint,
	method, path string,
	body any,
	opts []Option,
) (*Response, error) {
	r, err := ep.resolve(opts)
	if err != nil {
		return nil, err
	}
	// Bodies sent with their own Content-Encoding are already framed.
	ndjson := ep.ndjson && r.header.Get("Content-Encoding") == ""
	reader, _, err := encodeBody(c.config.Serializer, body, ndjson)
	if err != nil {
		return nil, err
	}
	contentType := c.config.Serializer.MimeType()
	if ep.ndjson {
		contentType = ndjsonContentType
	}
	if reader != nil && method == http.MethodGet {
		switch c.config.SendGetBodyAs {
		case http.MethodPost:
			method = http.MethodPost
		case "source":
			data, err := io.ReadAll(reader)
			if err != nil {
				return nil, &SerializationError{Err: err}
			}
			r.query.Set("source", string(data))
			r.query.Set("source_content_type", contentType)
			reader = nil
		}
	}

	var sent int64
	var gzipped bool
	if reader != nil {
		var buf bytes.Buffer
		if c.config.CompressionLevel != 0 && r.header.Get("Content-Encoding") == "" {
			gz, err := gzip.NewWriterLevel(&buf, c.config.CompressionLevel)
			if err != nil {
				return nil, err
			}
			if _, err := io.Copy(gz, reader); err != nil {
				return nil, &SerializationError{Err: err}
			}
			if err := gz.Close(); err != nil {
				return nil, &SerializationError{Err: err}
			}
			gzipped = true
		} else if _, err := buf.ReadFrom(reader); err != nil {
			return nil, &SerializationError{Err: err}
		}
		sent = int64(buf.Len())
		reader = &buf
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = r.query.Encode()
	for k, vs := range c.config.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range r.header {
		req.Header[k] = vs
	}
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
		if gzipped {
			req.Header.Set("Content-Encoding", "gzip")
		}
	}
	if req.Header.Get("Authorization") == "" {
		switch {
		case c.config.APIKey != "":
			req.Header.Set("Authorization", "ApiKey "+c.config.APIKey)
		case c.config.Username != "":
			creds := c.config.Username + ":" + c.config.Password
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))
		}
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = c.config.RequestTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := c.config.Logger.With(apmzap.TraceContext(ctx)...)
	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, ep.name,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemElasticsearch,
				attribute.String("db.operation.name", ep.name),
				semconv.HTTPRequestMethodKey.String(method),
				semconv.URLPath(path),
			),
		)
		defer span.End()
		logger = logger.With(
			zap.String("traceId", span.SpanContext().TraceID().String()),
			zap.String("spanId", span.SpanContext().SpanID().String()),
		)
	}

	start := time.Now()
	res, err := c.transport.Perform(req.WithContext(ctx))
	if err != nil {
		took := time.Since(start)
		c.metrics.record(ep, 0, took, sent, 0)
		logger.Warn("request failed",
			zap.String("endpoint", ep.name),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("took", took),
			zap.Error(err),
		)
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "request failed")
		}
		return nil, &ConnectionError{Err: err}
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	took := time.Since(start)
	c.metrics.record(ep, res.StatusCode, took, sent, int64(len(data)))
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reading response failed")
		}
		return nil, &ConnectionError{Err: fmt.Errorf("reading response body: %w", err)}
	}
	logger.Debug("request completed",
		zap.String("endpoint", ep.name),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", took),
	)
	if span != nil {
		span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode))
	}

	resp := &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       data,
		serializer: c.config.Serializer,
	}
	if (res.StatusCode >= 200 && res.StatusCode < 300) || slices.Contains(r.ignore, res.StatusCode) {
		return resp, nil
	}
	rerr := newResponseError(res.StatusCode, data)
	if span != nil {
		span.RecordError(rerr)
		span.SetStatus(codes.Error, rerr.Error())
	}
	return nil, rerr
}

// exists performs a HEAD request, reporting a 404 as false.
func (c *Client) exists(ctx context.Context, ep *endpoint, path string, opts []Option) (bool, error) {
	opts = append(opts[:len(opts):len(opts)], WithIgnore(http.StatusNotFound))
	res, err := c.perform(ctx, ep, http.MethodHead, path, nil, opts)
	if err != nil {
		return false, err
	}
	return res.StatusCode >= 200 && res.StatusCode < 300, nil
}

// namespace is embedded by the namespaces that are also reachable under
// the legacy /_xpack prefix.
type namespace struct {
	c      *Client
	prefix string
}

func (ns namespace) path(parts ...any) string {
	p := makePath(parts...)
	if p == "/" {
		return "/" + ns.prefix
	}
	return "/" + ns.prefix + p
}

func (ns namespace) perform(ctx context.Context, ep *endpoint, method, path string, body any, opts []Option) (*Response, error) {
	return ns.c.perform(ctx, ep, method, path, body, opts)
}
