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
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/elastic/go-esclient/internal/telemetry"
)

const instrumentationScope = "github.com/elastic/go-esclient"

type metrics struct {
	requestDuration metric.Float64Histogram
	requests        metric.Int64Counter
	requestBytes    metric.Int64Counter
	responseBytes   metric.Int64Counter

	attrs attribute.Set
}

func newMetrics(cfg Config) (metrics, error) {
	meter := telemetry.Meter(cfg.MeterProvider, instrumentationScope)
	ms := metrics{attrs: cfg.MetricAttributes}
	histograms := []telemetry.Histogram{
		{
			Name:        "elasticsearch.client.request.duration",
			Description: "The amount of time a request took, in seconds.",
			Unit:        "s",
			P:           &ms.requestDuration,
		},
	}
	counters := []telemetry.Counter{
		{
			Name:        "elasticsearch.client.requests.count",
			Description: "The number of requests completed, by endpoint and outcome.",
			P:           &ms.requests,
		},
		{
			Name:        "elasticsearch.client.request.bytes",
			Description: "The total number of bytes written to request bodies.",
			Unit:        "by",
			P:           &ms.requestBytes,
		},
		{
			Name:        "elasticsearch.client.response.bytes",
			Description: "The total number of bytes read from response bodies.",
			Unit:        "by",
			P:           &ms.responseBytes,
		},
	}
	if err := telemetry.Register(meter, histograms, counters); err != nil {
		return ms, err
	}
	return ms, nil
}

// record reports a single completed request. statusCode is zero when no
// response was received.
func (m *metrics) record(ep *endpoint, statusCode int, took time.Duration, sent, received int64) {
	outcome := "success"
	switch {
	case statusCode == 0:
		outcome = "failed_transport"
	case statusCode >= 500:
		outcome = "failed_server"
	case statusCode >= 400:
		outcome = "failed_client"
	}
	kvs := []attribute.KeyValue{
		attribute.String("endpoint", ep.name),
		attribute.String("outcome", outcome),
	}
	if statusCode != 0 {
		kvs = append(kvs, semconv.HTTPResponseStatusCode(statusCode))
	}
	attrs := metric.WithAttributeSet(m.attrs)
	ctx := context.Background()
	m.requests.Add(ctx, 1, attrs, metric.WithAttributes(kvs...))
	m.requestDuration.Record(ctx, took.Seconds(), attrs, metric.WithAttributes(kvs[0]))
	if sent > 0 {
		m.requestBytes.Add(ctx, sent, attrs)
	}
	if received > 0 {
		m.responseBytes.Add(ctx, received, attrs)
	}
}
