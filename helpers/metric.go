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
	"go.opentelemetry.io/otel/metric"

	"github.com/elastic/go-esclient/internal/telemetry"
)

const instrumentationScope = "github.com/elastic/go-esclient/helpers"

type metrics struct {
	bufferDuration metric.Float64Histogram
	flushDuration  metric.Float64Histogram

	bulkRequests           metric.Int64Counter
	docsAdded              metric.Int64Counter
	docsRetried            metric.Int64Counter
	docsIndexed            metric.Int64Counter
	bytesTotal             metric.Int64Counter
	bytesUncompressedTotal metric.Int64Counter
	blockedAdd             metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (metrics, error) {
	meter := telemetry.Meter(mp, instrumentationScope)
	var ms metrics
	histograms := []telemetry.Histogram{
		{
			Name:        "elasticsearch.buffer.latency",
			Description: "The amount of time a document was buffered for, in seconds.",
			Unit:        "s",
			P:           &ms.bufferDuration,
		},
		{
			Name:        "elasticsearch.flushed.latency",
			Description: "The amount of time a _bulk request took, in seconds.",
			Unit:        "s",
			P:           &ms.flushDuration,
		},
	}
	counters := []telemetry.Counter{
		{
			Name:        "elasticsearch.bulk_requests.count",
			Description: "The number of bulk requests completed.",
			P:           &ms.bulkRequests,
		},
		{
			Name:        "elasticsearch.events.count",
			Description: "The number of documents added to the appender.",
			P:           &ms.docsAdded,
		},
		{
			Name:        "elasticsearch.events.retried",
			Description: "The number of documents scheduled for another attempt.",
			P:           &ms.docsRetried,
		},
		{
			Name:        "elasticsearch.events.processed",
			Description: "The number of documents processed, by status.",
			P:           &ms.docsIndexed,
		},
		{
			Name:        "elasticsearch.flushed.bytes",
			Description: "The total number of bytes written to the request body.",
			Unit:        "by",
			P:           &ms.bytesTotal,
		},
		{
			Name:        "elasticsearch.flushed.uncompressed.bytes",
			Description: "The total number of uncompressed bytes written to the request body.",
			Unit:        "by",
			P:           &ms.bytesUncompressedTotal,
		},
		{
			Name:        "elasticsearch.add.blocked",
			Description: "The number of times Add blocked on a full queue.",
			P:           &ms.blockedAdd,
		},
	}
	if err := telemetry.Register(meter, histograms, counters); err != nil {
		return ms, err
	}
	return ms, nil
}
