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
	"context"

	"go.elastic.co/apm/v2"
	"go.opentelemetry.io/otel/trace"
)

// traceLink identifies the caller's span a queued document was added in,
// so the flush span can link back to it.
type traceLink struct {
	TraceID [16]byte
	SpanID  [8]byte
}

func (l traceLink) apm() apm.SpanLink {
	return apm.SpanLink{Trace: l.TraceID, Span: l.SpanID}
}

func (l traceLink) otel() trace.Link {
	return trace.Link{SpanContext: trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: l.TraceID,
		SpanID:  l.SpanID,
	})}
}

// traceLinkFromContext returns the active OTel span of ctx, or else the
// active APM span or transaction. It returns nil if ctx carries neither.
func traceLinkFromContext(ctx context.Context) *traceLink {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() && sc.HasSpanID() {
		return &traceLink{TraceID: sc.TraceID(), SpanID: sc.SpanID()}
	}
	var tc apm.TraceContext
	if span := apm.SpanFromContext(ctx); span != nil {
		tc = span.TraceContext()
	} else if tx := apm.TransactionFromContext(ctx); tx != nil {
		tc = tx.TraceContext()
	} else {
		return nil
	}
	if err := tc.Trace.Validate(); err != nil {
		return nil
	}
	return &traceLink{TraceID: tc.Trace, SpanID: tc.Span}
}
