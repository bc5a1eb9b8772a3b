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

package dsl

import "maps"

// Agg is an aggregation with optional named sub-aggregations.
//
// Bucket and Metric modify the receiver; use Clone to share a base
// aggregation.
type Agg struct {
	kind   string
	params map[string]any
	aggs   map[string]*Agg
}

// A returns an aggregation of the given kind rendering params as its
// body, such as A("terms", map[string]any{"field": "tags"}).
func A(kind string, params map[string]any) *Agg {
	return &Agg{kind: kind, params: maps.Clone(params)}
}

// Kind returns the aggregation type.
func (a *Agg) Kind() string { return a.kind }

// Param sets a parameter of the aggregation body and returns a.
func (a *Agg) Param(name string, value any) *Agg {
	if a.params == nil {
		a.params = make(map[string]any)
	}
	a.params[name] = value
	return a
}

// Bucket adds the sub-aggregation sub under name and returns sub, so that
// further aggregations nest below it.
func (a *Agg) Bucket(name string, sub *Agg) *Agg {
	a.add(name, sub)
	return sub
}

// Metric adds the sub-aggregation sub under name and returns a, so that
// further metrics are added next to it.
func (a *Agg) Metric(name string, sub *Agg) *Agg {
	a.add(name, sub)
	return a
}

func (a *Agg) add(name string, sub *Agg) {
	if a.aggs == nil {
		a.aggs = make(map[string]*Agg)
	}
	a.aggs[name] = sub
}

// Aggs returns the named sub-aggregations.
func (a *Agg) Aggs() map[string]*Agg { return maps.Clone(a.aggs) }

// Clone returns a deep copy of a.
func (a *Agg) Clone() *Agg {
	if a == nil {
		return nil
	}
	out := &Agg{kind: a.kind, params: maps.Clone(a.params)}
	if len(a.aggs) > 0 {
		out.aggs = make(map[string]*Agg, len(a.aggs))
		for name, sub := range a.aggs {
			out.aggs[name] = sub.Clone()
		}
	}
	return out
}

// Source renders a as {kind: params, "aggs": {...}}.
func (a *Agg) Source() map[string]any {
	body := make(map[string]any, len(a.params))
	for k, v := range a.params {
		body[k] = render(v)
	}
	out := map[string]any{a.kind: body}
	if len(a.aggs) > 0 {
		out["aggs"] = renderAggs(a.aggs)
	}
	return out
}

func renderAggs(aggs map[string]*Agg) map[string]any {
	out := make(map[string]any, len(aggs))
	for name, sub := range aggs {
		out[name] = sub.Source()
	}
	return out
}

// The aggregation constructors carry an Agg suffix to keep them apart
// from the queries of the same name.

// TermsAgg buckets documents by the values of field.
func TermsAgg(field string) *Agg { return A("terms", map[string]any{"field": field}) }

// HistogramAgg buckets numeric values of field in interval sized buckets.
func HistogramAgg(field string, interval float64) *Agg {
	return A("histogram", map[string]any{"field": field, "interval": interval})
}

// DateHistogramAgg buckets dates of field by a calendar interval such as
// "1d" or "month".
func DateHistogramAgg(field, calendarInterval string) *Agg {
	return A("date_histogram", map[string]any{"field": field, "calendar_interval": calendarInterval})
}

// RangeAgg buckets values of field into ranges, each a map with optional
// "from", "to" and "key" entries.
func RangeAgg(field string, ranges ...map[string]any) *Agg {
	rs := make([]any, len(ranges))
	for i, r := range ranges {
		rs[i] = maps.Clone(r)
	}
	return A("range", map[string]any{"field": field, "ranges": rs})
}

// FilterAgg restricts its sub-aggregations to documents matching q.
func FilterAgg(q Query) *Agg {
	return &Agg{kind: "filter", params: q.Source()}
}

// FiltersAgg creates one bucket per named filter.
func FiltersAgg(filters map[string]Query) *Agg {
	fs := make(map[string]any, len(filters))
	for name, q := range filters {
		fs[name] = q
	}
	return A("filters", map[string]any{"filters": fs})
}

// NestedAgg aggregates the nested objects at path.
func NestedAgg(path string) *Agg { return A("nested", map[string]any{"path": path}) }

func AvgAgg(field string) *Agg { return A("avg", map[string]any{"field": field}) }

func SumAgg(field string) *Agg { return A("sum", map[string]any{"field": field}) }

func MinAgg(field string) *Agg { return A("min", map[string]any{"field": field}) }

func MaxAgg(field string) *Agg { return A("max", map[string]any{"field": field}) }

// CardinalityAgg approximates the number of distinct values of field.
func CardinalityAgg(field string) *Agg { return A("cardinality", map[string]any{"field": field}) }

func ValueCountAgg(field string) *Agg { return A("value_count", map[string]any{"field": field}) }

func StatsAgg(field string) *Agg { return A("stats", map[string]any{"field": field}) }

// PercentilesAgg computes percentiles of field. Without percents the
// server defaults are used.
func PercentilesAgg(field string, percents ...float64) *Agg {
	a := A("percentiles", map[string]any{"field": field})
	if len(percents) > 0 {
		a.Param("percents", percents)
	}
	return a
}

// TopHitsAgg returns the size best matching documents per bucket.
func TopHitsAgg(size int) *Agg { return A("top_hits", map[string]any{"size": size}) }
