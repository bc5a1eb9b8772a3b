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

package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elastic/go-esclient/dsl"
)

func TestAggSource(t *testing.T) {
	tests := map[string]struct {
		agg      *dsl.Agg
		expected string
	}{
		"terms":     {dsl.TermsAgg("tags").Param("size", 10), `{"terms":{"field":"tags","size":10}}`},
		"histogram": {dsl.HistogramAgg("price", 50), `{"histogram":{"field":"price","interval":50}}`},
		"date_histogram": {
			dsl.DateHistogramAgg("@timestamp", "1d"),
			`{"date_histogram":{"field":"@timestamp","calendar_interval":"1d"}}`,
		},
		"range": {
			dsl.RangeAgg("price", map[string]any{"to": 100}, map[string]any{"from": 100}),
			`{"range":{"field":"price","ranges":[{"to":100},{"from":100}]}}`,
		},
		"filter": {dsl.FilterAgg(dsl.Term("type", "t-shirt")), `{"filter":{"term":{"type":"t-shirt"}}}`},
		"filters": {
			dsl.FiltersAgg(map[string]dsl.Query{"errors": dsl.Match("body", "error")}),
			`{"filters":{"filters":{"errors":{"match":{"body":"error"}}}}}`,
		},
		"nested":      {dsl.NestedAgg("resellers"), `{"nested":{"path":"resellers"}}`},
		"avg":         {dsl.AvgAgg("grade"), `{"avg":{"field":"grade"}}`},
		"sum":         {dsl.SumAgg("grade"), `{"sum":{"field":"grade"}}`},
		"min":         {dsl.MinAgg("grade"), `{"min":{"field":"grade"}}`},
		"max":         {dsl.MaxAgg("grade"), `{"max":{"field":"grade"}}`},
		"cardinality": {dsl.CardinalityAgg("user"), `{"cardinality":{"field":"user"}}`},
		"value_count": {dsl.ValueCountAgg("user"), `{"value_count":{"field":"user"}}`},
		"stats":       {dsl.StatsAgg("grade"), `{"stats":{"field":"grade"}}`},
		"percentiles": {
			dsl.PercentilesAgg("load_time", 95, 99),
			`{"percentiles":{"field":"load_time","percents":[95,99]}}`,
		},
		"top_hits": {dsl.TopHitsAgg(1), `{"top_hits":{"size":1}}`},
		"generic":  {dsl.A("geo_bounds", map[string]any{"field": "location"}), `{"geo_bounds":{"field":"location"}}`},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assertJSON(t, test.expected, test.agg.Source())
		})
	}
}

func TestAggNesting(t *testing.T) {
	a := dsl.TermsAgg("category")
	a.Bucket("per_day", dsl.DateHistogramAgg("@timestamp", "1d")).
		Metric("avg_price", dsl.AvgAgg("price")).
		Metric("max_price", dsl.MaxAgg("price"))

	assertJSON(t, `{
		"terms":{"field":"category"},
		"aggs":{"per_day":{
			"date_histogram":{"field":"@timestamp","calendar_interval":"1d"},
			"aggs":{
				"avg_price":{"avg":{"field":"price"}},
				"max_price":{"max":{"field":"price"}}
			}
		}}
	}`, a.Source())
	assert.Equal(t, "terms", a.Kind())
	assert.Len(t, a.Aggs(), 1)
}

func TestAggClone(t *testing.T) {
	a := dsl.TermsAgg("category")
	a.Bucket("per_day", dsl.DateHistogramAgg("@timestamp", "1d"))
	clone := a.Clone()
	clone.Aggs()["per_day"].Metric("avg", dsl.AvgAgg("price"))
	clone.Param("size", 5)

	assertJSON(t, `{
		"terms":{"field":"category"},
		"aggs":{"per_day":{"date_histogram":{"field":"@timestamp","calendar_interval":"1d"}}}
	}`, a.Source())
	assertJSON(t, `{
		"terms":{"field":"category","size":5},
		"aggs":{"per_day":{
			"date_histogram":{"field":"@timestamp","calendar_interval":"1d"},
			"aggs":{"avg":{"avg":{"field":"price"}}}
		}}
	}`, clone.Source())
}
