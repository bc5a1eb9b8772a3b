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

import (
	"bytes"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/elastic/go-esclient"
)

// Response is a parsed search response.
type Response struct {
	Took     int64      `json:"took"`
	TimedOut bool       `json:"timed_out"`
	Shards   ShardStats `json:"_shards"`
	Hits     Hits       `json:"hits"`
	ScrollID string     `json:"_scroll_id,omitempty"`

	Aggregations map[string]jsoniter.RawMessage `json:"aggregations,omitempty"`
}

// ShardStats holds the number of shards a request ran on.
type ShardStats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Hits holds the matching documents.
type Hits struct {
	Total    Total    `json:"total"`
	MaxScore *float64 `json:"max_score"`
	Hits     []Hit    `json:"hits"`
}

// Total holds the number of matching documents. Relation is "gte" when
// Value is a lower bound.
type Total struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// UnmarshalJSON accepts both the object form and the plain number
// returned with rest_total_hits_as_int.
func (t *Total) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		if bytes.Equal(data, []byte("null")) {
			return nil
		}
		t.Relation = "eq"
		return json.Unmarshal(data, &t.Value)
	}
	type plain Total
	return json.Unmarshal(data, (*plain)(t))
}

// Hit is a single matching document.
type Hit struct {
	Index     string              `json:"_index"`
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    jsoniter.RawMessage `json:"_source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
	Sort      []any               `json:"sort,omitempty"`
}

// Decode decodes the document source into v.
func (h Hit) Decode(v any) error {
	if len(h.Source) == 0 {
		return fmt.Errorf("hit %s/%s has no _source", h.Index, h.ID)
	}
	return json.Unmarshal(h.Source, v)
}

// HitsAs decodes the source of every hit of r.
func HitsAs[T any](r *Response) ([]T, error) {
	out := make([]T, len(r.Hits.Hits))
	for i, h := range r.Hits.Hits {
		if err := h.Decode(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseResponse(resp *esclient.Response) (*Response, error) {
	var r Response
	if err := resp.Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Aggregation returns the result of the top level aggregation name.
func (r *Response) Aggregation(name string) (AggResult, error) {
	return lookupAgg(r.Aggregations, name)
}

func lookupAgg(aggs map[string]jsoniter.RawMessage, name string) (AggResult, error) {
	raw, ok := aggs[name]
	if !ok {
		return AggResult{}, fmt.Errorf("no aggregation named %q", name)
	}
	var body map[string]jsoniter.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return AggResult{}, fmt.Errorf("failed to decode aggregation %q: %w", name, err)
	}
	return AggResult{body: body}, nil
}

// AggResult holds the result of an aggregation: a metric value, buckets,
// or sub-aggregations for single bucket aggregations such as filter.
type AggResult struct {
	body map[string]jsoniter.RawMessage
}

// Value returns the value of a single value metric aggregation. ok is
// false if there is no value, for example the avg of no documents.
func (a AggResult) Value() (value float64, ok bool) {
	raw, found := a.body["value"]
	if !found || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	return value, true
}

// DocCount returns the doc_count of single bucket aggregations.
func (a AggResult) DocCount() int64 {
	var n int64
	if raw, ok := a.body["doc_count"]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	return n
}

// Decode decodes the whole aggregation result into v, for multi value
// aggregations such as stats or percentiles.
func (a AggResult) Decode(v any) error {
	data, err := json.Marshal(a.body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Aggregation returns the sub-aggregation name.
func (a AggResult) Aggregation(name string) (AggResult, error) {
	return lookupAgg(a.body, name)
}

// Buckets returns the buckets of a bucket aggregation. Keyed buckets are
// returned sorted by key.
func (a AggResult) Buckets() ([]Bucket, error) {
	raw, ok := a.body["buckets"]
	if !ok {
		return nil, nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var keyed map[string]map[string]jsoniter.RawMessage
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil, fmt.Errorf("failed to decode buckets: %w", err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Bucket, len(keys))
		for i, k := range keys {
			out[i] = newBucket(keyed[k])
			if out[i].Key == nil {
				out[i].Key = k
			}
		}
		return out, nil
	}
	var list []map[string]jsoniter.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode buckets: %w", err)
	}
	out := make([]Bucket, len(list))
	for i, b := range list {
		out[i] = newBucket(b)
	}
	return out, nil
}

// Bucket is a single bucket of a bucket aggregation. Its sub-aggregations
// are reached through the embedded AggResult.
type Bucket struct {
	AggResult
	Key         any
	KeyAsString string
	DocCount    int64
}

func newBucket(body map[string]jsoniter.RawMessage) Bucket {
	b := Bucket{AggResult: AggResult{body: body}}
	if raw, ok := body["key"]; ok {
		_ = json.Unmarshal(raw, &b.Key)
	}
	if raw, ok := body["key_as_string"]; ok {
		_ = json.Unmarshal(raw, &b.KeyAsString)
	}
	b.DocCount = b.AggResult.DocCount()
	return b
}
