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
	"context"
	"maps"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/elastic/go-esclient"
	"github.com/elastic/go-esclient/connections"
	"github.com/elastic/go-esclient/helpers"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SortOption is a single sort criterion.
type SortOption struct {
	field  string
	params map[string]any
}

// Sort sorts by field, descending if field starts with "-". The special
// fields "_score" and "_doc" are accepted too.
func Sort(field string) SortOption {
	if name, ok := strings.CutPrefix(field, "-"); ok {
		return SortOption{field: name, params: map[string]any{"order": "desc"}}
	}
	return SortOption{field: field}
}

// SortBy sorts by field with explicit parameters, such as
// {"order": "asc", "missing": "_last"}.
func SortBy(field string, params map[string]any) SortOption {
	return SortOption{field: field, params: maps.Clone(params)}
}

func (o SortOption) source() any {
	if len(o.params) == 0 {
		return o.field
	}
	return map[string]any{o.field: render(maps.Clone(o.params))}
}

// using resolves the client of a search or index, either given directly
// or looked up by alias in the default connection registry.
type using struct {
	alias  string
	client *esclient.Client
}

func (u using) get() (*esclient.Client, error) {
	if u.client != nil {
		return u.client, nil
	}
	return connections.Get(u.alias)
}

// Search builds a search request.
//
// Search is immutable: every method returns a modified copy, so a base
// search can be shared and refined safely.
type Search struct {
	index      []string
	using      using
	query      Query
	postFilter Query
	aggs       map[string]*Agg
	sort       []SortOption
	source     any
	from       *int
	size       *int
	highlight  map[string]any
	extra      map[string]any
	params     esclient.Params
}

// NewSearch returns a search over index. Without index all indices are
// searched.
func NewSearch(index ...string) Search {
	return Search{index: slices.Clone(index)}
}

func (s Search) clone() Search {
	s.index = slices.Clone(s.index)
	if s.aggs != nil {
		aggs := make(map[string]*Agg, len(s.aggs))
		for name, a := range s.aggs {
			aggs[name] = a.Clone()
		}
		s.aggs = aggs
	}
	s.sort = slices.Clone(s.sort)
	s.highlight = maps.Clone(s.highlight)
	s.extra = maps.Clone(s.extra)
	s.params = maps.Clone(s.params)
	return s
}

// Index returns a copy of s searching index in addition to the current
// indices. Calling Index without arguments resets the indices.
func (s Search) Index(index ...string) Search {
	s = s.clone()
	if len(index) == 0 {
		s.index = nil
		return s
	}
	s.index = append(s.index, index...)
	return s
}

// Indices returns the searched indices.
func (s Search) Indices() []string { return slices.Clone(s.index) }

// Using returns a copy of s executed with the client registered under
// alias in the default connection registry.
func (s Search) Using(alias string) Search {
	s = s.clone()
	s.using = using{alias: alias}
	return s
}

// UsingClient returns a copy of s executed with client.
func (s Search) UsingClient(client *esclient.Client) Search {
	s = s.clone()
	s.using = using{client: client}
	return s
}

// Query returns a copy of s with q combined with the current query
// using And.
func (s Search) Query(q Query) Search {
	s = s.clone()
	s.query = And(s.query, q)
	return s
}

// QueryMap is like Query but parses the query with Q.
func (s Search) QueryMap(m map[string]any) (Search, error) {
	q, err := Q(m)
	if err != nil {
		return s, err
	}
	return s.Query(q), nil
}

// GetQuery returns the current query, or nil.
func (s Search) GetQuery() Query { return s.query }

// Filter returns a copy of s restricted to documents matching all of
// queries, without affecting scores.
func (s Search) Filter(queries ...Query) Search {
	if len(queries) == 0 {
		return s
	}
	return s.Query(BoolQuery{Filter: slices.Clone(queries)})
}

// Exclude returns a copy of s without documents matching q.
func (s Search) Exclude(q Query) Search {
	return s.Query(BoolQuery{Filter: []Query{Not(q)}})
}

// PostFilter returns a copy of s with q combined with the current post
// filter, applied after aggregations are computed.
func (s Search) PostFilter(q Query) Search {
	s = s.clone()
	s.postFilter = And(s.postFilter, q)
	return s
}

// Agg returns a copy of s with the aggregation a added under name. The
// aggregation is copied, later changes to a do not affect s.
func (s Search) Agg(name string, a *Agg) Search {
	s = s.clone()
	if s.aggs == nil {
		s.aggs = make(map[string]*Agg)
	}
	s.aggs[name] = a.Clone()
	return s
}

// Sort returns a copy of s sorted by opts. Calling Sort without arguments
// resets the sort order.
func (s Search) Sort(opts ...SortOption) Search {
	s = s.clone()
	s.sort = slices.Clone(opts)
	return s
}

// Source returns a copy of s with the _source parameter set: false, a
// list of fields, or {"includes": [...], "excludes": [...]}.
func (s Search) Source(source any) Search {
	s = s.clone()
	s.source = source
	return s
}

// Slice returns a copy of s returning the hits in [start, stop).
func (s Search) Slice(start, stop int) Search {
	s = s.clone()
	size := max(stop-start, 0)
	s.from, s.size = &start, &size
	return s
}

// From returns a copy of s skipping the first n hits.
func (s Search) From(n int) Search {
	s = s.clone()
	s.from = &n
	return s
}

// Size returns a copy of s returning at most n hits.
func (s Search) Size(n int) Search {
	s = s.clone()
	s.size = &n
	return s
}

// Highlight returns a copy of s highlighting matches in fields.
func (s Search) Highlight(fields ...string) Search {
	s = s.clone()
	if s.highlight == nil {
		s.highlight = make(map[string]any)
	}
	hf, _ := s.highlight["fields"].(map[string]any)
	hf = maps.Clone(hf)
	if hf == nil {
		hf = make(map[string]any, len(fields))
	}
	for _, f := range fields {
		hf[f] = map[string]any{}
	}
	s.highlight["fields"] = hf
	return s
}

// HighlightOptions returns a copy of s with global highlight options set,
// such as "pre_tags".
func (s Search) HighlightOptions(opts map[string]any) Search {
	s = s.clone()
	if s.highlight == nil {
		s.highlight = make(map[string]any, len(opts))
	}
	for k, v := range opts {
		s.highlight[k] = v
	}
	return s
}

// Extra returns a copy of s with top level body keys set, such as
// "track_total_hits" or "search_after". Extra keys take precedence over
// the generated ones.
func (s Search) Extra(extra map[string]any) Search {
	s = s.clone()
	if s.extra == nil {
		s.extra = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		s.extra[k] = v
	}
	return s
}

// Params returns a copy of s sending params as query string parameters.
func (s Search) Params(params esclient.Params) Search {
	s = s.clone()
	if s.params == nil {
		s.params = make(esclient.Params, len(params))
	}
	for k, v := range params {
		s.params[k] = v
	}
	return s
}

// Map returns the request body.
func (s Search) Map() map[string]any {
	body := make(map[string]any)
	if s.query != nil {
		body["query"] = s.query.Source()
	}
	if s.postFilter != nil {
		body["post_filter"] = s.postFilter.Source()
	}
	if len(s.aggs) > 0 {
		body["aggs"] = renderAggs(s.aggs)
	}
	if len(s.sort) > 0 {
		sort := make([]any, len(s.sort))
		for i, o := range s.sort {
			sort[i] = o.source()
		}
		body["sort"] = sort
	}
	if s.source != nil {
		body["_source"] = s.source
	}
	if s.from != nil {
		body["from"] = *s.from
	}
	if s.size != nil {
		body["size"] = *s.size
	}
	if len(s.highlight) > 0 {
		body["highlight"] = render(s.highlight)
	}
	for k, v := range s.extra {
		body[k] = render(v)
	}
	return body
}

// MarshalJSON encodes the request body.
func (s Search) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

func (s Search) options() []esclient.Option {
	if len(s.params) == 0 {
		return nil
	}
	return []esclient.Option{esclient.WithParams(s.params)}
}

// Execute sends the search and parses the response.
func (s Search) Execute(ctx context.Context) (*Response, error) {
	client, err := s.using.get()
	if err != nil {
		return nil, err
	}
	resp, err := client.Search(ctx, s.index, s.Map(), s.options()...)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

// Count returns the number of documents matching the query.
func (s Search) Count(ctx context.Context) (int64, error) {
	client, err := s.using.get()
	if err != nil {
		return 0, err
	}
	var body any
	if s.query != nil {
		body = map[string]any{"query": s.query.Source()}
	}
	resp, err := client.Count(ctx, s.index, body)
	if err != nil {
		return 0, err
	}
	var out struct {
		Count int64 `json:"count"`
	}
	if err := resp.Decode(&out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Delete deletes the documents matching the query with the delete by
// query API. Without a query every document is deleted.
func (s Search) Delete(ctx context.Context) (*esclient.Response, error) {
	client, err := s.using.get()
	if err != nil {
		return nil, err
	}
	q := s.query
	if q == nil {
		q = MatchAll()
	}
	return client.DeleteByQuery(ctx, s.index, map[string]any{"query": q.Source()}, s.options()...)
}

// Scan iterates over every hit of the search with the scroll API,
// ignoring from, size and, unless preserveOrder is set, sort.
func (s Search) Scan(ctx context.Context, preserveOrder bool) (*helpers.Scanner, error) {
	client, err := s.using.get()
	if err != nil {
		return nil, err
	}
	body := s.Map()
	delete(body, "from")
	delete(body, "size")
	return helpers.Scan(ctx, client, helpers.ScanConfig{
		Index:         s.index,
		Query:         body,
		PreserveOrder: preserveOrder,
		Options:       s.options(),
	}), nil
}
