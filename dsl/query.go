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

// Query is a single Query DSL clause.
type Query interface {
	// Name returns the query type, such as "match" or "bool".
	Name() string
	// Source returns the clause as {name: body}.
	Source() map[string]any
}

// MatchAllQuery matches every document. It is the identity of And.
type MatchAllQuery struct {
	Boost float64
}

// MatchAll returns a match_all query.
func MatchAll() MatchAllQuery { return MatchAllQuery{} }

func (MatchAllQuery) Name() string { return "match_all" }

func (q MatchAllQuery) Source() map[string]any {
	body := map[string]any{}
	if q.Boost != 0 {
		body["boost"] = q.Boost
	}
	return map[string]any{"match_all": body}
}

// MatchNoneQuery matches no document. It is the identity of Or.
type MatchNoneQuery struct{}

// MatchNone returns a match_none query.
func MatchNone() MatchNoneQuery { return MatchNoneQuery{} }

func (MatchNoneQuery) Name() string { return "match_none" }

func (MatchNoneQuery) Source() map[string]any {
	return map[string]any{"match_none": map[string]any{}}
}

// valueKeys holds the key of the main value of field queries written in
// their long form.
var valueKeys = map[string]string{
	"match":               "query",
	"match_phrase":        "query",
	"match_phrase_prefix": "query",
	"match_bool_prefix":   "query",
	"term":                "value",
	"prefix":              "value",
	"wildcard":            "value",
	"regexp":              "value",
	"fuzzy":               "value",
}

// FieldQuery is a query on a single field. Without parameters it renders
// in the short form {name: {field: value}}, otherwise in the long form
// {name: {field: {"query"|"value": value, params...}}}.
//
// FieldQuery is immutable; Param and Boost return modified copies.
type FieldQuery struct {
	name   string
	field  string
	value  any
	params map[string]any
}

func newFieldQuery(name, field string, value any) FieldQuery {
	return FieldQuery{name: name, field: field, value: value}
}

// Match returns a full text match query.
func Match(field string, query any) FieldQuery { return newFieldQuery("match", field, query) }

// MatchPhrase returns a match_phrase query.
func MatchPhrase(field string, query any) FieldQuery {
	return newFieldQuery("match_phrase", field, query)
}

// MatchPhrasePrefix returns a match_phrase_prefix query.
func MatchPhrasePrefix(field string, query any) FieldQuery {
	return newFieldQuery("match_phrase_prefix", field, query)
}

// Term returns an exact term query.
func Term(field string, value any) FieldQuery { return newFieldQuery("term", field, value) }

func Prefix(field string, value any) FieldQuery { return newFieldQuery("prefix", field, value) }

func Wildcard(field string, value any) FieldQuery { return newFieldQuery("wildcard", field, value) }

func Regexp(field string, value any) FieldQuery { return newFieldQuery("regexp", field, value) }

func Fuzzy(field string, value any) FieldQuery { return newFieldQuery("fuzzy", field, value) }

func (q FieldQuery) Name() string { return q.name }

// Field returns the queried field.
func (q FieldQuery) Field() string { return q.field }

// Value returns the queried value.
func (q FieldQuery) Value() any { return q.value }

// Param returns a copy of q with the parameter set, such as "operator"
// for match queries.
func (q FieldQuery) Param(name string, value any) FieldQuery {
	q.params = maps.Clone(q.params)
	if q.params == nil {
		q.params = make(map[string]any, 1)
	}
	q.params[name] = value
	return q
}

// Boost returns a copy of q with the boost parameter set.
func (q FieldQuery) Boost(boost float64) FieldQuery { return q.Param("boost", boost) }

func (q FieldQuery) Source() map[string]any {
	if len(q.params) == 0 {
		return map[string]any{q.name: map[string]any{q.field: render(q.value)}}
	}
	body := make(map[string]any, len(q.params)+1)
	for k, v := range q.params {
		body[k] = render(v)
	}
	key, ok := valueKeys[q.name]
	if !ok {
		key = "query"
	}
	body[key] = render(q.value)
	return map[string]any{q.name: map[string]any{q.field: body}}
}

// RawQuery is a query of any type with its body given as parameters.
//
// RawQuery is immutable; Param returns a modified copy.
type RawQuery struct {
	name   string
	params map[string]any
}

// Raw returns a query rendering as {name: params}. Query values nested in
// params are rendered too.
func Raw(name string, params map[string]any) RawQuery {
	return RawQuery{name: name, params: maps.Clone(params)}
}

func (q RawQuery) Name() string { return q.name }

// Param returns a copy of q with the top level parameter set.
func (q RawQuery) Param(name string, value any) RawQuery {
	q.params = maps.Clone(q.params)
	if q.params == nil {
		q.params = make(map[string]any, 1)
	}
	q.params[name] = value
	return q
}

// Params returns a copy of the query parameters.
func (q RawQuery) Params() map[string]any { return maps.Clone(q.params) }

func (q RawQuery) Source() map[string]any {
	body := make(map[string]any, len(q.params))
	for k, v := range q.params {
		body[k] = render(v)
	}
	return map[string]any{q.name: body}
}

// Terms matches documents whose field contains any of values.
func Terms(field string, values ...any) RawQuery {
	return Raw("terms", map[string]any{field: values})
}

// Range matches documents whose field is within the bounds of cond, for
// example {"gte": 10, "lt": 20}.
func Range(field string, cond map[string]any) RawQuery {
	return Raw("range", map[string]any{field: maps.Clone(cond)})
}

// Exists matches documents with a value for field.
func Exists(field string) RawQuery {
	return Raw("exists", map[string]any{"field": field})
}

// IDs matches documents by id.
func IDs(ids ...string) RawQuery {
	return Raw("ids", map[string]any{"values": ids})
}

// MultiMatch runs a match query on several fields.
func MultiMatch(query any, fields ...string) RawQuery {
	return Raw("multi_match", map[string]any{"query": query, "fields": fields})
}

// QueryString parses query with the Lucene query syntax.
func QueryString(query string) RawQuery {
	return Raw("query_string", map[string]any{"query": query})
}

// SimpleQueryString parses query with the simple query syntax.
func SimpleQueryString(query string) RawQuery {
	return Raw("simple_query_string", map[string]any{"query": query})
}

// ConstantScore wraps filter, giving every match the same score.
func ConstantScore(filter Query, boost float64) RawQuery {
	params := map[string]any{"filter": filter}
	if boost != 0 {
		params["boost"] = boost
	}
	return Raw("constant_score", params)
}

// DisMax returns documents matching any of queries, scored by the best
// matching one.
func DisMax(queries ...Query) RawQuery {
	return Raw("dis_max", map[string]any{"queries": queries})
}

// Boosting demotes documents matching negative by negativeBoost.
func Boosting(positive, negative Query, negativeBoost float64) RawQuery {
	return Raw("boosting", map[string]any{
		"positive":       positive,
		"negative":       negative,
		"negative_boost": negativeBoost,
	})
}

// Nested runs query on the nested objects at path.
func Nested(path string, query Query) RawQuery {
	return Raw("nested", map[string]any{"path": path, "query": query})
}

// render converts queries and aggregations nested in v to maps.
func render(v any) any {
	switch v := v.(type) {
	case Query:
		return v.Source()
	case []Query:
		out := make([]any, len(v))
		for i, q := range v {
			out[i] = q.Source()
		}
		return out
	case *Agg:
		return v.Source()
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = render(x)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = render(x)
		}
		return out
	}
	return v
}
