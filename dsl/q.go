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
	"errors"
	"fmt"
	"sort"
)

// Q parses a query written as a JSON-shaped map, such as
// {"match": {"title": "go"}}, into a typed Query. The map must hold
// exactly one key naming the query type.
//
// Bool clauses are parsed recursively. Queries without a typed
// representation are returned as RawQuery.
func Q(m map[string]any) (Query, error) {
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("query must have exactly one key, got %q", keys)
	}
	for name, body := range m {
		return parseQuery(name, body)
	}
	panic("unreachable")
}

// MustQ is like Q but panics if m cannot be parsed.
func MustQ(m map[string]any) Query {
	q, err := Q(m)
	if err != nil {
		panic(err)
	}
	return q
}

func parseQuery(name string, body any) (Query, error) {
	params, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s query body must be an object, got %T", name, body)
	}
	switch name {
	case "match_all":
		q := MatchAll()
		if boost, ok := toFloat(params["boost"]); ok {
			q.Boost = boost
		}
		return q, nil
	case "match_none":
		return MatchNone(), nil
	case "bool":
		return parseBool(params)
	}
	if _, ok := valueKeys[name]; ok && len(params) == 1 {
		return parseFieldQuery(name, params)
	}
	return Raw(name, params), nil
}

func parseFieldQuery(name string, params map[string]any) (Query, error) {
	for field, v := range params {
		long, ok := v.(map[string]any)
		if !ok {
			return newFieldQuery(name, field, v), nil
		}
		value, ok := long[valueKeys[name]]
		if !ok {
			// Not a field query after all, for example a term query on
			// an object value.
			return Raw(name, params), nil
		}
		q := newFieldQuery(name, field, value)
		for k, x := range long {
			if k != valueKeys[name] {
				q = q.Param(k, x)
			}
		}
		return q, nil
	}
	return Raw(name, params), nil
}

func parseBool(params map[string]any) (Query, error) {
	var q BoolQuery
	for k, v := range params {
		var clauses *[]Query
		switch k {
		case "must":
			clauses = &q.Must
		case "should":
			clauses = &q.Should
		case "must_not":
			clauses = &q.MustNot
		case "filter":
			clauses = &q.Filter
		case "minimum_should_match":
			if f, ok := v.(float64); ok && f == float64(int(f)) {
				v = int(f)
			}
			q.MinimumShouldMatch = v
			continue
		case "boost":
			boost, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("invalid bool boost %v", v)
			}
			q.Boost = boost
			continue
		default:
			return nil, fmt.Errorf("unknown bool parameter %q", k)
		}
		parsed, err := parseClauses(v)
		if err != nil {
			return nil, fmt.Errorf("bool %s: %w", k, err)
		}
		*clauses = parsed
	}
	return q, nil
}

// parseClauses accepts a single query or a list of queries.
func parseClauses(v any) ([]Query, error) {
	switch v := v.(type) {
	case map[string]any:
		q, err := Q(v)
		if err != nil {
			return nil, err
		}
		return []Query{q}, nil
	case []any:
		out := make([]Query, 0, len(v))
		for _, x := range v {
			m, ok := x.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("clause must be an object, got %T", x)
			}
			q, err := Q(m)
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		}
		return out, nil
	case []map[string]any:
		out := make([]Query, 0, len(v))
		for _, m := range v {
			q, err := Q(m)
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		}
		return out, nil
	case Query:
		return []Query{v}, nil
	case []Query:
		return v, nil
	}
	return nil, errors.New("clauses must be an object or a list of objects")
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
