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
	"slices"
	"strconv"
)

// BoolQuery combines clauses. An empty BoolQuery matches every document.
//
// MinimumShouldMatch holds nil, an int, or a string such as "2" or "75%".
type BoolQuery struct {
	Must               []Query
	Should             []Query
	MustNot            []Query
	Filter             []Query
	MinimumShouldMatch any
	Boost              float64
}

func (BoolQuery) Name() string { return "bool" }

func (q BoolQuery) Source() map[string]any {
	body := map[string]any{}
	for _, clause := range []struct {
		name    string
		queries []Query
	}{
		{"must", q.Must},
		{"should", q.Should},
		{"must_not", q.MustNot},
		{"filter", q.Filter},
	} {
		if len(clause.queries) > 0 {
			body[clause.name] = render(clause.queries)
		}
	}
	if q.MinimumShouldMatch != nil {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	if q.Boost != 0 {
		body["boost"] = q.Boost
	}
	return map[string]any{"bool": body}
}

func (q BoolQuery) clone() BoolQuery {
	q.Must = slices.Clone(q.Must)
	q.Should = slices.Clone(q.Should)
	q.MustNot = slices.Clone(q.MustNot)
	q.Filter = slices.Clone(q.Filter)
	return q
}

func (q BoolQuery) empty() bool {
	return len(q.Must) == 0 && len(q.Should) == 0 && len(q.MustNot) == 0 && len(q.Filter) == 0
}

// onlyShould reports whether q holds nothing but optional clauses.
func (q BoolQuery) onlyShould() bool {
	return len(q.Must) == 0 && len(q.MustNot) == 0 && len(q.Filter) == 0 && q.MinimumShouldMatch == nil
}

// minShouldMatch returns the number of should clauses that must match.
func (q BoolQuery) minShouldMatch() int {
	switch v := q.MinimumShouldMatch.(type) {
	case nil:
		if len(q.Should) == 0 || len(q.Must) > 0 || len(q.Filter) > 0 {
			return 0
		}
		return 1
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	// Percentages and combinations require at least one clause.
	return 1
}

// Merge combines the clauses of a and b without rewriting them.
func Merge(a, b BoolQuery) BoolQuery {
	q := a.clone()
	q.Must = append(q.Must, b.Must...)
	q.Should = append(q.Should, b.Should...)
	q.MustNot = append(q.MustNot, b.MustNot...)
	q.Filter = append(q.Filter, b.Filter...)
	return q
}

// And returns a query matching documents matched by all of queries.
//
// MatchAll is dropped and MatchNone absorbs everything. Bool queries are
// merged, keeping their minimum_should_match semantics. A nil query is
// ignored.
func And(queries ...Query) Query {
	var result Query
	for _, q := range queries {
		switch {
		case q == nil:
			continue
		case result == nil:
			result = q
		default:
			result = and(result, q)
		}
	}
	return result
}

func and(a, b Query) Query {
	switch a := a.(type) {
	case MatchAllQuery:
		return b
	case MatchNoneQuery:
		return a
	case BoolQuery:
		return andBool(a, b)
	}
	switch b := b.(type) {
	case MatchAllQuery:
		return a
	case MatchNoneQuery:
		return b
	case BoolQuery:
		return andBool(b, a)
	}
	return BoolQuery{Must: []Query{a, b}}
}

func andBool(a BoolQuery, other Query) Query {
	q := a.clone()
	b, ok := other.(BoolQuery)
	if !ok {
		if len(q.Must) == 0 && len(q.Filter) == 0 && len(q.Should) > 0 && q.MinimumShouldMatch == nil {
			q.MinimumShouldMatch = 1
		}
		q.Must = append(q.Must, other)
		return q
	}
	q.Must = append(q.Must, b.Must...)
	q.MustNot = append(q.MustNot, b.MustNot...)
	q.Filter = append(q.Filter, b.Filter...)
	q.Should = nil
	// Recomputed from both operands below.
	q.MinimumShouldMatch = nil
	for _, x := range []BoolQuery{a, b} {
		msm := x.minShouldMatch()
		switch {
		case len(x.Should) <= msm:
			// All clauses are required.
			q.Must = append(q.Must, x.Should...)
		case len(q.Should) == 0:
			q.MinimumShouldMatch = msm
			q.Should = slices.Clone(x.Should)
		case q.minShouldMatch() == 0 && msm == 0:
			q.Should = append(q.Should, x.Should...)
		default:
			q.Must = append(q.Must, BoolQuery{
				Should:             slices.Clone(x.Should),
				MinimumShouldMatch: msm,
			})
		}
	}
	return q
}

// Or returns a query matching documents matched by any of queries.
//
// MatchNone is dropped and MatchAll absorbs everything. Bool queries with
// only should clauses are flattened. A nil query is ignored.
func Or(queries ...Query) Query {
	var result Query
	for _, q := range queries {
		switch {
		case q == nil:
			continue
		case result == nil:
			result = q
		default:
			result = or(result, q)
		}
	}
	return result
}

func or(a, b Query) Query {
	switch a := a.(type) {
	case MatchAllQuery:
		return a
	case MatchNoneQuery:
		return b
	case BoolQuery:
		return orBool(a, b)
	}
	switch b := b.(type) {
	case MatchAllQuery:
		return b
	case MatchNoneQuery:
		return a
	case BoolQuery:
		return orBool(b, a)
	}
	return BoolQuery{Should: []Query{a, b}}
}

// orBool combines a with other, where a is the left operand when it is
// the only Bool.
func orBool(a BoolQuery, other Query) Query {
	b, otherBool := other.(BoolQuery)
	if a.onlyShould() {
		q := a.clone()
		if otherBool && b.onlyShould() {
			q.Should = append(q.Should, b.Should...)
		} else {
			q.Should = append(q.Should, other)
		}
		return q
	}
	if otherBool && b.onlyShould() {
		q := b.clone()
		q.Should = append(q.Should, a)
		return q
	}
	return BoolQuery{Should: []Query{a, other}}
}

// Not returns a query matching the documents q does not match.
func Not(q Query) Query {
	switch q := q.(type) {
	case MatchAllQuery:
		return MatchNone()
	case MatchNoneQuery:
		return MatchAll()
	case BoolQuery:
		return notBool(q)
	}
	return BoolQuery{MustNot: []Query{q}}
}

func notBool(q BoolQuery) Query {
	// An empty Bool matches everything.
	if q.empty() {
		return MatchNone()
	}
	var negations []Query
	for _, x := range q.Must {
		negations = append(negations, Not(x))
	}
	for _, x := range q.Filter {
		negations = append(negations, Not(x))
	}
	negations = append(negations, q.MustNot...)
	if len(q.Should) > 0 && q.minShouldMatch() > 0 {
		negations = append(negations, BoolQuery{MustNot: slices.Clone(q.Should)})
	}
	if len(negations) == 1 {
		return negations[0]
	}
	return BoolQuery{Should: negations}
}
