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
	"errors"
	"fmt"
	"maps"
	"slices"

	jsoniter "github.com/json-iterator/go"

	"github.com/elastic/go-esclient"
)

// MultiSearch sends several searches in a single msearch request.
//
// MultiSearch is immutable, like Search.
type MultiSearch struct {
	index    []string
	using    using
	searches []Search
	params   esclient.Params
}

// NewMultiSearch returns an empty MultiSearch. Searches without indices
// of their own run against index.
func NewMultiSearch(index ...string) MultiSearch {
	return MultiSearch{index: slices.Clone(index)}
}

// Add returns a copy of ms with s appended.
func (ms MultiSearch) Add(s Search) MultiSearch {
	ms.searches = append(slices.Clone(ms.searches), s)
	return ms
}

// Using returns a copy of ms executed with the client registered under
// alias.
func (ms MultiSearch) Using(alias string) MultiSearch {
	ms.using = using{alias: alias}
	return ms
}

// UsingClient returns a copy of ms executed with client.
func (ms MultiSearch) UsingClient(client *esclient.Client) MultiSearch {
	ms.using = using{client: client}
	return ms
}

// Params returns a copy of ms sending params with the msearch request.
func (ms MultiSearch) Params(params esclient.Params) MultiSearch {
	merged := maps.Clone(ms.params)
	if merged == nil {
		merged = make(esclient.Params, len(params))
	}
	for k, v := range params {
		merged[k] = v
	}
	ms.params = merged
	return ms
}

// Len returns the number of searches.
func (ms MultiSearch) Len() int { return len(ms.searches) }

// Body returns the ndjson lines of the request: a header and a body per
// search.
func (ms MultiSearch) Body() []any {
	lines := make([]any, 0, 2*len(ms.searches))
	for _, s := range ms.searches {
		header := map[string]any{}
		if len(s.index) > 0 {
			header["index"] = s.index
		}
		for k, v := range s.params {
			header[k] = v
		}
		lines = append(lines, header, s.Map())
	}
	return lines
}

// MultiSearchError is returned for a search of a MultiSearch that failed.
type MultiSearchError struct {
	// Position holds the index of the failed search.
	Position int
	Status   int
	Type     string
	Reason   string
}

func (e *MultiSearchError) Error() string {
	return fmt.Sprintf("search %d failed with status %d: %s: %s", e.Position, e.Status, e.Type, e.Reason)
}

// Execute runs the searches. Responses are returned in the order the
// searches were added. If some searches failed their responses are nil
// and the returned error joins a *MultiSearchError per failure.
func (ms MultiSearch) Execute(ctx context.Context) ([]*Response, error) {
	if len(ms.searches) == 0 {
		return nil, nil
	}
	client, err := ms.using.get()
	if err != nil {
		return nil, err
	}
	var opts []esclient.Option
	if len(ms.params) > 0 {
		opts = append(opts, esclient.WithParams(ms.params))
	}
	resp, err := client.Msearch(ctx, ms.Body(), ms.index, opts...)
	if err != nil {
		return nil, err
	}
	var out struct {
		Responses []jsoniter.RawMessage `json:"responses"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Responses) != len(ms.searches) {
		return nil, fmt.Errorf("expected %d msearch responses, got %d", len(ms.searches), len(out.Responses))
	}
	results := make([]*Response, len(out.Responses))
	var errs []error
	for i, raw := range out.Responses {
		var failure struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		}
		if err := json.Unmarshal(raw, &failure); err != nil {
			return nil, fmt.Errorf("failed to decode msearch response %d: %w", i, err)
		}
		if failure.Error != nil {
			errs = append(errs, &MultiSearchError{
				Position: i,
				Status:   failure.Status,
				Type:     failure.Error.Type,
				Reason:   failure.Error.Reason,
			})
			continue
		}
		var r Response
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("failed to decode msearch response %d: %w", i, err)
		}
		results[i] = &r
	}
	return results, errors.Join(errs...)
}
