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

package esclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakePath(t *testing.T) {
	for name, tc := range map[string]struct {
		parts    []any
		expected string
	}{
		"unicode": {
			parts:    []any{"some-index", "type", "中文"},
			expected: "/some-index/type/%E4%B8%AD%E6%96%87",
		},
		"skipped": {
			parts:    []any{"", "_search", nil, []string{}},
			expected: "/_search",
		},
		"list": {
			parts:    []any{[]string{"a", "b*"}, "_doc", "1"},
			expected: "/a,b*/_doc/1",
		},
		"reserved": {
			parts:    []any{"my/index", "id:1@x y"},
			expected: "/my%2Findex/id%3A1%40x%20y",
		},
		"empty": {
			expected: "/",
		},
		"numbers": {
			parts:    []any{"_snapshot", 42, int64(-7)},
			expected: "/_snapshot/42/-7",
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, makePath(tc.parts...))
		})
	}
}

func TestEscapeValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC)
	assert.Equal(t, "true", escapeValue(true))
	assert.Equal(t, "a,b", escapeValue([]string{"a", "b"}))
	assert.Equal(t, "1,2", escapeValue([]int{1, 2}))
	assert.Equal(t, "2024-01-02T03:04:05.0000006Z", escapeValue(ts))
	assert.Equal(t, "1500ms", escapeValue(1500*time.Millisecond))
	assert.Equal(t, "100nanos", escapeValue(100*time.Nanosecond))
	assert.Equal(t, "0.5", escapeValue(0.5))
	assert.Equal(t, "bytes", escapeValue([]byte("bytes")))
	n := 3
	assert.Equal(t, "3", escapeValue(&n))
}

func TestRequireArgs(t *testing.T) {
	require.NoError(t, requireArgs(arg{"index", "a"}, arg{"body", map[string]any{}}))

	for _, empty := range []any{nil, "", []string{}, []any{}} {
		err := requireArgs(arg{"index", "a"}, arg{"body", empty})
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, "body", argErr.Name)
		assert.ErrorIs(t, err, ErrEmptyArgument)
		assert.EqualError(t, err, "empty value passed for a required argument 'body'")
	}
}
