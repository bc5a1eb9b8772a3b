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
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResponseError(t *testing.T) {
	e := newResponseError(http.StatusNotFound, []byte(`{
		"error": {
			"root_cause": [
				{"type": "index_not_found_exception", "reason": "no such index [a]"},
				{"type": "other", "reason": "ignored"}
			],
			"type": "index_not_found_exception",
			"reason": "no such index [a] (top level)"
		},
		"status": 404
	}`))
	assert.Equal(t, "index_not_found_exception", e.Type)
	assert.Equal(t, "no such index [a]", e.Reason)
	assert.EqualError(t, e, "elasticsearch: 404 Not Found: index_not_found_exception: no such index [a]")
	assert.ErrorIs(t, e, ErrNotFound)
	assert.NotErrorIs(t, e, ErrConflict)

	e = newResponseError(http.StatusBadRequest, []byte(`{"error":"plain message"}`))
	assert.Equal(t, "plain message", e.Reason)
	assert.ErrorIs(t, e, ErrBadRequest)

	e = newResponseError(http.StatusTooManyRequests, []byte("not json"))
	assert.Empty(t, e.Reason)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", e), ErrTooManyRequests)
}

func TestConnectionError(t *testing.T) {
	err := &ConnectionError{Err: fmt.Errorf("dial: %w", context.DeadlineExceeded)}
	assert.ErrorIs(t, err, ErrConnectionTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = &ConnectionError{Err: errors.New("connection refused")}
	assert.NotErrorIs(t, err, ErrConnectionTimeout)
}
