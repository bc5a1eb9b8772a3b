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
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"time"
)

// Params holds query string parameters for a single request. Keys must be
// recognized by the endpoint being called, or be one of the global
// parameters: pretty, human, error_trace, format and filter_path.
//
// The keys "request_timeout" and "ignore" are not sent to Elasticsearch;
// they set the request timeout and the list of ignored status codes.
type Params map[string]any

var globalParams = []string{"pretty", "human", "error_trace", "format", "filter_path"}

// endpoint describes a single REST API operation and its allow-list of
// query string parameters.
type endpoint struct {
	name   string
	params map[string]struct{}
	// ndjson is set for endpoints taking newline delimited JSON bodies.
	ndjson bool
}

func newEndpoint(name string, params ...string) *endpoint {
	e := &endpoint{
		name:   name,
		params: make(map[string]struct{}, len(params)+len(globalParams)),
	}
	for _, p := range globalParams {
		e.params[p] = struct{}{}
	}
	for _, p := range params {
		e.params[p] = struct{}{}
	}
	return e
}

func newBulkEndpoint(name string, params ...string) *endpoint {
	e := newEndpoint(name, params...)
	e.ndjson = true
	return e
}

func (e *endpoint) allows(name string) bool {
	_, ok := e.params[name]
	return ok
}

// Option configures a single request.
type Option func(*requestOptions)

type requestOptions struct {
	params   Params
	header   http.Header
	timeout  time.Duration
	ignore   []int
	username string
	password string
	basic    bool
	apiKey   string
}

// WithParams adds all of p to the request query parameters.
func WithParams(p Params) Option {
	return func(o *requestOptions) {
		for k, v := range p {
			o.params[k] = v
		}
	}
}

// WithParam sets a single query parameter.
func WithParam(name string, value any) Option {
	return func(o *requestOptions) {
		o.params[name] = value
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) Option {
	return func(o *requestOptions) {
		o.header.Set(key, value)
	}
}

// WithOpaqueID sets the X-Opaque-Id header, which Elasticsearch echoes in
// task listings and slow logs.
func WithOpaqueID(id string) Option {
	return WithHeader("X-Opaque-Id", id)
}

// WithHTTPAuth authenticates the request with HTTP basic auth.
func WithHTTPAuth(username, password string) Option {
	return func(o *requestOptions) {
		o.username, o.password, o.basic = username, password, true
	}
}

// WithAPIKey authenticates the request with an encoded API key.
func WithAPIKey(encoded string) Option {
	return func(o *requestOptions) {
		o.apiKey = encoded
	}
}

// WithAPIKeyPair authenticates the request with an API key id and secret.
func WithAPIKeyPair(id, key string) Option {
	return WithAPIKey(base64.StdEncoding.EncodeToString([]byte(id + ":" + key)))
}

// WithRequestTimeout bounds the duration of the request.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *requestOptions) {
		o.timeout = d
	}
}

// WithIgnore returns responses with the given status codes instead of
// errors.
func WithIgnore(statusCodes ...int) Option {
	return func(o *requestOptions) {
		o.ignore = append(o.ignore, statusCodes...)
	}
}

// resolvedRequest holds the outcome of applying options against an
// endpoint's allow-list.
type resolvedRequest struct {
	query   url.Values
	header  http.Header
	timeout time.Duration
	ignore  []int
}

func (e *endpoint) resolve(opts []Option) (resolvedRequest, error) {
	o := requestOptions{
		params: make(Params),
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(&o)
	}
	r := resolvedRequest{
		query:   make(url.Values, len(o.params)),
		header:  o.header,
		timeout: o.timeout,
		ignore:  o.ignore,
	}
	for k, v := range o.params {
		if v == nil {
			continue
		}
		switch k {
		case "request_timeout":
			d, err := parseTimeout(v)
			if err != nil {
				return r, err
			}
			r.timeout = d
			continue
		case "ignore":
			codes, err := parseIgnore(v)
			if err != nil {
				return r, err
			}
			r.ignore = append(r.ignore, codes...)
			continue
		}
		if !e.allows(k) {
			return r, fmt.Errorf("%w %q for %s", ErrUnknownParameter, k, e.name)
		}
		r.query.Set(k, escapeValue(v))
	}
	switch {
	case o.basic && o.apiKey != "":
		return r, ErrConflictingAuth
	case o.basic:
		creds := base64.StdEncoding.EncodeToString([]byte(o.username + ":" + o.password))
		r.header.Set("Authorization", "Basic "+creds)
	case o.apiKey != "":
		r.header.Set("Authorization", "ApiKey "+o.apiKey)
	}
	return r, nil
}

// parseTimeout accepts a time.Duration or a number of seconds.
func parseTimeout(v any) (time.Duration, error) {
	if d, ok := v.(time.Duration); ok {
		return d, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(rv.Int()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(rv.Float() * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("invalid request_timeout %v: expected a duration or seconds", v)
}

func parseIgnore(v any) ([]int, error) {
	switch v := v.(type) {
	case int:
		return []int{v}, nil
	case []int:
		return v, nil
	}
	return nil, fmt.Errorf("invalid ignore %v: expected a status code or a list of them", v)
}
