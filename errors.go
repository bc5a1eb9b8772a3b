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
	"net"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrEmptyArgument is matched by errors returned when a required
	// argument is nil, empty, or an empty collection.
	ErrEmptyArgument = errors.New("empty value passed for a required argument")

	// ErrUnknownParameter is returned when a query parameter is not in the
	// endpoint's allow-list.
	ErrUnknownParameter = errors.New("unknown query parameter")

	// ErrConflictingAuth is returned when both HTTP basic auth and an API
	// key are given for a single request.
	ErrConflictingAuth = errors.New("only one of http auth and api key may be passed at a time")

	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("authentication failed")
	ErrForbidden         = errors.New("authorization failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrTooManyRequests   = errors.New("too many requests")
	ErrConnectionTimeout = errors.New("connection timeout")
)

// ArgumentError reports a required argument that was left empty. No request
// is sent when it is returned.
type ArgumentError struct {
	Name string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("empty value passed for a required argument '%s'", e.Name)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrEmptyArgument
}

// ResponseError is returned for responses with a status code outside of
// the 2xx range that were not explicitly ignored.
type ResponseError struct {
	StatusCode int
	// Type holds error.type from the response body, if any.
	Type string
	// Reason holds the most specific reason found in the response body.
	Reason string
	Body   []byte
}

func newResponseError(statusCode int, body []byte) *ResponseError {
	e := &ResponseError{StatusCode: statusCode, Body: body}
	if len(body) == 0 {
		return e
	}
	iter := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowIterator(body)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnIterator(iter)
	iter.ReadObjectCB(func(iter *jsoniter.Iterator, field string) bool {
		if field != "error" {
			iter.Skip()
			return true
		}
		switch iter.WhatIsNext() {
		case jsoniter.StringValue:
			e.Reason = iter.ReadString()
		case jsoniter.ObjectValue:
			iter.ReadObjectCB(func(iter *jsoniter.Iterator, field string) bool {
				switch field {
				case "type":
					e.Type = iter.ReadString()
				case "reason":
					if e.Reason == "" {
						e.Reason = iter.ReadString()
					} else {
						iter.Skip()
					}
				case "root_cause":
					// The first root cause is more specific than the
					// top-level reason.
					var seen bool
					iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
						if seen {
							iter.Skip()
							return true
						}
						seen = true
						iter.ReadObjectCB(func(iter *jsoniter.Iterator, field string) bool {
							if field == "reason" {
								e.Reason = iter.ReadString()
							} else {
								iter.Skip()
							}
							return true
						})
						return true
					})
				default:
					iter.Skip()
				}
				return true
			})
		default:
			iter.Skip()
		}
		return true
	})
	return e
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("elasticsearch: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Type != "" {
		msg += ": " + e.Type
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrTooManyRequests:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// ConnectionError wraps failures to get any response from Elasticsearch.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("elasticsearch: connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool {
	if target != ErrConnectionTimeout {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// SerializationError is returned when a request body cannot be encoded or a
// response body cannot be decoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("elasticsearch: serialization error: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
