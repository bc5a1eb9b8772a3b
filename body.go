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
	"bytes"
	"fmt"
	"io"
	"reflect"
)

// encodeBody returns the encoded request body, or nil if there is none.
//
// For ndjson endpoints strings, byte slices and readers are sent as-is with
// a trailing newline added if missing, and slices are serialized item by
// item, one per line. Other readers are sent unchanged.
func encodeBody(s Serializer, body any, ndjson bool) (io.Reader, int, error) {
	switch b := body.(type) {
	case nil:
		return nil, 0, nil
	case io.Reader:
		if ndjson {
			return &newlineReader{r: b}, -1, nil
		}
		return b, -1, nil
	}
	var data []byte
	var err error
	if ndjson {
		data, err = bulkBody(s, body)
	} else {
		data, err = s.Dumps(body)
	}
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), len(data), nil
}

// bulkBody renders body as newline delimited JSON terminated by a newline.
func bulkBody(s Serializer, body any) ([]byte, error) {
	var data []byte
	switch b := body.(type) {
	case string:
		data = []byte(b)
	case []byte:
		// Full slice expression so appending never writes to the caller's
		// backing array.
		data = b[:len(b):len(b)]
	default:
		rv := reflect.ValueOf(body)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, &SerializationError{
				Err: fmt.Errorf("bulk body must be a string, bytes, a reader or a slice, got %T", body),
			}
		}
		var buf bytes.Buffer
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteByte('\n')
			}
			line, err := s.Dumps(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			buf.Write(line)
		}
		data = buf.Bytes()
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data, nil
}

// newlineReader reads r, followed by a newline if r does not end with one.
type newlineReader struct {
	r    io.Reader
	last byte
	eof  bool
}

func (nr *newlineReader) Read(p []byte) (int, error) {
	if nr.eof {
		if nr.last == '\n' {
			return 0, io.EOF
		}
		if len(p) == 0 {
			return 0, nil
		}
		p[0], nr.last = '\n', '\n'
		return 1, nil
	}
	n, err := nr.r.Read(p)
	if n > 0 {
		nr.last = p[n-1]
	}
	if err == io.EOF {
		nr.eof = true
		err = nil
	}
	return n, err
}
