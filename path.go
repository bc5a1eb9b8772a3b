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
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const upperhex = "0123456789ABCDEF"

// makePath joins the non-empty parts with "/", escaping each part. Slices
// are rendered as a single comma separated part.
func makePath(parts ...any) string {
	var b strings.Builder
	for _, p := range parts {
		if isEmpty(p) {
			continue
		}
		b.WriteByte('/')
		b.WriteString(escapePathSegment(escapeValue(p)))
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// escapePathSegment percent-encodes every byte of s except unreserved
// characters, ',' and '*'. Unlike url.PathEscape, reserved characters such
// as '/', ':' and '@' are always encoded.
func escapePathSegment(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !keepInPath(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepInPath(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func keepInPath(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '-', '~', ',', '*':
		return true
	}
	return false
}

// isEmpty reports whether v is skipped in paths and rejected for required
// arguments: nil, "", or an empty slice.
func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []byte:
		return len(v) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		return rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Map, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// escapeValue renders v the way Elasticsearch expects it in a path segment
// or query string value.
func escapeValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case time.Duration:
		return FormatDuration(v)
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = escapeValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return escapeValue(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// FormatDuration converts duration to a string in the format
// accepted by Elasticsearch.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return strconv.FormatInt(int64(d), 10) + "nanos"
	}
	return strconv.FormatInt(int64(d)/int64(time.Millisecond), 10) + "ms"
}

type arg struct {
	name  string
	value any
}

// requireArgs returns an *ArgumentError for the first empty argument.
func requireArgs(args ...arg) error {
	for _, a := range args {
		if isEmpty(a.value) {
			return &ArgumentError{Name: a.name}
		}
	}
	return nil
}
