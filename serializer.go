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
	jsoniter "github.com/json-iterator/go"
)

// Serializer encodes request bodies and decodes response bodies.
type Serializer interface {
	Dumps(v any) ([]byte, error)
	Loads(data []byte, v any) error
	MimeType() string
}

// JSONSerializer is the default Serializer. Strings and byte slices are
// assumed to be encoded already and are returned unchanged.
type JSONSerializer struct{}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (JSONSerializer) Dumps(v any) ([]byte, error) {
	switch v := v.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return data, nil
}

func (JSONSerializer) Loads(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &SerializationError{Err: err}
	}
	return nil
}

func (JSONSerializer) MimeType() string { return "application/json" }
