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
	"maps"

	"github.com/elastic/go-esclient"
)

// Field describes the mapping of a single field.
//
// Field is immutable; Param and MultiField return modified copies.
type Field struct {
	typ        string
	params     map[string]any
	fields     map[string]Field
	properties *Mapping
}

func newField(typ string) Field { return Field{typ: typ} }

func TextField() Field     { return newField("text") }
func KeywordField() Field  { return newField("keyword") }
func DateField() Field     { return newField("date") }
func IntegerField() Field  { return newField("integer") }
func LongField() Field     { return newField("long") }
func FloatField() Field    { return newField("float") }
func DoubleField() Field   { return newField("double") }
func BooleanField() Field  { return newField("boolean") }
func IPField() Field       { return newField("ip") }
func GeoPointField() Field { return newField("geo_point") }

// ObjectField maps an object whose properties are described by m.
func ObjectField(m *Mapping) Field {
	f := newField("object")
	f.properties = m.clone()
	return f
}

// NestedField maps an array of objects indexed as separate documents.
func NestedField(m *Mapping) Field {
	f := newField("nested")
	f.properties = m.clone()
	return f
}

// Type returns the field type.
func (f Field) Type() string { return f.typ }

// Param returns a copy of f with the mapping parameter set, such as
// "analyzer" or "format".
func (f Field) Param(name string, value any) Field {
	f.params = maps.Clone(f.params)
	if f.params == nil {
		f.params = make(map[string]any, 1)
	}
	f.params[name] = value
	return f
}

// MultiField returns a copy of f indexing the value a second time as sub
// under name, such as a keyword "raw" sub-field of a text field.
func (f Field) MultiField(name string, sub Field) Field {
	f.fields = maps.Clone(f.fields)
	if f.fields == nil {
		f.fields = make(map[string]Field, 1)
	}
	f.fields[name] = sub
	return f
}

// Source renders the field mapping.
func (f Field) Source() map[string]any {
	out := make(map[string]any, len(f.params)+3)
	for k, v := range f.params {
		out[k] = v
	}
	// Objects are implied by their properties.
	if f.typ != "object" || f.properties == nil {
		out["type"] = f.typ
	}
	if len(f.fields) > 0 {
		fields := make(map[string]any, len(f.fields))
		for name, sub := range f.fields {
			fields[name] = sub.Source()
		}
		out["fields"] = fields
	}
	if f.properties != nil {
		out["properties"] = f.properties.properties()
	}
	return out
}

// Mapping describes the fields of an index.
type Mapping struct {
	fields map[string]Field
	meta   map[string]any
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{fields: make(map[string]Field)}
}

// Field adds or replaces the mapping of name and returns m.
func (m *Mapping) Field(name string, f Field) *Mapping {
	m.fields[name] = f
	return m
}

// Meta sets a top level mapping parameter, such as "dynamic" or
// "_source", and returns m.
func (m *Mapping) Meta(name string, value any) *Mapping {
	if m.meta == nil {
		m.meta = make(map[string]any)
	}
	m.meta[name] = value
	return m
}

// Fields returns the names of the mapped fields and their mapping.
func (m *Mapping) Fields() map[string]Field { return maps.Clone(m.fields) }

func (m *Mapping) clone() *Mapping {
	if m == nil {
		return NewMapping()
	}
	return &Mapping{fields: maps.Clone(m.fields), meta: maps.Clone(m.meta)}
}

func (m *Mapping) properties() map[string]any {
	props := make(map[string]any, len(m.fields))
	for name, f := range m.fields {
		props[name] = f.Source()
	}
	return props
}

// Source renders the mapping as sent to the put mapping API.
func (m *Mapping) Source() map[string]any {
	out := make(map[string]any, len(m.meta)+1)
	for k, v := range m.meta {
		out[k] = v
	}
	if len(m.fields) > 0 {
		out["properties"] = m.properties()
	}
	return out
}

// Save puts the mapping on index.
func (m *Mapping) Save(ctx context.Context, client *esclient.Client, index string, o ...esclient.Option) (*esclient.Response, error) {
	return client.Indices.PutMapping(ctx, m.Source(), []string{index}, o...)
}
