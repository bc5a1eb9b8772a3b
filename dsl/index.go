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

// staticSettings cannot be changed on an existing index.
var staticSettings = []string{"number_of_shards", "index.number_of_shards", "codec", "index.codec"}

// Index describes an index: its settings, mapping and aliases.
type Index struct {
	name     string
	settings map[string]any
	mapping  *Mapping
	aliases  map[string]any
	using    using
}

// NewIndex returns an Index named name.
func NewIndex(name string) *Index {
	return &Index{name: name}
}

// Name returns the index name.
func (i *Index) Name() string { return i.name }

// Settings merges settings into the index settings and returns i.
func (i *Index) Settings(settings map[string]any) *Index {
	if i.settings == nil {
		i.settings = make(map[string]any, len(settings))
	}
	for k, v := range settings {
		i.settings[k] = v
	}
	return i
}

// Mapping sets the index mapping and returns i.
func (i *Index) Mapping(m *Mapping) *Index {
	i.mapping = m
	return i
}

// Alias adds an alias with optional parameters such as "filter" and
// returns i.
func (i *Index) Alias(name string, params map[string]any) *Index {
	if i.aliases == nil {
		i.aliases = make(map[string]any)
	}
	if params == nil {
		params = map[string]any{}
	}
	i.aliases[name] = maps.Clone(params)
	return i
}

// Using sets the connection alias and returns i.
func (i *Index) Using(alias string) *Index {
	i.using = using{alias: alias}
	return i
}

// UsingClient sets the client and returns i.
func (i *Index) UsingClient(client *esclient.Client) *Index {
	i.using = using{client: client}
	return i
}

// Body returns the create index request body.
func (i *Index) Body() map[string]any {
	body := make(map[string]any, 3)
	if len(i.settings) > 0 {
		body["settings"] = maps.Clone(i.settings)
	}
	if i.mapping != nil {
		if m := i.mapping.Source(); len(m) > 0 {
			body["mappings"] = m
		}
	}
	if len(i.aliases) > 0 {
		body["aliases"] = render(i.aliases)
	}
	return body
}

// Search returns a search over the index, using the same connection.
func (i *Index) Search() Search {
	s := NewSearch(i.name)
	s.using = i.using
	return s
}

func (i *Index) indices() []string { return []string{i.name} }

// Create creates the index.
func (i *Index) Create(ctx context.Context, o ...esclient.Option) (*esclient.Response, error) {
	client, err := i.using.get()
	if err != nil {
		return nil, err
	}
	return client.Indices.Create(ctx, i.name, i.Body(), o...)
}

// Exists reports whether the index exists.
func (i *Index) Exists(ctx context.Context, o ...esclient.Option) (bool, error) {
	client, err := i.using.get()
	if err != nil {
		return false, err
	}
	return client.Indices.Exists(ctx, i.indices(), o...)
}

// Delete deletes the index.
func (i *Index) Delete(ctx context.Context, o ...esclient.Option) (*esclient.Response, error) {
	client, err := i.using.get()
	if err != nil {
		return nil, err
	}
	return client.Indices.Delete(ctx, i.indices(), o...)
}

// Refresh makes recent changes to the index visible to search.
func (i *Index) Refresh(ctx context.Context, o ...esclient.Option) (*esclient.Response, error) {
	client, err := i.using.get()
	if err != nil {
		return nil, err
	}
	return client.Indices.Refresh(ctx, i.indices(), o...)
}

// Open opens a closed index.
func (i *Index) Open(ctx context.Context, o ...esclient.Option) (*esclient.Response, error) {
	client, err := i.using.get()
	if err != nil {
		return nil, err
	}
	return client.Indices.Open(ctx, i.indices(), o...)
}

// Close closes the index.
func (i *Index) Close(ctx context.Context, o ...esclient.Option) (*esclient.Response, error) {
	client, err := i.using.get()
	if err != nil {
		return nil, err
	}
	return client.Indices.Close(ctx, i.indices(), o...)
}

// PutMapping puts the index mapping. Without a mapping an empty one is
// sent.
func (i *Index) PutMapping(ctx context.Context, o ...esclient.Option) (*esclient.Response, error) {
	client, err := i.using.get()
	if err != nil {
		return nil, err
	}
	m := i.mapping
	if m == nil {
		m = NewMapping()
	}
	return m.Save(ctx, client, i.name, o...)
}

// GetMapping returns the mapping of the index as stored by Elasticsearch.
func (i *Index) GetMapping(ctx context.Context, o ...esclient.Option) (*esclient.Response, error) {
	client, err := i.using.get()
	if err != nil {
		return nil, err
	}
	return client.Indices.GetMapping(ctx, i.indices(), o...)
}

// Save creates the index if it does not exist. Otherwise the dynamic
// settings and the mapping are updated in place; static settings such as
// number_of_shards are left unchanged.
func (i *Index) Save(ctx context.Context) error {
	exists, err := i.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		_, err := i.Create(ctx)
		return err
	}
	client, err := i.using.get()
	if err != nil {
		return err
	}
	settings := maps.Clone(i.settings)
	for _, k := range staticSettings {
		delete(settings, k)
	}
	if len(settings) > 0 {
		body := map[string]any{"index": settings}
		if _, err := client.Indices.PutSettings(ctx, body, i.indices()); err != nil {
			return err
		}
	}
	if i.mapping != nil {
		if _, err := i.mapping.Save(ctx, client, i.name); err != nil {
			return err
		}
	}
	return nil
}
