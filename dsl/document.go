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
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/elastic/go-esclient"
)

// Documents stores documents of type T in a single index. T is encoded
// and decoded with the client serializer.
//
//	type Post struct {
//		Title string `json:"title"`
//	}
//	posts := dsl.NewDocuments[Post]("posts").UsingClient(client)
//	id, err := posts.Save(ctx, Post{Title: "hello"}, "")
type Documents[T any] struct {
	index string
	using using
}

// NewDocuments returns a document store for index.
func NewDocuments[T any](index string) Documents[T] {
	return Documents[T]{index: index}
}

// Index returns the index name.
func (d Documents[T]) Index() string { return d.index }

// Using returns a copy of d using the client registered under alias.
func (d Documents[T]) Using(alias string) Documents[T] {
	d.using = using{alias: alias}
	return d
}

// UsingClient returns a copy of d using client.
func (d Documents[T]) UsingClient(client *esclient.Client) Documents[T] {
	d.using = using{client: client}
	return d
}

type getResult struct {
	ID     string              `json:"_id"`
	Found  bool                `json:"found"`
	Source jsoniter.RawMessage `json:"_source"`
}

// Get returns the document with id. A missing document is reported as an
// error matching esclient.ErrNotFound.
func (d Documents[T]) Get(ctx context.Context, id string, o ...esclient.Option) (T, error) {
	var doc T
	client, err := d.using.get()
	if err != nil {
		return doc, err
	}
	resp, err := client.Get(ctx, d.index, id, o...)
	if err != nil {
		return doc, err
	}
	var r getResult
	if err := resp.Decode(&r); err != nil {
		return doc, err
	}
	if err := client.Serializer().Loads(r.Source, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// MGet returns the documents with ids, in order. Missing documents are
// returned as nil.
func (d Documents[T]) MGet(ctx context.Context, ids []string, o ...esclient.Option) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	client, err := d.using.get()
	if err != nil {
		return nil, err
	}
	resp, err := client.Mget(ctx, map[string]any{"ids": ids}, d.index, o...)
	if err != nil {
		return nil, err
	}
	var r struct {
		Docs []getResult `json:"docs"`
	}
	if err := resp.Decode(&r); err != nil {
		return nil, err
	}
	if len(r.Docs) != len(ids) {
		return nil, fmt.Errorf("expected %d documents, got %d", len(ids), len(r.Docs))
	}
	out := make([]*T, len(r.Docs))
	for i, doc := range r.Docs {
		if !doc.Found {
			continue
		}
		var v T
		if err := client.Serializer().Loads(doc.Source, &v); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
		}
		out[i] = &v
	}
	return out, nil
}

// Save indexes doc under id and returns the document id. An empty id lets
// Elasticsearch generate one.
func (d Documents[T]) Save(ctx context.Context, doc T, id string, o ...esclient.Option) (string, error) {
	client, err := d.using.get()
	if err != nil {
		return "", err
	}
	resp, err := client.Index(ctx, d.index, doc, id, o...)
	if err != nil {
		return "", err
	}
	var r struct {
		ID string `json:"_id"`
	}
	if err := resp.Decode(&r); err != nil {
		return "", err
	}
	return r.ID, nil
}

// Update merges partial into the stored document with id.
func (d Documents[T]) Update(ctx context.Context, id string, partial any, o ...esclient.Option) error {
	client, err := d.using.get()
	if err != nil {
		return err
	}
	_, err = client.Update(ctx, d.index, id, map[string]any{"doc": partial}, o...)
	return err
}

// Delete deletes the document with id.
func (d Documents[T]) Delete(ctx context.Context, id string, o ...esclient.Option) error {
	client, err := d.using.get()
	if err != nil {
		return err
	}
	_, err = client.Delete(ctx, d.index, id, o...)
	return err
}

// Exists reports whether the document with id exists.
func (d Documents[T]) Exists(ctx context.Context, id string, o ...esclient.Option) (bool, error) {
	client, err := d.using.get()
	if err != nil {
		return false, err
	}
	return client.Exists(ctx, d.index, id, o...)
}

// Search returns the documents matching q. A nil q matches all
// documents. Only the first page of hits is returned; use Search.Scan to
// iterate over all of them.
func (d Documents[T]) Search(ctx context.Context, q Query) ([]T, error) {
	s := NewSearch(d.index)
	s.using = d.using
	if q != nil {
		s = s.Query(q)
	}
	resp, err := s.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return HitsAs[T](resp)
}
