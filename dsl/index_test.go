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

package dsl_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/go-esclient/dsl"
	"github.com/elastic/go-esclient/estest"
)

func blogMapping() *dsl.Mapping {
	return dsl.NewMapping().
		Field("title", dsl.TextField().Param("analyzer", "english").MultiField("raw", dsl.KeywordField())).
		Field("published", dsl.DateField()).
		Field("author", dsl.ObjectField(dsl.NewMapping().Field("name", dsl.TextField()))).
		Field("comments", dsl.NestedField(dsl.NewMapping().
			Field("stars", dsl.IntegerField()).
			Field("ip", dsl.IPField()))).
		Meta("dynamic", "strict")
}

func TestMappingSource(t *testing.T) {
	assertJSON(t, `{
		"dynamic": "strict",
		"properties": {
			"title": {"type": "text", "analyzer": "english", "fields": {"raw": {"type": "keyword"}}},
			"published": {"type": "date"},
			"author": {"properties": {"name": {"type": "text"}}},
			"comments": {"type": "nested", "properties": {
				"stars": {"type": "integer"},
				"ip": {"type": "ip"}
			}}
		}
	}`, blogMapping().Source())
}

func TestFieldTypes(t *testing.T) {
	for expected, f := range map[string]dsl.Field{
		"text":      dsl.TextField(),
		"keyword":   dsl.KeywordField(),
		"date":      dsl.DateField(),
		"integer":   dsl.IntegerField(),
		"long":      dsl.LongField(),
		"float":     dsl.FloatField(),
		"double":    dsl.DoubleField(),
		"boolean":   dsl.BooleanField(),
		"ip":        dsl.IPField(),
		"geo_point": dsl.GeoPointField(),
		"object":    dsl.ObjectField(nil),
		"nested":    dsl.NestedField(nil),
	} {
		assert.Equal(t, expected, f.Type())
	}
	assertJSON(t, `{"type":"nested","properties":{}}`, dsl.NestedField(nil).Source())
}

func TestFieldImmutable(t *testing.T) {
	base := dsl.DateField()
	withFormat := base.Param("format", "epoch_millis")
	assertJSON(t, `{"type":"date"}`, base.Source())
	assertJSON(t, `{"type":"date","format":"epoch_millis"}`, withFormat.Source())
}

func TestIndexBody(t *testing.T) {
	idx := dsl.NewIndex("blog").
		Settings(map[string]any{"number_of_shards": 1}).
		Settings(map[string]any{"number_of_replicas": 0}).
		Mapping(dsl.NewMapping().Field("title", dsl.TextField())).
		Alias("blog-read", nil).
		Alias("blog-go", map[string]any{"filter": dsl.Term("tags", "go")})

	assert.Equal(t, "blog", idx.Name())
	assertJSON(t, `{
		"settings": {"number_of_shards": 1, "number_of_replicas": 0},
		"mappings": {"properties": {"title": {"type": "text"}}},
		"aliases": {"blog-read": {}, "blog-go": {"filter": {"term": {"tags": "go"}}}}
	}`, idx.Body())
}

func TestIndexOperations(t *testing.T) {
	client, srv := estest.NewClient(t, estest.JSON(http.StatusOK, map[string]any{"acknowledged": true}))
	idx := dsl.NewIndex("blog").UsingClient(client).Mapping(blogMapping())
	ctx := context.Background()

	for _, test := range []struct {
		do     func() error
		method string
		path   string
	}{
		{func() error { _, err := idx.Create(ctx); return err }, http.MethodPut, "/blog"},
		{func() error { _, err := idx.Delete(ctx); return err }, http.MethodDelete, "/blog"},
		{func() error { _, err := idx.Refresh(ctx); return err }, http.MethodPost, "/blog/_refresh"},
		{func() error { _, err := idx.Open(ctx); return err }, http.MethodPost, "/blog/_open"},
		{func() error { _, err := idx.Close(ctx); return err }, http.MethodPost, "/blog/_close"},
		{func() error { _, err := idx.PutMapping(ctx); return err }, http.MethodPut, "/blog/_mapping"},
		{func() error { _, err := idx.GetMapping(ctx); return err }, http.MethodGet, "/blog/_mapping"},
	} {
		require.NoError(t, test.do())
		req := srv.LastRequest()
		assert.Equal(t, test.method, req.Method, test.path)
		assert.Equal(t, test.path, req.Path)
	}

	exists, err := idx.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, http.MethodHead, srv.LastRequest().Method)
}

func TestIndexSave(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		client, srv := estest.NewClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			estest.WriteJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
		}))
		idx := dsl.NewIndex("blog").UsingClient(client).Settings(map[string]any{"number_of_shards": 2})
		require.NoError(t, idx.Save(ctx))

		reqs := srv.Requests()
		require.Len(t, reqs, 2)
		assert.Equal(t, http.MethodPut, reqs[1].Method)
		assert.Equal(t, "/blog", reqs[1].Path)
		assert.JSONEq(t, `{"settings":{"number_of_shards":2}}`, string(reqs[1].Body))
	})

	t.Run("update", func(t *testing.T) {
		client, srv := estest.NewClient(t, estest.JSON(http.StatusOK, map[string]any{"acknowledged": true}))
		idx := dsl.NewIndex("blog").UsingClient(client).
			Settings(map[string]any{"number_of_shards": 2, "refresh_interval": "5s"}).
			Mapping(dsl.NewMapping().Field("title", dsl.TextField()))
		require.NoError(t, idx.Save(ctx))

		reqs := srv.Requests()
		require.Len(t, reqs, 3)
		assert.Equal(t, "/blog/_settings", reqs[1].Path)
		assert.JSONEq(t, `{"index":{"refresh_interval":"5s"}}`, string(reqs[1].Body))
		assert.Equal(t, "/blog/_mapping", reqs[2].Path)
		assert.JSONEq(t, `{"properties":{"title":{"type":"text"}}}`, string(reqs[2].Body))
	})
}

func TestIndexSearch(t *testing.T) {
	client, srv := estest.NewClient(t, estest.JSON(http.StatusOK, `{"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`))
	_, err := dsl.NewIndex("blog").UsingClient(client).Search().Query(dsl.MatchAll()).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/blog/_search", srv.LastRequest().Path)
}
