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
	"net/http"
)

var (
	ping            = newEndpoint("ping")
	info            = newEndpoint("info")
	indexDoc        = newEndpoint("index", "if_primary_term", "if_seq_no", "op_type", "pipeline", "refresh", "require_alias", "routing", "timeout", "version", "version_type", "wait_for_active_shards")
	createDoc       = newEndpoint("create", "pipeline", "refresh", "routing", "timeout", "version", "version_type", "wait_for_active_shards")
	getDoc          = newEndpoint("get", "_source", "_source_excludes", "_source_includes", "preference", "realtime", "refresh", "routing", "stored_fields", "version", "version_type")
	existsDoc       = newEndpoint("exists", "_source", "_source_excludes", "_source_includes", "preference", "realtime", "refresh", "routing", "stored_fields", "version", "version_type")
	getSource       = newEndpoint("get_source", "_source", "_source_excludes", "_source_includes", "preference", "realtime", "refresh", "routing", "version", "version_type")
	existsSource    = newEndpoint("exists_source", "_source", "_source_excludes", "_source_includes", "preference", "realtime", "refresh", "routing", "version", "version_type")
	deleteDoc       = newEndpoint("delete", "if_primary_term", "if_seq_no", "refresh", "routing", "timeout", "version", "version_type", "wait_for_active_shards")
	updateDoc       = newEndpoint("update", "_source", "_source_excludes", "_source_includes", "if_primary_term", "if_seq_no", "lang", "refresh", "require_alias", "retry_on_conflict", "routing", "timeout", "wait_for_active_shards")
	mget            = newEndpoint("mget", "_source", "_source_excludes", "_source_includes", "preference", "realtime", "refresh", "routing", "stored_fields")
	bulk            = newBulkEndpoint("bulk", "_source", "_source_excludes", "_source_includes", "pipeline", "refresh", "require_alias", "routing", "timeout", "wait_for_active_shards")
	search          = newEndpoint("search", searchParams...)
	count           = newEndpoint("count", "allow_no_indices", "analyze_wildcard", "analyzer", "default_operator", "df", "expand_wildcards", "ignore_throttled", "ignore_unavailable", "lenient", "min_score", "preference", "q", "routing", "terminate_after")
	msearch         = newBulkEndpoint("msearch", "ccs_minimize_roundtrips", "max_concurrent_searches", "max_concurrent_shard_requests", "pre_filter_shard_size", "rest_total_hits_as_int", "search_type", "typed_keys")
	msearchTemplate = newBulkEndpoint("msearch_template", "ccs_minimize_roundtrips", "max_concurrent_searches", "rest_total_hits_as_int", "search_type", "typed_keys")
	scroll          = newEndpoint("scroll", "rest_total_hits_as_int", "scroll", "scroll_id")
	clearScroll     = newEndpoint("clear_scroll")
	deleteByQuery   = newEndpoint("delete_by_query", "allow_no_indices", "analyze_wildcard", "analyzer", "conflicts", "default_operator", "df", "expand_wildcards", "from", "ignore_unavailable", "lenient", "max_docs", "preference", "q", "refresh", "request_cache", "requests_per_second", "routing", "scroll", "scroll_size", "search_timeout", "search_type", "slices", "sort", "stats", "terminate_after", "timeout", "version", "wait_for_active_shards", "wait_for_completion")
	updateByQuery   = newEndpoint("update_by_query", "allow_no_indices", "analyze_wildcard", "analyzer", "conflicts", "default_operator", "df", "expand_wildcards", "from", "ignore_unavailable", "lenient", "max_docs", "pipeline", "preference", "q", "refresh", "request_cache", "requests_per_second", "routing", "scroll", "scroll_size", "search_timeout", "search_type", "slices", "sort", "stats", "terminate_after", "timeout", "version", "version_type", "wait_for_active_shards", "wait_for_completion")
	reindex         = newEndpoint("reindex", "max_docs", "refresh", "requests_per_second", "scroll", "slices", "timeout", "wait_for_active_shards", "wait_for_completion")
	rethrottle      = newEndpoint("reindex_rethrottle", "requests_per_second")
	explain         = newEndpoint("explain", "_source", "_source_excludes", "_source_includes", "analyze_wildcard", "analyzer", "default_operator", "df", "lenient", "preference", "q", "routing", "stored_fields")
	fieldCaps       = newEndpoint("field_caps", "allow_no_indices", "expand_wildcards", "fields", "ignore_unavailable", "include_unmapped")
	termvectors     = newEndpoint("termvectors", "field_statistics", "fields", "offsets", "payloads", "positions", "preference", "realtime", "routing", "term_statistics", "version", "version_type")
	putScript       = newEndpoint("put_script", "master_timeout", "timeout")
	getScript       = newEndpoint("get_script", "master_timeout")
	deleteScript    = newEndpoint("delete_script", "master_timeout", "timeout")
	searchTemplate  = newEndpoint("search_template", "allow_no_indices", "ccs_minimize_roundtrips", "expand_wildcards", "explain", "ignore_throttled", "ignore_unavailable", "preference", "profile", "rest_total_hits_as_int", "routing", "scroll", "search_type", "typed_keys")
	renderTemplate  = newEndpoint("render_search_template")
	searchShards    = newEndpoint("search_shards", "allow_no_indices", "expand_wildcards", "ignore_unavailable", "local", "preference", "routing")
	openPIT         = newEndpoint("open_point_in_time", "expand_wildcards", "ignore_unavailable", "keep_alive", "preference", "routing")
	closePIT        = newEndpoint("close_point_in_time")
)

var searchParams = []string{
	"_source", "_source_excludes", "_source_includes", "allow_no_indices",
	"allow_partial_search_results", "analyze_wildcard", "analyzer",
	"batched_reduce_size", "ccs_minimize_roundtrips", "default_operator", "df",
	"docvalue_fields", "expand_wildcards", "explain", "from", "ignore_throttled",
	"ignore_unavailable", "lenient", "max_concurrent_shard_requests",
	"pre_filter_shard_size", "preference", "q", "request_cache",
	"rest_total_hits_as_int", "routing", "scroll", "search_type",
	"seq_no_primary_term", "size", "sort", "stats", "stored_fields",
	"suggest_field", "suggest_mode", "suggest_size", "suggest_text",
	"terminate_after", "timeout", "track_scores", "track_total_hits",
	"typed_keys", "version",
}

// Ping reports whether the cluster is reachable. Any transport or response
// error is reported as false.
func (c *Client) Ping(ctx context.Context, o ...Option) (bool, error) {
	ok, err := c.exists(ctx, ping, "/", o)
	if err != nil {
		var connErr *ConnectionError
		var respErr *ResponseError
		if errors.As(err, &connErr) || errors.As(err, &respErr) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// Info returns basic information about the cluster.
func (c *Client) Info(ctx context.Context, o ...Option) (*Response, error) {
	return c.perform(ctx, info, http.MethodGet, "/", nil, o)
}

// Index adds or replaces a document. An empty id lets Elasticsearch
// generate one.
func (c *Client) Index(ctx context.Context, index string, body any, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"body", body}); err != nil {
		return nil, err
	}
	method := http.MethodPut
	if id == "" {
		method = http.MethodPost
	}
	return c.perform(ctx, indexDoc, method, makePath(index, "_doc", id), body, o)
}

// Create indexes a new document, failing with a conflict if id exists.
func (c *Client) Create(ctx context.Context, index, id string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"id", id}, arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, createDoc, http.MethodPut, makePath(index, "_create", id), body, o)
}

// Get returns a document.
func (c *Client) Get(ctx context.Context, index, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"id", id}); err != nil {
		return nil, err
	}
	return c.perform(ctx, getDoc, http.MethodGet, makePath(index, "_doc", id), nil, o)
}

// Exists reports whether a document exists.
func (c *Client) Exists(ctx context.Context, index, id string, o ...Option) (bool, error) {
	if err := requireArgs(arg{"index", index}, arg{"id", id}); err != nil {
		return false, err
	}
	return c.exists(ctx, existsDoc, makePath(index, "_doc", id), o)
}

// GetSource returns the source of a document.
func (c *Client) GetSource(ctx context.Context, index, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"id", id}); err != nil {
		return nil, err
	}
	return c.perform(ctx, getSource, http.MethodGet, makePath(index, "_source", id), nil, o)
}

// ExistsSource reports whether the source of a document exists.
func (c *Client) ExistsSource(ctx context.Context, index, id string, o ...Option) (bool, error) {
	if err := requireArgs(arg{"index", index}, arg{"id", id}); err != nil {
		return false, err
	}
	return c.exists(ctx, existsSource, makePath(index, "_source", id), o)
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, index, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"id", id}); err != nil {
		return nil, err
	}
	return c.perform(ctx, deleteDoc, http.MethodDelete, makePath(index, "_doc", id), nil, o)
}

// Update partially updates a document with a script or a partial doc.
func (c *Client) Update(ctx context.Context, index, id string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"id", id}, arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, updateDoc, http.MethodPost, makePath(index, "_update", id), body, o)
}

// Mget returns multiple documents. index is optional when the body names
// the index of every document.
func (c *Client) Mget(ctx context.Context, body any, index string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, mget, http.MethodPost, makePath(index, "_mget"), body, o)
}

// Bulk performs multiple index, create, update and delete actions in a
// single request. body is newline delimited: a string, bytes, a reader,
// or a slice of actions and sources.
func (c *Client) Bulk(ctx context.Context, body any, index string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, bulk, http.MethodPost, makePath(index, "_bulk"), body, o)
}

// Search runs a search across index, or all indices when index is empty.
func (c *Client) Search(ctx context.Context, index []string, body any, o ...Option) (*Response, error) {
	return c.perform(ctx, search, http.MethodPost, makePath(index, "_search"), body, o)
}

// Count returns the number of documents matching a query.
func (c *Client) Count(ctx context.Context, index []string, body any, o ...Option) (*Response, error) {
	return c.perform(ctx, count, http.MethodPost, makePath(index, "_count"), body, o)
}

// Msearch runs several searches in a single request. body alternates
// header and search lines.
func (c *Client) Msearch(ctx context.Context, body any, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, msearch, http.MethodPost, makePath(index, "_msearch"), body, o)
}

// MsearchTemplate runs several templated searches in a single request.
func (c *Client) MsearchTemplate(ctx context.Context, body any, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, msearchTemplate, http.MethodPost, makePath(index, "_msearch", "template"), body, o)
}

// Scroll fetches the next batch of a scrolled search. Either scrollID or
// body must be given; when both are, scrollID is sent as a parameter.
func (c *Client) Scroll(ctx context.Context, scrollID string, body any, o ...Option) (*Response, error) {
	switch {
	case scrollID == "" && isEmpty(body):
		return nil, &ArgumentError{Name: "scroll_id"}
	case isEmpty(body):
		body = map[string]any{"scroll_id": scrollID}
	case scrollID != "":
		o = append(o[:len(o):len(o)], WithParam("scroll_id", scrollID))
	}
	return c.perform(ctx, scroll, http.MethodPost, "/_search/scroll", body, o)
}

// ClearScroll releases the resources of the given scroll ids, or of the
// ids listed in body.
func (c *Client) ClearScroll(ctx context.Context, scrollIDs []string, body any, o ...Option) (*Response, error) {
	switch {
	case len(scrollIDs) == 0 && isEmpty(body):
		return nil, &ArgumentError{Name: "scroll_id"}
	case isEmpty(body):
		body = map[string]any{"scroll_id": scrollIDs}
	}
	return c.perform(ctx, clearScroll, http.MethodDelete, "/_search/scroll", body, o)
}

// DeleteByQuery deletes the documents of index matching the query in body.
func (c *Client) DeleteByQuery(ctx context.Context, index []string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, deleteByQuery, http.MethodPost, makePath(index, "_delete_by_query"), body, o)
}

// UpdateByQuery updates the documents of index matching the optional query
// in body.
func (c *Client) UpdateByQuery(ctx context.Context, index []string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return c.perform(ctx, updateByQuery, http.MethodPost, makePath(index, "_update_by_query"), body, o)
}

// Reindex copies documents from a source to a destination index on the
// server.
func (c *Client) Reindex(ctx context.Context, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, reindex, http.MethodPost, "/_reindex", body, o)
}

// ReindexRethrottle changes the throttling of a running reindex task.
func (c *Client) ReindexRethrottle(ctx context.Context, taskID string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"task_id", taskID}); err != nil {
		return nil, err
	}
	return c.perform(ctx, rethrottle, http.MethodPost, makePath("_reindex", taskID, "_rethrottle"), nil, o)
}

// Explain returns how a document scores against a query.
func (c *Client) Explain(ctx context.Context, index, id string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"id", id}); err != nil {
		return nil, err
	}
	return c.perform(ctx, explain, http.MethodPost, makePath(index, "_explain", id), body, o)
}

// FieldCaps returns the capabilities of fields across indices.
func (c *Client) FieldCaps(ctx context.Context, index []string, body any, o ...Option) (*Response, error) {
	return c.perform(ctx, fieldCaps, http.MethodPost, makePath(index, "_field_caps"), body, o)
}

// Termvectors returns term information for the fields of a document. id
// may be empty when body holds an artificial document.
func (c *Client) Termvectors(ctx context.Context, index, id string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return c.perform(ctx, termvectors, http.MethodPost, makePath(index, "_termvectors", id), body, o)
}

// PutScript stores a script or search template. scriptContext is optional.
func (c *Client) PutScript(ctx context.Context, id string, body any, scriptContext string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"id", id}, arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, putScript, http.MethodPut, makePath("_scripts", id, scriptContext), body, o)
}

// GetScript returns a stored script.
func (c *Client) GetScript(ctx context.Context, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"id", id}); err != nil {
		return nil, err
	}
	return c.perform(ctx, getScript, http.MethodGet, makePath("_scripts", id), nil, o)
}

// DeleteScript deletes a stored script.
func (c *Client) DeleteScript(ctx context.Context, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"id", id}); err != nil {
		return nil, err
	}
	return c.perform(ctx, deleteScript, http.MethodDelete, makePath("_scripts", id), nil, o)
}

// SearchTemplate runs a search from a template.
func (c *Client) SearchTemplate(ctx context.Context, index []string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, searchTemplate, http.MethodPost, makePath(index, "_search", "template"), body, o)
}

// RenderSearchTemplate renders a search template without running it.
func (c *Client) RenderSearchTemplate(ctx context.Context, id string, body any, o ...Option) (*Response, error) {
	return c.perform(ctx, renderTemplate, http.MethodPost, makePath("_render", "template", id), body, o)
}

// SearchShards returns the shards a search request would be executed on.
func (c *Client) SearchShards(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return c.perform(ctx, searchShards, http.MethodGet, makePath(index, "_search_shards"), nil, o)
}

// OpenPointInTime opens a point in time for index, to be used by
// subsequent searches.
func (c *Client) OpenPointInTime(ctx context.Context, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return c.perform(ctx, openPIT, http.MethodPost, makePath(index, "_pit"), nil, o)
}

// ClosePointInTime closes the point in time named in body.
func (c *Client) ClosePointInTime(ctx context.Context, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return c.perform(ctx, closePIT, http.MethodDelete, "/_pit", body, o)
}
