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
	"net/http"
)

// multiIndex holds the parameters accepted by endpoints resolving index
// patterns.
var multiIndex = []string{"allow_no_indices", "expand_wildcards", "ignore_unavailable"}

var (
	indicesCreate           = newEndpoint("indices.create", "master_timeout", "timeout", "wait_for_active_shards")
	indicesDelete           = newEndpoint("indices.delete", append(multiIndex, "master_timeout", "timeout")...)
	indicesExists           = newEndpoint("indices.exists", append(multiIndex, "flat_settings", "include_defaults", "local")...)
	indicesExistsType       = newEndpoint("indices.exists_type", append(multiIndex, "local")...)
	indicesExistsAlias      = newEndpoint("indices.exists_alias", append(multiIndex, "local")...)
	indicesExistsTemplate   = newEndpoint("indices.exists_template", "flat_settings", "local", "master_timeout")
	indicesGet              = newEndpoint("indices.get", append(multiIndex, "flat_settings", "include_defaults", "local", "master_timeout")...)
	indicesOpen             = newEndpoint("indices.open", append(multiIndex, "master_timeout", "timeout", "wait_for_active_shards")...)
	indicesClose            = newEndpoint("indices.close", append(multiIndex, "master_timeout", "timeout", "wait_for_active_shards")...)
	indicesRefresh          = newEndpoint("indices.refresh", multiIndex...)
	indicesFlush            = newEndpoint("indices.flush", append(multiIndex, "force", "wait_if_ongoing")...)
	indicesForcemerge       = newEndpoint("indices.forcemerge", append(multiIndex, "flush", "max_num_segments", "only_expunge_deletes")...)
	indicesClearCache       = newEndpoint("indices.clear_cache", append(multiIndex, "fielddata", "fields", "query", "request")...)
	indicesPutMapping       = newEndpoint("indices.put_mapping", append(multiIndex, "master_timeout", "timeout", "write_index_only")...)
	indicesGetMapping       = newEndpoint("indices.get_mapping", append(multiIndex, "local", "master_timeout")...)
	indicesGetFieldMapping  = newEndpoint("indices.get_field_mapping", append(multiIndex, "include_defaults", "local")...)
	indicesPutSettings      = newEndpoint("indices.put_settings", append(multiIndex, "flat_settings", "master_timeout", "preserve_existing", "timeout")...)
	indicesGetSettings      = newEndpoint("indices.get_settings", append(multiIndex, "flat_settings", "include_defaults", "local", "master_timeout")...)
	indicesPutAlias         = newEndpoint("indices.put_alias", "master_timeout", "timeout")
	indicesGetAlias         = newEndpoint("indices.get_alias", append(multiIndex, "local")...)
	indicesDeleteAlias      = newEndpoint("indices.delete_alias", "master_timeout", "timeout")
	indicesUpdateAliases    = newEndpoint("indices.update_aliases", "master_timeout", "timeout")
	indicesPutTemplate      = newEndpoint("indices.put_template", "create", "master_timeout", "order")
	indicesGetTemplate      = newEndpoint("indices.get_template", "flat_settings", "local", "master_timeout")
	indicesDeleteTemplate   = newEndpoint("indices.delete_template", "master_timeout", "timeout")
	indicesAnalyze          = newEndpoint("indices.analyze")
	indicesStats            = newEndpoint("indices.stats", append(multiIndex, "completion_fields", "fielddata_fields", "fields", "forbid_closed_indices", "groups", "include_segment_file_sizes", "include_unloaded_segments", "level")...)
	indicesSegments         = newEndpoint("indices.segments", append(multiIndex, "verbose")...)
	indicesRecovery         = newEndpoint("indices.recovery", "active_only", "detailed")
	indicesValidateQuery    = newEndpoint("indices.validate_query", append(multiIndex, "all_shards", "analyze_wildcard", "analyzer", "default_operator", "df", "explain", "lenient", "q", "rewrite")...)
	indicesRollover         = newEndpoint("indices.rollover", "dry_run", "master_timeout", "timeout", "wait_for_active_shards")
	indicesShrink           = newEndpoint("indices.shrink", "master_timeout", "timeout", "wait_for_active_shards")
	indicesSplit            = newEndpoint("indices.split", "master_timeout", "timeout", "wait_for_active_shards")
	indicesClone            = newEndpoint("indices.clone", "master_timeout", "timeout", "wait_for_active_shards")
	indicesResolveIndex     = newEndpoint("indices.resolve_index", "expand_wildcards")
	indicesCreateDataStream = newEndpoint("indices.create_data_stream")
	indicesGetDataStream    = newEndpoint("indices.get_data_stream", "expand_wildcards")
	indicesDeleteDataStream = newEndpoint("indices.delete_data_stream", "expand_wildcards")
)

// IndicesClient groups the index management endpoints.
type IndicesClient struct {
	c *Client
}

// Create creates an index with optional settings and mappings in body.
func (ic *IndicesClient) Create(ctx context.Context, index string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesCreate, http.MethodPut, makePath(index), body, o)
}

// Delete deletes indices.
func (ic *IndicesClient) Delete(ctx context.Context, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesDelete, http.MethodDelete, makePath(index), nil, o)
}

// Exists reports whether all of the given indices exist.
func (ic *IndicesClient) Exists(ctx context.Context, index []string, o ...Option) (bool, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return false, err
	}
	return ic.c.exists(ctx, indicesExists, makePath(index), o)
}

// ExistsType reports whether the given mapping types exist in index.
func (ic *IndicesClient) ExistsType(ctx context.Context, index, docType []string, o ...Option) (bool, error) {
	if err := requireArgs(arg{"index", index}, arg{"doc_type", docType}); err != nil {
		return false, err
	}
	return ic.c.exists(ctx, indicesExistsType, makePath(index, "_mapping", docType), o)
}

// ExistsAlias reports whether the named aliases exist, optionally limited
// to index.
func (ic *IndicesClient) ExistsAlias(ctx context.Context, name, index []string, o ...Option) (bool, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return false, err
	}
	return ic.c.exists(ctx, indicesExistsAlias, makePath(index, "_alias", name), o)
}

// ExistsTemplate reports whether the named legacy index templates exist.
func (ic *IndicesClient) ExistsTemplate(ctx context.Context, name []string, o ...Option) (bool, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return false, err
	}
	return ic.c.exists(ctx, indicesExistsTemplate, makePath("_template", name), o)
}

// Get returns the aliases, mappings and settings of indices.
func (ic *IndicesClient) Get(ctx context.Context, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesGet, http.MethodGet, makePath(index), nil, o)
}

// Open opens closed indices.
func (ic *IndicesClient) Open(ctx context.Context, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesOpen, http.MethodPost, makePath(index, "_open"), nil, o)
}

// Close closes indices.
func (ic *IndicesClient) Close(ctx context.Context, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesClose, http.MethodPost, makePath(index, "_close"), nil, o)
}

// Refresh makes recent operations on indices visible to search.
func (ic *IndicesClient) Refresh(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesRefresh, http.MethodPost, makePath(index, "_refresh"), nil, o)
}

// Flush flushes indices to disk.
func (ic *IndicesClient) Flush(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesFlush, http.MethodPost, makePath(index, "_flush"), nil, o)
}

// Forcemerge merges the segments of indices.
func (ic *IndicesClient) Forcemerge(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesForcemerge, http.MethodPost, makePath(index, "_forcemerge"), nil, o)
}

// ClearCache clears the caches of indices.
func (ic *IndicesClient) ClearCache(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesClearCache, http.MethodPost, makePath(index, "_cache", "clear"), nil, o)
}

// PutMapping adds fields to the mappings of index, or of all indices when
// index is empty.
func (ic *IndicesClient) PutMapping(ctx context.Context, body any, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	if len(index) == 0 {
		index = []string{"_all"}
	}
	return ic.c.perform(ctx, indicesPutMapping, http.MethodPut, makePath(index, "_mapping"), body, o)
}

// GetMapping returns the mappings of indices.
func (ic *IndicesClient) GetMapping(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesGetMapping, http.MethodGet, makePath(index, "_mapping"), nil, o)
}

// GetFieldMapping returns the mappings of specific fields.
func (ic *IndicesClient) GetFieldMapping(ctx context.Context, fields, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"fields", fields}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesGetFieldMapping, http.MethodGet, makePath(index, "_mapping", "field", fields), nil, o)
}

// PutSettings updates the dynamic settings of indices.
func (ic *IndicesClient) PutSettings(ctx context.Context, body any, index []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesPutSettings, http.MethodPut, makePath(index, "_settings"), body, o)
}

// GetSettings returns the settings of indices, optionally filtered by name.
func (ic *IndicesClient) GetSettings(ctx context.Context, index, name []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesGetSettings, http.MethodGet, makePath(index, "_settings", name), nil, o)
}

// PutAlias adds an alias to indices.
func (ic *IndicesClient) PutAlias(ctx context.Context, index []string, name string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"name", name}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesPutAlias, http.MethodPut, makePath(index, "_alias", name), body, o)
}

// GetAlias returns aliases, optionally filtered by index and name.
func (ic *IndicesClient) GetAlias(ctx context.Context, index, name []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesGetAlias, http.MethodGet, makePath(index, "_alias", name), nil, o)
}

// DeleteAlias removes aliases from indices.
func (ic *IndicesClient) DeleteAlias(ctx context.Context, index, name []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"name", name}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesDeleteAlias, http.MethodDelete, makePath(index, "_alias", name), nil, o)
}

// UpdateAliases applies alias actions atomically.
func (ic *IndicesClient) UpdateAliases(ctx context.Context, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesUpdateAliases, http.MethodPost, "/_aliases", body, o)
}

// PutTemplate creates or replaces a legacy index template.
func (ic *IndicesClient) PutTemplate(ctx context.Context, name string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}, arg{"body", body}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesPutTemplate, http.MethodPut, makePath("_template", name), body, o)
}

// GetTemplate returns legacy index templates.
func (ic *IndicesClient) GetTemplate(ctx context.Context, name []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesGetTemplate, http.MethodGet, makePath("_template", name), nil, o)
}

// DeleteTemplate deletes a legacy index template.
func (ic *IndicesClient) DeleteTemplate(ctx context.Context, name string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesDeleteTemplate, http.MethodDelete, makePath("_template", name), nil, o)
}

// Analyze runs text analysis, optionally with the analyzers of index.
func (ic *IndicesClient) Analyze(ctx context.Context, index string, body any, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesAnalyze, http.MethodPost, makePath(index, "_analyze"), body, o)
}

// Stats returns index statistics, optionally limited to metric.
func (ic *IndicesClient) Stats(ctx context.Context, index, metric []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesStats, http.MethodGet, makePath(index, "_stats", metric), nil, o)
}

// Segments returns low level segment information.
func (ic *IndicesClient) Segments(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesSegments, http.MethodGet, makePath(index, "_segments"), nil, o)
}

// Recovery returns shard recovery information.
func (ic *IndicesClient) Recovery(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesRecovery, http.MethodGet, makePath(index, "_recovery"), nil, o)
}

// ValidateQuery validates a query without running it.
func (ic *IndicesClient) ValidateQuery(ctx context.Context, index []string, body any, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesValidateQuery, http.MethodPost, makePath(index, "_validate", "query"), body, o)
}

// Rollover rolls an alias or data stream over to a new index when the
// conditions in body are met. newIndex is optional.
func (ic *IndicesClient) Rollover(ctx context.Context, alias string, body any, newIndex string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"alias", alias}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesRollover, http.MethodPost, makePath(alias, "_rollover", newIndex), body, o)
}

// Shrink shrinks index into target with fewer primary shards.
func (ic *IndicesClient) Shrink(ctx context.Context, index, target string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"target", target}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesShrink, http.MethodPut, makePath(index, "_shrink", target), body, o)
}

// Split splits index into target with more primary shards.
func (ic *IndicesClient) Split(ctx context.Context, index, target string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"target", target}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesSplit, http.MethodPut, makePath(index, "_split", target), body, o)
}

// Clone clones index into target.
func (ic *IndicesClient) Clone(ctx context.Context, index, target string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}, arg{"target", target}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesClone, http.MethodPut, makePath(index, "_clone", target), body, o)
}

// ResolveIndex resolves names and patterns to indices, aliases and data
// streams.
func (ic *IndicesClient) ResolveIndex(ctx context.Context, name []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesResolveIndex, http.MethodGet, makePath("_resolve", "index", name), nil, o)
}

// CreateDataStream creates a data stream backed by a matching index
// template.
func (ic *IndicesClient) CreateDataStream(ctx context.Context, name string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesCreateDataStream, http.MethodPut, makePath("_data_stream", name), nil, o)
}

// GetDataStream returns data streams, or all of them when name is empty.
func (ic *IndicesClient) GetDataStream(ctx context.Context, name []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, indicesGetDataStream, http.MethodGet, makePath("_data_stream", name), nil, o)
}

// DeleteDataStream deletes data streams and their backing indices.
func (ic *IndicesClient) DeleteDataStream(ctx context.Context, name []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, indicesDeleteDataStream, http.MethodDelete, makePath("_data_stream", name), nil, o)
}
