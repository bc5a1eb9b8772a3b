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

// catParams holds the parameters accepted by every cat endpoint.
var catParams = []string{"h", "help", "s", "v"}

var (
	catAliases    = newEndpoint("cat.aliases", append(catParams, "expand_wildcards", "local")...)
	catAllocation = newEndpoint("cat.allocation", append(catParams, "bytes", "local", "master_timeout")...)
	catCount      = newEndpoint("cat.count", catParams...)
	catHealth     = newEndpoint("cat.health", append(catParams, "time", "ts")...)
	catIndices    = newEndpoint("cat.indices", append(catParams, "bytes", "expand_wildcards", "health", "include_unloaded_segments", "local", "master_timeout", "pri", "time")...)
	catMaster     = newEndpoint("cat.master", append(catParams, "local", "master_timeout")...)
	catNodes      = newEndpoint("cat.nodes", append(catParams, "bytes", "full_id", "local", "master_timeout", "time")...)
	catRecovery   = newEndpoint("cat.recovery", append(catParams, "active_only", "bytes", "detailed", "index", "time")...)
	catShards     = newEndpoint("cat.shards", append(catParams, "bytes", "local", "master_timeout", "time")...)
	catSegments   = newEndpoint("cat.segments", append(catParams, "bytes")...)
	catThreadPool = newEndpoint("cat.thread_pool", append(catParams, "local", "master_timeout", "size")...)
	catTemplates  = newEndpoint("cat.templates", append(catParams, "local", "master_timeout")...)
	catPlugins    = newEndpoint("cat.plugins", append(catParams, "local", "master_timeout")...)
	catTasks      = newEndpoint("cat.tasks", append(catParams, "actions", "detailed", "node_id", "parent_task_id", "time")...)
)

// CatClient groups the compact, human readable cat endpoints. Pass
// WithParam("format", "json") for machine readable output.
type CatClient struct {
	c *Client
}

func (cc *CatClient) Aliases(ctx context.Context, name []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catAliases, http.MethodGet, makePath("_cat", "aliases", name), nil, o)
}

func (cc *CatClient) Allocation(ctx context.Context, nodeID []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catAllocation, http.MethodGet, makePath("_cat", "allocation", nodeID), nil, o)
}

func (cc *CatClient) Count(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catCount, http.MethodGet, makePath("_cat", "count", index), nil, o)
}

func (cc *CatClient) Health(ctx context.Context, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catHealth, http.MethodGet, "/_cat/health", nil, o)
}

func (cc *CatClient) Indices(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catIndices, http.MethodGet, makePath("_cat", "indices", index), nil, o)
}

func (cc *CatClient) Master(ctx context.Context, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catMaster, http.MethodGet, "/_cat/master", nil, o)
}

func (cc *CatClient) Nodes(ctx context.Context, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catNodes, http.MethodGet, "/_cat/nodes", nil, o)
}

func (cc *CatClient) Recovery(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catRecovery, http.MethodGet, makePath("_cat", "recovery", index), nil, o)
}

func (cc *CatClient) Shards(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catShards, http.MethodGet, makePath("_cat", "shards", index), nil, o)
}

func (cc *CatClient) Segments(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catSegments, http.MethodGet, makePath("_cat", "segments", index), nil, o)
}

// ThreadPool returns thread pool statistics, optionally limited to the
// named pools.
func (cc *CatClient) ThreadPool(ctx context.Context, threadPoolPatterns []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catThreadPool, http.MethodGet, makePath("_cat", "thread_pool", threadPoolPatterns), nil, o)
}

func (cc *CatClient) Templates(ctx context.Context, name string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catTemplates, http.MethodGet, makePath("_cat", "templates", name), nil, o)
}

func (cc *CatClient) Plugins(ctx context.Context, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catPlugins, http.MethodGet, "/_cat/plugins", nil, o)
}

func (cc *CatClient) Tasks(ctx context.Context, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, catTasks, http.MethodGet, "/_cat/tasks", nil, o)
}
