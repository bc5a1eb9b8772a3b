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

var (
	nodesInfo                 = newEndpoint("nodes.info", "flat_settings", "timeout")
	nodesStats                = newEndpoint("nodes.stats", "completion_fields", "fielddata_fields", "fields", "groups", "include_segment_file_sizes", "level", "timeout", "types")
	nodesHotThreads           = newEndpoint("nodes.hot_threads", "ignore_idle_threads", "interval", "snapshots", "sort", "threads", "timeout", "type")
	nodesUsage                = newEndpoint("nodes.usage", "timeout")
	nodesReloadSecureSettings = newEndpoint("nodes.reload_secure_settings", "timeout")
)

// NodesClient groups the node level endpoints.
type NodesClient struct {
	c *Client
}

// Info returns information about nodes, optionally limited to metric.
func (nc *NodesClient) Info(ctx context.Context, nodeID, metric []string, o ...Option) (*Response, error) {
	return nc.c.perform(ctx, nodesInfo, http.MethodGet, makePath("_nodes", nodeID, metric), nil, o)
}

// Stats returns node statistics, optionally limited to metric and
// indexMetric.
func (nc *NodesClient) Stats(ctx context.Context, nodeID, metric, indexMetric []string, o ...Option) (*Response, error) {
	return nc.c.perform(ctx, nodesStats, http.MethodGet, makePath("_nodes", nodeID, "stats", metric, indexMetric), nil, o)
}

// HotThreads returns the hot threads of nodes as plain text.
func (nc *NodesClient) HotThreads(ctx context.Context, nodeID []string, o ...Option) (*Response, error) {
	return nc.c.perform(ctx, nodesHotThreads, http.MethodGet, makePath("_nodes", nodeID, "hot_threads"), nil, o)
}

// Usage returns feature usage of nodes.
func (nc *NodesClient) Usage(ctx context.Context, nodeID, metric []string, o ...Option) (*Response, error) {
	return nc.c.perform(ctx, nodesUsage, http.MethodGet, makePath("_nodes", nodeID, "usage", metric), nil, o)
}

// ReloadSecureSettings reloads the keystore of nodes.
func (nc *NodesClient) ReloadSecureSettings(ctx context.Context, nodeID []string, body any, o ...Option) (*Response, error) {
	return nc.c.perform(ctx, nodesReloadSecureSettings, http.MethodPost, makePath("_nodes", nodeID, "reload_secure_settings"), body, o)
}
