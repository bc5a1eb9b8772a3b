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
	clusterHealth                  = newEndpoint("cluster.health", "expand_wildcards", "level", "local", "master_timeout", "timeout", "wait_for_active_shards", "wait_for_events", "wait_for_no_initializing_shards", "wait_for_no_relocating_shards", "wait_for_nodes", "wait_for_status")
	clusterState                   = newEndpoint("cluster.state", append(multiIndex, "flat_settings", "local", "master_timeout", "wait_for_metadata_version", "wait_for_timeout")...)
	clusterStats                   = newEndpoint("cluster.stats", "flat_settings", "timeout")
	clusterPendingTasks            = newEndpoint("cluster.pending_tasks", "local", "master_timeout")
	clusterReroute                 = newEndpoint("cluster.reroute", "dry_run", "explain", "master_timeout", "metric", "retry_failed", "timeout")
	clusterGetSettings             = newEndpoint("cluster.get_settings", "flat_settings", "include_defaults", "master_timeout", "timeout")
	clusterPutSettings             = newEndpoint("cluster.put_settings", "flat_settings", "master_timeout", "timeout")
	clusterAllocationExplain       = newEndpoint("cluster.allocation_explain", "include_disk_info", "include_yes_decisions")
	clusterRemoteInfo              = newEndpoint("cluster.remote_info")
	clusterPutComponentTemplate    = newEndpoint("cluster.put_component_template", "create", "master_timeout", "timeout")
	clusterGetComponentTemplate    = newEndpoint("cluster.get_component_template", "local", "master_timeout")
	clusterDeleteComponentTemplate = newEndpoint("cluster.delete_component_template", "master_timeout", "timeout")
)

// ClusterClient groups the cluster level endpoints.
type ClusterClient struct {
	c *Client
}

// Health returns the health of the cluster, or of index only.
func (cc *ClusterClient) Health(ctx context.Context, index []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, clusterHealth, http.MethodGet, makePath("_cluster", "health", index), nil, o)
}

// State returns the cluster state, optionally limited to metric and
// index. When index is given without a metric, all metrics are returned.
func (cc *ClusterClient) State(ctx context.Context, metric, index []string, o ...Option) (*Response, error) {
	if len(index) > 0 && len(metric) == 0 {
		metric = []string{"_all"}
	}
	return cc.c.perform(ctx, clusterState, http.MethodGet, makePath("_cluster", "state", metric, index), nil, o)
}

// Stats returns cluster statistics, optionally limited to nodeID.
func (cc *ClusterClient) Stats(ctx context.Context, nodeID []string, o ...Option) (*Response, error) {
	path := "/_cluster/stats"
	if len(nodeID) > 0 {
		path = makePath("_cluster", "stats", "nodes", nodeID)
	}
	return cc.c.perform(ctx, clusterStats, http.MethodGet, path, nil, o)
}

// PendingTasks returns the cluster level changes not yet executed.
func (cc *ClusterClient) PendingTasks(ctx context.Context, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, clusterPendingTasks, http.MethodGet, "/_cluster/pending_tasks", nil, o)
}

// Reroute applies the shard allocation commands in body.
func (cc *ClusterClient) Reroute(ctx context.Context, body any, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, clusterReroute, http.MethodPost, "/_cluster/reroute", body, o)
}

// GetSettings returns the cluster settings.
func (cc *ClusterClient) GetSettings(ctx context.Context, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, clusterGetSettings, http.MethodGet, "/_cluster/settings", nil, o)
}

// PutSettings updates persistent or transient cluster settings.
func (cc *ClusterClient) PutSettings(ctx context.Context, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return cc.c.perform(ctx, clusterPutSettings, http.MethodPut, "/_cluster/settings", body, o)
}

// AllocationExplain explains shard allocation decisions.
func (cc *ClusterClient) AllocationExplain(ctx context.Context, body any, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, clusterAllocationExplain, http.MethodPost, "/_cluster/allocation/explain", body, o)
}

// RemoteInfo returns the configured remote clusters.
func (cc *ClusterClient) RemoteInfo(ctx context.Context, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, clusterRemoteInfo, http.MethodGet, "/_remote/info", nil, o)
}

// PutComponentTemplate creates or updates a component template.
func (cc *ClusterClient) PutComponentTemplate(ctx context.Context, name string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}, arg{"body", body}); err != nil {
		return nil, err
	}
	return cc.c.perform(ctx, clusterPutComponentTemplate, http.MethodPut, makePath("_component_template", name), body, o)
}

// GetComponentTemplate returns component templates.
func (cc *ClusterClient) GetComponentTemplate(ctx context.Context, name []string, o ...Option) (*Response, error) {
	return cc.c.perform(ctx, clusterGetComponentTemplate, http.MethodGet, makePath("_component_template", name), nil, o)
}

// DeleteComponentTemplate deletes a component template.
func (cc *ClusterClient) DeleteComponentTemplate(ctx context.Context, name string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"name", name}); err != nil {
		return nil, err
	}
	return cc.c.perform(ctx, clusterDeleteComponentTemplate, http.MethodDelete, makePath("_component_template", name), nil, o)
}
