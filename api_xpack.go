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
	licenseGet            = newEndpoint("license.get", "accept_enterprise", "local")
	licensePost           = newEndpoint("license.post", "acknowledge")
	licenseDelete         = newEndpoint("license.delete")
	licenseGetBasicStatus = newEndpoint("license.get_basic_status")
	licensePostStartBasic = newEndpoint("license.post_start_basic", "acknowledge")
	licenseGetTrialStatus = newEndpoint("license.get_trial_status")
	licensePostStartTrial = newEndpoint("license.post_start_trial", "acknowledge", "type")

	watcherPutWatch        = newEndpoint("watcher.put_watch", "active", "if_primary_term", "if_seq_no", "version")
	watcherGetWatch        = newEndpoint("watcher.get_watch")
	watcherDeleteWatch     = newEndpoint("watcher.delete_watch")
	watcherExecuteWatch    = newEndpoint("watcher.execute_watch", "debug")
	watcherActivateWatch   = newEndpoint("watcher.activate_watch")
	watcherDeactivateWatch = newEndpoint("watcher.deactivate_watch")
	watcherAckWatch        = newEndpoint("watcher.ack_watch")
	watcherStart           = newEndpoint("watcher.start")
	watcherStop            = newEndpoint("watcher.stop")
	watcherStats           = newEndpoint("watcher.stats", "emit_stacktraces")

	monitoringBulk = newBulkEndpoint("monitoring.bulk", "interval", "system_api_version", "system_id")

	xpackInfo  = newEndpoint("xpack.info", "accept_enterprise", "categories")
	xpackUsage = newEndpoint("xpack.usage", "master_timeout")
)

// LicenseClient groups the license management endpoints.
type LicenseClient struct {
	namespace
}

// Get returns the installed license.
func (lc *LicenseClient) Get(ctx context.Context, o ...Option) (*Response, error) {
	return lc.perform(ctx, licenseGet, http.MethodGet, lc.path(), nil, o)
}

// Post installs or updates a license.
func (lc *LicenseClient) Post(ctx context.Context, body any, o ...Option) (*Response, error) {
	return lc.perform(ctx, licensePost, http.MethodPut, lc.path(), body, o)
}

// Delete removes the installed license.
func (lc *LicenseClient) Delete(ctx context.Context, o ...Option) (*Response, error) {
	return lc.perform(ctx, licenseDelete, http.MethodDelete, lc.path(), nil, o)
}

// GetBasicStatus reports whether a basic license can be started.
func (lc *LicenseClient) GetBasicStatus(ctx context.Context, o ...Option) (*Response, error) {
	return lc.perform(ctx, licenseGetBasicStatus, http.MethodGet, lc.path("basic_status"), nil, o)
}

// PostStartBasic starts an indefinite basic license.
func (lc *LicenseClient) PostStartBasic(ctx context.Context, o ...Option) (*Response, error) {
	return lc.perform(ctx, licensePostStartBasic, http.MethodPost, lc.path("start_basic"), nil, o)
}

// GetTrialStatus reports whether a trial license can be started.
func (lc *LicenseClient) GetTrialStatus(ctx context.Context, o ...Option) (*Response, error) {
	return lc.perform(ctx, licenseGetTrialStatus, http.MethodGet, lc.path("trial_status"), nil, o)
}

// PostStartTrial starts a trial license.
func (lc *LicenseClient) PostStartTrial(ctx context.Context, o ...Option) (*Response, error) {
	return lc.perform(ctx, licensePostStartTrial, http.MethodPost, lc.path("start_trial"), nil, o)
}

// WatcherClient groups the alerting endpoints.
type WatcherClient struct {
	namespace
}

// PutWatch creates or updates a watch.
func (wc *WatcherClient) PutWatch(ctx context.Context, id string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"id", id}); err != nil {
		return nil, err
	}
	return wc.perform(ctx, watcherPutWatch, http.MethodPut, wc.path("watch", id), body, o)
}

// GetWatch returns a watch.
func (wc *WatcherClient) GetWatch(ctx context.Context, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"id", id}); err != nil {
		return nil, err
	}
	return wc.perform(ctx, watcherGetWatch, http.MethodGet, wc.path("watch", id), nil, o)
}

// DeleteWatch deletes a watch.
func (wc *WatcherClient) DeleteWatch(ctx context.Context, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"id", id}); err != nil {
		return nil, err
	}
	return wc.perform(ctx, watcherDeleteWatch, http.MethodDelete, wc.path("watch", id), nil, o)
}

// ExecuteWatch runs a stored watch, or the inline watch in body when id is
// empty.
func (wc *WatcherClient) ExecuteWatch(ctx context.Context, id string, body any, o ...Option) (*Response, error) {
	return wc.perform(ctx, watcherExecuteWatch, http.MethodPut, wc.path("watch", id, "_execute"), body, o)
}

// ActivateWatch activates a watch.
func (wc *WatcherClient) ActivateWatch(ctx context.Context, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"watch_id", id}); err != nil {
		return nil, err
	}
	return wc.perform(ctx, watcherActivateWatch, http.MethodPut, wc.path("watch", id, "_activate"), nil, o)
}

// DeactivateWatch deactivates a watch.
func (wc *WatcherClient) DeactivateWatch(ctx context.Context, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"watch_id", id}); err != nil {
		return nil, err
	}
	return wc.perform(ctx, watcherDeactivateWatch, http.MethodPut, wc.path("watch", id, "_deactivate"), nil, o)
}

// AckWatch acknowledges the actions of a watch, or all of them when
// actionID is empty.
func (wc *WatcherClient) AckWatch(ctx context.Context, id string, actionID []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"watch_id", id}); err != nil {
		return nil, err
	}
	return wc.perform(ctx, watcherAckWatch, http.MethodPut, wc.path("watch", id, "_ack", actionID), nil, o)
}

// Start starts the watcher service.
func (wc *WatcherClient) Start(ctx context.Context, o ...Option) (*Response, error) {
	return wc.perform(ctx, watcherStart, http.MethodPost, wc.path("_start"), nil, o)
}

// Stop stops the watcher service.
func (wc *WatcherClient) Stop(ctx context.Context, o ...Option) (*Response, error) {
	return wc.perform(ctx, watcherStop, http.MethodPost, wc.path("_stop"), nil, o)
}

// Stats returns watcher statistics, optionally limited to metric.
func (wc *WatcherClient) Stats(ctx context.Context, metric []string, o ...Option) (*Response, error) {
	return wc.perform(ctx, watcherStats, http.MethodGet, wc.path("stats", metric), nil, o)
}

// MonitoringClient sends monitoring data collected outside of the cluster.
type MonitoringClient struct {
	namespace
	bulkPart string
}

// Bulk sends newline delimited monitoring documents. docType is optional.
func (mc *MonitoringClient) Bulk(ctx context.Context, body any, docType string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, monitoringBulk, http.MethodPost, mc.path(docType, mc.bulkPart), body, o)
}

// XPackClient groups the X-Pack information endpoints and the legacy
// namespaces served under /_xpack.
type XPackClient struct {
	c *Client

	ML         *MLClient
	Security   *SecurityClient
	License    *LicenseClient
	Watcher    *WatcherClient
	Monitoring *MonitoringClient
}

func newXPackClient(c *Client) *XPackClient {
	return &XPackClient{
		c:          c,
		ML:         &MLClient{namespace{c, "_xpack/ml"}},
		Security:   &SecurityClient{namespace{c, "_xpack/security"}},
		License:    &LicenseClient{namespace{c, "_xpack/license"}},
		Watcher:    &WatcherClient{namespace{c, "_xpack/watcher"}},
		Monitoring: &MonitoringClient{namespace{c, "_xpack/monitoring"}, "_bulk"},
	}
}

// Info returns the build, license and feature information of the cluster.
func (xc *XPackClient) Info(ctx context.Context, o ...Option) (*Response, error) {
	return xc.c.perform(ctx, xpackInfo, http.MethodGet, "/_xpack", nil, o)
}

// Usage returns feature usage statistics.
func (xc *XPackClient) Usage(ctx context.Context, o ...Option) (*Response, error) {
	return xc.c.perform(ctx, xpackUsage, http.MethodGet, "/_xpack/usage", nil, o)
}
