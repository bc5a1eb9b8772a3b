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
	ilmPutLifecycle     = newEndpoint("ilm.put_lifecycle", "master_timeout", "timeout")
	ilmGetLifecycle     = newEndpoint("ilm.get_lifecycle", "master_timeout", "timeout")
	ilmDeleteLifecycle  = newEndpoint("ilm.delete_lifecycle", "master_timeout", "timeout")
	ilmExplainLifecycle = newEndpoint("ilm.explain_lifecycle", "only_errors", "only_managed")
	ilmStart            = newEndpoint("ilm.start", "master_timeout", "timeout")
	ilmStop             = newEndpoint("ilm.stop", "master_timeout", "timeout")
	ilmGetStatus        = newEndpoint("ilm.get_status")
)

// ILMClient groups the index lifecycle management endpoints.
type ILMClient struct {
	c *Client
}

// PutLifecycle creates or replaces a lifecycle policy.
func (ic *ILMClient) PutLifecycle(ctx context.Context, policy string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"policy", policy}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, ilmPutLifecycle, http.MethodPut, makePath("_ilm", "policy", policy), body, o)
}

// GetLifecycle returns a lifecycle policy, or all of them when policy is
// empty.
func (ic *ILMClient) GetLifecycle(ctx context.Context, policy string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, ilmGetLifecycle, http.MethodGet, makePath("_ilm", "policy", policy), nil, o)
}

// DeleteLifecycle deletes a lifecycle policy.
func (ic *ILMClient) DeleteLifecycle(ctx context.Context, policy string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"policy", policy}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, ilmDeleteLifecycle, http.MethodDelete, makePath("_ilm", "policy", policy), nil, o)
}

// ExplainLifecycle returns the lifecycle state of index.
func (ic *ILMClient) ExplainLifecycle(ctx context.Context, index string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"index", index}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, ilmExplainLifecycle, http.MethodGet, makePath(index, "_ilm", "explain"), nil, o)
}

// Start starts the lifecycle plugin.
func (ic *ILMClient) Start(ctx context.Context, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, ilmStart, http.MethodPost, "/_ilm/start", nil, o)
}

// Stop stops the lifecycle plugin.
func (ic *ILMClient) Stop(ctx context.Context, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, ilmStop, http.MethodPost, "/_ilm/stop", nil, o)
}

// GetStatus returns the status of the lifecycle plugin.
func (ic *ILMClient) GetStatus(ctx context.Context, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, ilmGetStatus, http.MethodGet, "/_ilm/status", nil, o)
}
